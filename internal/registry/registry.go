// Package registry loads named contract deployments from a YAML file.
//
// A registry maps a short name to an address and its ABI:
//
//	contracts:
//	  pool:
//	    address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
//	    readOnly: true
//	    abi:
//	      - function getPools() view returns (address[])
//	      - function stake(address pool, uint256 amount)
//	  token:
//	    address: "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
//	    abiFile: ./abi/erc20.json
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	dappbind "github.com/branched-services/go-dappbind"
)

// ErrUnknownContract is returned by Get for names not in the registry.
var ErrUnknownContract = errors.New("unknown contract")

// Contract is one deployed contract.
type Contract struct {
	Name     string `yaml:"-"`
	Address  string `yaml:"address"`
	ReadOnly bool   `yaml:"readOnly"`
	// ABI entries are signature strings or JSON-ABI shaped maps.
	ABI     []any  `yaml:"abi"`
	ABIFile string `yaml:"abiFile"`

	descriptor dappbind.Descriptor
}

// Descriptor returns the normalized ABI.
func (c Contract) Descriptor() dappbind.Descriptor {
	return c.descriptor
}

// Registry is a set of named contracts.
type Registry struct {
	contracts map[string]Contract
}

type file struct {
	Contracts map[string]*Contract `yaml:"contracts"`
}

// Load reads a registry file. Relative abiFile paths resolve against the
// directory of path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes registry YAML. baseDir resolves relative abiFile paths.
func Parse(data []byte, baseDir string) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	r := &Registry{contracts: make(map[string]Contract, len(f.Contracts))}
	for name, c := range f.Contracts {
		if c == nil {
			return nil, fmt.Errorf("contract %q: empty definition", name)
		}
		c.Name = name
		if _, err := dappbind.NormalizeAddress(c.Address); err != nil {
			return nil, fmt.Errorf("contract %q: %w", name, err)
		}
		desc, err := c.load(baseDir)
		if err != nil {
			return nil, fmt.Errorf("contract %q: %w", name, err)
		}
		c.descriptor = desc
		r.contracts[name] = *c
	}
	return r, nil
}

func (c *Contract) load(baseDir string) (dappbind.Descriptor, error) {
	switch {
	case c.ABIFile != "" && len(c.ABI) > 0:
		return dappbind.Descriptor{}, errors.New("abi and abiFile are mutually exclusive")
	case c.ABIFile != "":
		path := c.ABIFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return dappbind.Descriptor{}, err
		}
		return dappbind.Normalize(data)
	default:
		entries, err := jsonShaped(c.ABI)
		if err != nil {
			return dappbind.Descriptor{}, err
		}
		return dappbind.Normalize(entries)
	}
}

// jsonShaped converts yaml-decoded maps into the map[string]any / []any shapes
// the ABI normalizer accepts.
func jsonShaped(entries []any) ([]any, error) {
	out := make([]any, len(entries))
	for i, e := range entries {
		v, err := convert(e)
		if err != nil {
			return nil, fmt.Errorf("abi entry %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func convert(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			cv, err := convert(val)
			if err != nil {
				return nil, err
			}
			m[k] = cv
		}
		return m, nil
	case []any:
		list := make([]any, len(t))
		for i, val := range t {
			cv, err := convert(val)
			if err != nil {
				return nil, err
			}
			list[i] = cv
		}
		return list, nil
	case string, bool, int, float64, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

// Get returns the contract registered under name.
func (r *Registry) Get(name string) (Contract, error) {
	c, ok := r.contracts[name]
	if !ok {
		return Contract{}, fmt.Errorf("%w: %s", ErrUnknownContract, name)
	}
	return c, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.contracts))
	for name := range r.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
