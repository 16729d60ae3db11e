package dappbind

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Parameter is one declared input or output of a method.
type Parameter struct {
	Name         string      `json:"name" yaml:"name"`
	Type         string      `json:"type" yaml:"type"`
	InternalType string      `json:"internalType,omitempty" yaml:"internalType,omitempty"`
	Components   []Parameter `json:"components,omitempty" yaml:"components,omitempty"`

	// Family is derived from Type during normalization.
	Family TypeFamily `json:"-" yaml:"-"`

	abiType abi.Type
	typed   bool
}

// ABIType returns the parsed go-ethereum type. It is only meaningful on
// parameters of a normalized Descriptor.
func (p Parameter) ABIType() abi.Type {
	return p.abiType
}

// Method is one callable function of a contract.
type Method struct {
	Name            string      `json:"name" yaml:"name"`
	Inputs          []Parameter `json:"inputs" yaml:"inputs"`
	Outputs         []Parameter `json:"outputs" yaml:"outputs"`
	StateMutability string      `json:"stateMutability,omitempty" yaml:"stateMutability,omitempty"`
}

// Constant reports whether the method only reads chain state.
func (m Method) Constant() bool {
	return m.StateMutability == "view" || m.StateMutability == "pure"
}

// Payable reports whether the method accepts value.
func (m Method) Payable() bool {
	return m.StateMutability == "payable"
}

// Signature returns the canonical "name(type,...)" form.
func (m Method) Signature() string {
	return m.gethMethod().Sig
}

func (m Method) gethMethod() abi.Method {
	return abi.NewMethod(m.Name, m.Name, abi.Function, m.StateMutability,
		m.Constant(), m.Payable(), toArguments(m.Inputs), toArguments(m.Outputs))
}

func toArguments(params []Parameter) abi.Arguments {
	args := make(abi.Arguments, len(params))
	for i, p := range params {
		args[i] = abi.Argument{Name: p.Name, Type: p.abiType}
	}
	return args
}

// Descriptor is an ordered list of methods. Build one with Normalize.
type Descriptor struct {
	Methods []Method

	normalized bool
}

// Method returns the method with the given name. When a name is overloaded the
// last definition wins.
func (d Descriptor) Method(name string) (Method, bool) {
	for i := len(d.Methods) - 1; i >= 0; i-- {
		if d.Methods[i].Name == name {
			return d.Methods[i], true
		}
	}
	return Method{}, false
}

// Names returns the distinct method names in declaration order.
func (d Descriptor) Names() []string {
	seen := make(map[string]bool, len(d.Methods))
	names := make([]string, 0, len(d.Methods))
	for _, m := range d.Methods {
		if !seen[m.Name] {
			seen[m.Name] = true
			names = append(names, m.Name)
		}
	}
	return names
}

// Normalized reports whether every parameter type has been parsed.
func (d Descriptor) Normalized() bool {
	return d.normalized
}

// MarshalJSON renders the descriptor as a standard JSON ABI.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	type entry struct {
		Type string `json:"type"`
		Method
	}
	entries := make([]entry, len(d.Methods))
	for i, m := range d.Methods {
		if m.Inputs == nil {
			m.Inputs = []Parameter{}
		}
		if m.Outputs == nil {
			m.Outputs = []Parameter{}
		}
		entries[i] = entry{Type: "function", Method: m}
	}
	return json.Marshal(entries)
}

// Normalize turns any supported ABI source into a Descriptor whose parameter
// types are parsed. Supported sources are Descriptor, *Descriptor, []string of
// human-readable signatures, []any mixing signatures and JSON-shaped maps, JSON
// bytes or text, and a go-ethereum abi.ABI.
func Normalize(source any) (Descriptor, error) {
	switch s := source.(type) {
	case Descriptor:
		if s.normalized {
			return s, nil
		}
		return normalizeMethods(s.Methods)
	case *Descriptor:
		if s == nil {
			return Descriptor{}, fmt.Errorf("%w: nil descriptor", ErrMalformedAbi)
		}
		return Normalize(*s)
	case []string:
		entries := make([]any, len(s))
		for i, sig := range s {
			entries[i] = sig
		}
		return fromEntries(entries)
	case []any:
		return fromEntries(s)
	case []map[string]any:
		entries := make([]any, len(s))
		for i, m := range s {
			entries[i] = m
		}
		return fromEntries(entries)
	case json.RawMessage:
		return ParseJSON(s)
	case []byte:
		return ParseJSON(s)
	case string:
		if strings.HasPrefix(strings.TrimSpace(s), "[") {
			return ParseJSON([]byte(s))
		}
		return fromEntries([]any{s})
	case abi.ABI:
		return fromGeth(s)
	case *abi.ABI:
		if s == nil {
			return Descriptor{}, fmt.Errorf("%w: nil abi", ErrMalformedAbi)
		}
		return fromGeth(*s)
	default:
		return Descriptor{}, fmt.Errorf("%w: unsupported abi source %T", ErrMalformedAbi, source)
	}
}

// MustNormalize is like Normalize but panics on error.
func MustNormalize(source any) Descriptor {
	d, err := Normalize(source)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseJSON normalizes a JSON ABI array. Elements may be structured entries or
// human-readable signature strings.
func ParseJSON(data []byte) (Descriptor, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Descriptor{}, &AbiError{Entry: -1, Err: err}
	}
	entries := make([]any, len(raw))
	for i, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) > 0 && r[0] == '"' {
			var sig string
			if err := json.Unmarshal(r, &sig); err != nil {
				return Descriptor{}, &AbiError{Entry: i, Err: err}
			}
			entries[i] = sig
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(r, &m); err != nil {
			return Descriptor{}, &AbiError{Entry: i, Err: err}
		}
		entries[i] = m
	}
	return fromEntries(entries)
}

func fromEntries(entries []any) (Descriptor, error) {
	methods := make([]Method, 0, len(entries))
	for i, e := range entries {
		var (
			m   Method
			ok  bool
			err error
		)
		switch v := e.(type) {
		case string:
			m, ok, err = parseSignature(v)
			if err != nil {
				return Descriptor{}, &AbiError{Entry: i, Input: v, Err: err}
			}
		case map[string]any:
			m, ok, err = parseEntry(v)
			if err != nil {
				return Descriptor{}, &AbiError{Entry: i, Err: err}
			}
		case Method:
			m, ok = v, true
		default:
			return Descriptor{}, &AbiError{Entry: i, Err: fmt.Errorf("unsupported entry %T", e)}
		}
		if ok {
			methods = append(methods, m)
		}
	}
	return normalizeMethods(methods)
}

func normalizeMethods(methods []Method) (Descriptor, error) {
	if len(methods) == 0 {
		return Descriptor{}, fmt.Errorf("%w: no methods", ErrMalformedAbi)
	}
	out := make([]Method, len(methods))
	for i, m := range methods {
		if m.Name == "" {
			return Descriptor{}, &AbiError{Entry: i, Err: errors.New("missing name")}
		}
		if m.StateMutability == "" {
			m.StateMutability = "nonpayable"
		}
		var err error
		if m.Inputs, err = normalizeParams(m.Inputs); err != nil {
			return Descriptor{}, &AbiError{Entry: i, Input: m.Name, Err: err}
		}
		if m.Outputs, err = normalizeParams(m.Outputs); err != nil {
			return Descriptor{}, &AbiError{Entry: i, Input: m.Name, Err: err}
		}
		out[i] = m
	}
	return Descriptor{Methods: out, normalized: true}, nil
}

func normalizeParams(params []Parameter) ([]Parameter, error) {
	out := make([]Parameter, len(params))
	for i, p := range params {
		if p.typed {
			out[i] = p
			continue
		}
		if strings.TrimSpace(p.Type) == "" {
			return nil, fmt.Errorf("parameter %d: missing type", i)
		}
		components, err := normalizeParams(p.Components)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		t, err := abi.NewType(p.Type, p.InternalType, toMarshaling(components))
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		p.Components = components
		p.Family = ParseFamily(p.Type)
		p.abiType = t
		p.typed = true
		out[i] = p
	}
	return out, nil
}

func toMarshaling(params []Parameter) []abi.ArgumentMarshaling {
	if len(params) == 0 {
		return nil
	}
	out := make([]abi.ArgumentMarshaling, len(params))
	for i, p := range params {
		out[i] = abi.ArgumentMarshaling{
			Name:         p.Name,
			Type:         p.Type,
			InternalType: p.InternalType,
			Components:   toMarshaling(p.Components),
		}
	}
	return out
}

func parseEntry(m map[string]any) (Method, bool, error) {
	if typ, _ := m["type"].(string); typ != "" && typ != "function" {
		return Method{}, false, nil
	}
	name, _ := m["name"].(string)
	if name == "" {
		return Method{}, false, errors.New("missing name")
	}
	inputs, err := entryParams(m, "inputs")
	if err != nil {
		return Method{}, false, err
	}
	outputs, err := entryParams(m, "outputs")
	if err != nil {
		return Method{}, false, err
	}
	mutability, _ := m["stateMutability"].(string)
	if mutability == "" {
		switch {
		case m["constant"] == true:
			mutability = "view"
		case m["payable"] == true:
			mutability = "payable"
		}
	}
	return Method{Name: name, Inputs: inputs, Outputs: outputs, StateMutability: mutability}, true, nil
}

func entryParams(m map[string]any, key string) ([]Parameter, error) {
	raw, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}
	if raw == nil {
		return []Parameter{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %T", key, raw)
	}
	return mapParams(list)
}

func mapParams(list []any) ([]Parameter, error) {
	params := make([]Parameter, len(list))
	for i, item := range list {
		pm, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parameter %d: expected an object, got %T", i, item)
		}
		p := Parameter{}
		p.Name, _ = pm["name"].(string)
		p.Type, _ = pm["type"].(string)
		p.InternalType, _ = pm["internalType"].(string)
		if comps, ok := pm["components"].([]any); ok {
			c, err := mapParams(comps)
			if err != nil {
				return nil, fmt.Errorf("parameter %d: %w", i, err)
			}
			p.Components = c
		}
		params[i] = p
	}
	return params, nil
}

func fromGeth(a abi.ABI) (Descriptor, error) {
	names := make([]string, 0, len(a.Methods))
	for name := range a.Methods {
		names = append(names, name)
	}
	sort.Strings(names)

	methods := make([]Method, 0, len(names))
	for _, name := range names {
		gm := a.Methods[name]
		methods = append(methods, Method{
			Name:            gm.RawName,
			Inputs:          fromGethArguments(gm.Inputs),
			Outputs:         fromGethArguments(gm.Outputs),
			StateMutability: gm.StateMutability,
		})
	}
	return normalizeMethods(methods)
}

func fromGethArguments(args abi.Arguments) []Parameter {
	params := make([]Parameter, len(args))
	for i, arg := range args {
		tag := arg.Type.String()
		params[i] = Parameter{
			Name:    arg.Name,
			Type:    tag,
			Family:  ParseFamily(tag),
			abiType: arg.Type,
			typed:   true,
		}
	}
	return params
}
