package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	dappbind "github.com/branched-services/go-dappbind"
)

// target is a contract resolved from the registry or from --abi.
type target struct {
	address  string
	desc     dappbind.Descriptor
	readOnly bool
}

// resolve finds a contract by registry name, or by address when abiFile is set.
func (a *app) resolve(nameOrAddress, abiFile string) (target, error) {
	if abiFile != "" {
		if !common.IsHexAddress(nameOrAddress) {
			return target{}, fmt.Errorf("--abi requires a contract address, got %q", nameOrAddress)
		}
		data, err := os.ReadFile(abiFile)
		if err != nil {
			return target{}, err
		}
		desc, err := dappbind.Normalize(data)
		if err != nil {
			return target{}, err
		}
		return target{address: nameOrAddress, desc: desc}, nil
	}

	reg, err := a.contracts()
	if err != nil {
		return target{}, err
	}
	c, err := reg.Get(nameOrAddress)
	if err != nil {
		return target{}, err
	}
	return target{address: c.Address, desc: c.Descriptor(), readOnly: c.ReadOnly}, nil
}

func newCallCmd(a *app) *cobra.Command {
	var (
		readOnly bool
		abiFile  string
		value    string
	)
	cmd := &cobra.Command{
		Use:   "call <contract> <method> [args...]",
		Short: "Invoke a contract method",
		Long: `Invoke a contract method and print its results, one per line.

View and pure methods are answered by the node. Other methods are sent as a
transaction signed by the connected wallet and print the transaction hash.
Arrays are passed as JSON, e.g. '["0xabc...","0xdef..."]'. Payable methods
take the ether to send with --value.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.resolve(args[0], abiFile)
			if err != nil {
				return err
			}
			m, ok := t.desc.Method(args[1])
			if !ok {
				return fmt.Errorf("contract %s has no method %q", args[0], args[1])
			}
			callArgs, err := parseArgs(m, args[2:])
			if err != nil {
				return err
			}
			var wei *big.Int
			if value != "" {
				if wei, err = dappbind.ParseUnits(value, dappbind.EtherDecimals); err != nil {
					return fmt.Errorf("--value: %w", err)
				}
			}

			binding, err := a.binder.Contract(ctx, t.address, t.desc, readOnly || t.readOnly)
			if err != nil {
				return err
			}
			res, err := binding.InvokeWithValue(ctx, wei, m.Name, callArgs...)
			if err != nil {
				return err
			}
			if res.Failed() {
				return errors.New(res.Reason)
			}
			return printValues(cmd.OutOrStdout(), res.Values)
		},
	}
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "call through the RPC node without connecting a wallet")
	cmd.Flags().StringVar(&abiFile, "abi", "", "JSON ABI file, when <contract> is an address")
	cmd.Flags().StringVar(&value, "value", "", "ether to send with a payable method, e.g. 0.5")
	return cmd
}

// parseArgs converts command-line strings into values the codec accepts for
// each declared input. Surplus arguments are passed through untouched.
func parseArgs(m dappbind.Method, raw []string) ([]any, error) {
	out := make([]any, len(raw))
	for i, s := range raw {
		if i >= len(m.Inputs) {
			out[i] = s
			continue
		}
		v, err := parseArg(m.Inputs[i], s)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, m.Inputs[i].Type, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseArg(p dappbind.Parameter, s string) (any, error) {
	if strings.HasSuffix(p.Type, "]") || p.Family == dappbind.FamilyTuple {
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("expected JSON: %w", err)
		}
		return v, nil
	}
	switch p.Family {
	case dappbind.FamilyBool:
		return strconv.ParseBool(s)
	case dappbind.FamilyInt:
		return parseInt(s)
	default:
		return s, nil
	}
}

// parseInt accepts an optionally signed decimal or 0x hex integer.
func parseInt(s string) (*big.Int, error) {
	digits, neg := strings.CutPrefix(s, "-")
	base := 10
	if hex, ok := strings.CutPrefix(strings.ToLower(digits), "0x"); ok {
		digits, base = hex, 16
	}
	if digits == "" || strings.ContainsAny(digits, "_+-") {
		return nil, fmt.Errorf("%w: %q", dappbind.ErrInvalidNumber, s)
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", dappbind.ErrInvalidNumber, s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

func printValues(w io.Writer, values []any) error {
	for _, v := range values {
		switch v.(type) {
		case string, bool, fmt.Stringer:
			if _, err := fmt.Fprintln(w, v); err != nil {
				return err
			}
		default:
			data, err := json.Marshal(v)
			if err != nil {
				data = []byte(fmt.Sprint(v))
			}
			if _, err := fmt.Fprintln(w, string(data)); err != nil {
				return err
			}
		}
	}
	return nil
}
