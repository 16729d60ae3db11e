package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	dappbind "github.com/branched-services/go-dappbind"
)

func newMethodsCmd(a *app) *cobra.Command {
	var abiFile string
	cmd := &cobra.Command{
		Use:     "methods <contract>",
		Short:   "List the methods of a contract",
		Args:    cobra.ExactArgs(1),
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolve(args[0], abiFile)
			if err != nil {
				return err
			}
			data := pterm.TableData{{"Method", "Inputs", "Outputs", "Mutability"}}
			for _, m := range t.desc.Methods {
				data = append(data, []string{m.Name, params(m.Inputs), params(m.Outputs), m.StateMutability})
			}
			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
	cmd.Flags().StringVar(&abiFile, "abi", "", "JSON ABI file, when <contract> is an address")
	return cmd
}

func params(ps []dappbind.Parameter) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		if p.Name != "" {
			parts[i] = p.Type + " " + p.Name
		} else {
			parts[i] = p.Type
		}
	}
	return strings.Join(parts, ", ")
}
