package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	dappbind "github.com/branched-services/go-dappbind"
)

func newConnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Select and unlock a wallet, remembering it for later calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := a.conn.Connect(ctx, new(big.Int).SetUint64(a.cfg.ChainID))
			if err != nil {
				return err
			}
			chainID, err := h.ChainID(ctx)
			if err != nil {
				return err
			}
			balance, err := h.Balance(ctx, h.Account())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Account:  %s\n", h.Account().Hex())
			fmt.Fprintf(out, "Chain:    %s\n", chainID)
			fmt.Fprintf(out, "Endpoint: %s\n", h.Endpoint())
			fmt.Fprintf(out, "Balance:  %s\n", dappbind.FormatUnits(balance, dappbind.EtherDecimals))
			return nil
		},
	}
}

func newDisconnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the remembered wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.conn.Disconnect(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
			return nil
		},
	}
}
