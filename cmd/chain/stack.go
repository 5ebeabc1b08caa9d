package main

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/iliamunaev/order-chain/internal/app"
)

func newStackCmd(f *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Serve all three hops in one process, wired to each other",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Hops.Customers.Listen = listen
			}
			return app.RunStack(cmd.Context(), cfg, log, func(hop string, addr net.Addr) {
				cmd.Printf("%-9s listening on %s\n", hop, addr)
			})
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address of the customers hop (overrides the file)")
	return cmd
}
