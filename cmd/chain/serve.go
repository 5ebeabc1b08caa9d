package main

import (
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliamunaev/order-chain/internal/app"
	"github.com/iliamunaev/order-chain/internal/config"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:       "serve <" + strings.Join(config.HopNames, "|") + ">",
		Short:     "Serve one hop of the chain",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: config.HopNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			name := args[0]
			hc, err := cfg.Hop(name)
			if err != nil {
				return err
			}
			if listen != "" {
				hc.Listen = listen
			}

			ctx := cmd.Context()
			h, err := app.New(ctx, name, *hc, log)
			if err != nil {
				return err
			}
			defer h.Close()

			ln, err := net.Listen("tcp", hc.Listen)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", hc.Listen, err)
			}
			return h.Serve(ctx, ln)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on (overrides the file)")
	return cmd
}
