// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rtlauncher/mcassets-core/internal/server"
)

func newServeCmd(ro *RootOpts) *cobra.Command {
	var (
		addr string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST+WebSocket server for install management",
		Long: `Start an HTTP server that provides:
  - REST API for starting and tracking client installs
  - WebSocket for live task progress

The install root is configured server-side only (not via API) for security.

Example:
  mcassets serve
  mcassets serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, installRoot, err := applyDownloadConfigDefaults(cmd, ro)
			if err != nil {
				return err
			}

			srvCfg := server.DefaultConfig()
			srvCfg.Addr = addr
			srvCfg.Port = port
			srvCfg.InstallRoot = installRoot
			srvCfg.Download = cfg

			srv := server.New(srvCfg)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			fmt.Printf("mcassets server listening on %s:%d\n", addr, port)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "0.0.0.0", "Address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")

	return cmd
}
