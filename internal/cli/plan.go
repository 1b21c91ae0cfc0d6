// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rtlauncher/mcassets-core/pkg/mcassets"
)

func newPlanCmd(ctx context.Context, ro *RootOpts) *cobra.Command {
	var prefer string

	cmd := &cobra.Command{
		Use:   "plan VERSION",
		Short: "Resolve a Minecraft version and print what would be downloaded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mcVersion := args[0]

			pref := mcassets.PreferMirror
			switch prefer {
			case "origin":
				pref = mcassets.PreferOrigin
			case "origin-first":
				pref = mcassets.PreferOriginFirst
			}

			loader := mcassets.NewManifestLoader()
			manifest, err := loader.Execute(ctx, pref, false)
			if err != nil {
				return fmt.Errorf("fetching version manifest: %w", err)
			}

			url, ok := mcassets.ResolveVersionURL(manifest.Document, mcVersion)
			if !ok {
				return fmt.Errorf("version %q not found in manifest", mcVersion)
			}

			if ro.JSONOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"version":      mcVersion,
					"versionUrl":   url,
					"isFromOrigin": manifest.IsFromOrigin,
				})
			}

			fmt.Printf("version %s resolves to %s\n", mcVersion, url)
			if newer, ok := loader.CheckForUpdates(mcVersion, manifest); ok {
				fmt.Printf("a newer version is available: %s\n", newer)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefer, "prefer", "mirror", "Manifest source preference: mirror|origin|origin-first")
	return cmd
}
