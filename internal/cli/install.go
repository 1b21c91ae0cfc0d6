// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rtlauncher/mcassets-core/internal/tui"
	"rtlauncher/mcassets-core/pkg/mcassets"
)

func newInstallCmd(ctx context.Context, ro *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install VERSION",
		Short: "Download and install a Minecraft client version",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mcVersion := args[0]
			cfg, installRoot, err := applyDownloadConfigDefaults(cmd, ro)
			if err != nil {
				return err
			}

			tm := mcassets.NewTaskManager()
			defer tm.Close()

			task := mcassets.NewDownloadClientTask(mcVersion, installRoot, cfg)
			id := tm.AppendTask(task)
			if err := tm.StartTask(ctx, id); err != nil {
				return err
			}

			get := func() (mcassets.TaskInfo, bool) { return tm.GetTaskInfo(id) }

			switch {
			case ro.JSONOut:
				return streamJSON(get)
			case ro.Quiet:
				return awaitTerminal(get)
			default:
				tui.Poll(get, mcVersion, 200*time.Millisecond)
			}

			info, _ := get()
			if info.Status.Kind() == mcassets.StatusFailed {
				return fmt.Errorf("install failed: %s", info.Status.Reason())
			}
			return nil
		},
	}
	return cmd
}

func streamJSON(get func() (mcassets.TaskInfo, bool)) error {
	enc := json.NewEncoder(os.Stdout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		info, ok := get()
		if !ok {
			return nil
		}
		enc.Encode(map[string]any{
			"status":     info.Status.String(),
			"percentage": info.Progress.Percentage(),
			"completed":  info.Progress.CompletedItems,
			"total":      info.Progress.TotalItems,
		})
		if info.Status.Terminal() {
			if info.Status.Kind() == mcassets.StatusFailed {
				return fmt.Errorf("install failed: %s", info.Status.Reason())
			}
			return nil
		}
	}
	return nil
}

func awaitTerminal(get func() (mcassets.TaskInfo, bool)) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		info, ok := get()
		if !ok {
			return nil
		}
		if info.Status.Terminal() {
			if info.Status.Kind() == mcassets.StatusFailed {
				return fmt.Errorf("install failed: %s", info.Status.Reason())
			}
			return nil
		}
	}
	return nil
}
