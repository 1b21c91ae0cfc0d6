// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"rtlauncher/mcassets-core/pkg/mcassets"
)

// fileConfig is the on-disk shape of ~/.config/mcassets.yaml|.json: a
// DownloadConfig plus the install root, used to seed flag defaults.
type fileConfig struct {
	InstallRoot             string `yaml:"installRoot" json:"installRoot"`
	MaxConcurrency          int    `yaml:"maxConcurrency" json:"maxConcurrency"`
	LargeFileThresholdBytes string `yaml:"largeFileThreshold" json:"largeFileThreshold"`
	LargeFileChunks         int    `yaml:"largeFileChunks" json:"largeFileChunks"`
	Strategy                string `yaml:"strategy" json:"strategy"`
	MaxRetriesPerURL        uint32 `yaml:"maxRetriesPerUrl" json:"maxRetriesPerUrl"`
}

// DefaultFileConfig returns the default configuration written by
// `mcassets config init`.
func DefaultFileConfig() fileConfig {
	d := mcassets.DefaultDownloadConfig()
	return fileConfig{
		InstallRoot:             "./minecraft",
		MaxConcurrency:          d.MaxConcurrency,
		LargeFileThresholdBytes: "5MiB",
		LargeFileChunks:         d.LargeFileChunks,
		Strategy:                d.Strategy.String(),
		MaxRetriesPerURL:        d.MaxRetriesPerURL,
	}
}

// resolveConfigPath returns an explicit path if given, otherwise the
// first of ~/.config/mcassets.{json,yaml,yml} that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	home, _ := os.UserHomeDir()
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		p := filepath.Join(home, ".config", "mcassets"+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadFileConfig reads and parses path based on its extension.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid JSON config file: %w", err)
		}
	}
	return cfg, nil
}

// applyDownloadConfigDefaults loads the config file (if any) and layers
// its values under cmd's already-set flags, returning the resulting
// DownloadConfig and install root. CLI flags always override
// config-file values.
func applyDownloadConfigDefaults(cmd *cobra.Command, ro *RootOpts) (mcassets.DownloadConfig, string, error) {
	path := resolveConfigPath(ro.Config)
	fc, err := loadFileConfig(path)
	if err != nil {
		return mcassets.DownloadConfig{}, "", err
	}

	cfg := mcassets.DefaultDownloadConfig()
	if fc.MaxConcurrency > 0 {
		cfg.MaxConcurrency = fc.MaxConcurrency
	}
	if fc.LargeFileThresholdBytes != "" {
		if n, err := mcassets.ParseSizeString(fc.LargeFileThresholdBytes, cfg.LargeFileThresholdBytes); err == nil {
			cfg.LargeFileThresholdBytes = n
		}
	}
	if fc.LargeFileChunks > 0 {
		cfg.LargeFileChunks = fc.LargeFileChunks
	}
	switch strings.ToLower(fc.Strategy) {
	case "origin-only":
		cfg.Strategy = mcassets.OriginOnly
	case "mirror-only":
		cfg.Strategy = mcassets.MirrorOnly
	case "hybrid", "":
	}
	if fc.MaxRetriesPerURL > 0 {
		cfg.MaxRetriesPerURL = fc.MaxRetriesPerURL
	}

	installRoot := ro.InstallRoot
	if installRoot == "" {
		installRoot = fc.InstallRoot
	}
	if installRoot == "" {
		installRoot = "./minecraft"
	}

	return cfg, installRoot, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, useYAML bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long: `Creates a default configuration file at ~/.config/mcassets.json (or .yaml).

CLI flags always override config file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("could not find home directory: %w", err)
			}

			configDir := filepath.Join(home, ".config")
			ext := ".json"
			if useYAML {
				ext = ".yaml"
			}
			configPath := filepath.Join(configDir, "mcassets"+ext)

			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
			}

			if err := os.MkdirAll(configDir, 0o755); err != nil {
				return fmt.Errorf("could not create config directory: %w", err)
			}

			cfg := DefaultFileConfig()
			var data []byte
			if useYAML {
				data, err = yaml.Marshal(cfg)
			} else {
				data, err = json.MarshalIndent(cfg, "", "  ")
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(configPath, data, 0o644); err != nil {
				return fmt.Errorf("could not write config file: %w", err)
			}

			fmt.Printf("Created config file: %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")
	cmd.Flags().BoolVar(&useYAML, "yaml", false, "Create YAML config instead of JSON")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveConfigPath("")
			if path == "" {
				fmt.Println("No config file found. Run 'mcassets config init' to create one.")
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			fmt.Printf("Config file: %s\n\n", path)
			fmt.Println(string(data))
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			home, _ := os.UserHomeDir()
			fmt.Println(filepath.Join(home, ".config", "mcassets.json"))
		},
	}
}
