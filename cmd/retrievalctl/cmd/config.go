package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/saoki0913/career-compass-retrieval/configs"
	"github.com/saoki0913/career-compass-retrieval/internal/config"
	"github.com/saoki0913/career-compass-retrieval/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize retrievalctl configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .retrievalctl.yaml (or the user config) from the embedded template",
		Long: `init writes configs.ConfigTemplate, the config file Load() looks
for as the user/project override layer documented in
internal/config/config.go's Load():
  1. Hardcoded defaults (NewConfig)
  2. User config (~/.config/retrievalctl/config.yaml)
  3. Project config (.retrievalctl.yaml)
  4. Environment variables (RETRIEVALCTL_*)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			var path string
			if global {
				path = config.GetUserConfigPath()
			} else {
				root, err := config.FindProjectRoot(".")
				if err != nil {
					return fmt.Errorf("resolve project root: %w", err)
				}
				path = filepath.Join(root, ".retrievalctl.yaml")
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, remove it first", path)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			out.Successf("wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Write to the user config path instead of the project root")
	return cmd
}
