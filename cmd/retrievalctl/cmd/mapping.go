package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/saoki0913/career-compass-retrieval/internal/config"
	"github.com/saoki0913/career-compass-retrieval/internal/output"
	"github.com/saoki0913/career-compass-retrieval/internal/registry"
)

func newMappingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect or reload the company identity mapping (C1)",
	}
	cmd.AddCommand(newMappingReloadCmd())
	return cmd
}

func newMappingReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload company_mapping.json and report the reloaded file path",
		Long: `reload re-reads the registry's mapping file from disk and rebuilds
the reverse domain-pattern index (Registry.Reload), the same path the
fsnotify watcher takes on an external edit. Useful after hand-editing
the mapping file while the config's registry watch setting is off.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			root, err := config.FindProjectRoot(".")
			if err != nil {
				return fmt.Errorf("resolve project root: %w", err)
			}
			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			mappingPath := filepath.Join(root, cfg.Registry.MappingPath)
			reg, err := registry.New(mappingPath)
			if err != nil {
				return fmt.Errorf("load mapping: %w", err)
			}
			defer func() { _ = reg.Close() }()

			if err := reg.Reload(); err != nil {
				return fmt.Errorf("reload mapping: %w", err)
			}
			out.Successf("reloaded %s", mappingPath)
			return nil
		},
	}
}
