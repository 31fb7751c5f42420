package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/saoki0913/career-compass-retrieval/internal/config"
	"github.com/saoki0913/career-compass-retrieval/internal/output"
)

type reindexOptions struct {
	plain bool
}

func newReindexCmd() *cobra.Command {
	var opts reindexOptions

	cmd := &cobra.Command{
		Use:   "reindex <company-id>:<pages.json> [<company-id>:<pages.json>...]",
		Short: "Rebuild a company's BM25+vector indices from ingested pages",
		Long: `reindex chunks (internal/chunk), classifies (C5), embeds, and indexes the pages
in each pages.json file, replacing that company's existing BM25+vector
content entirely (StoreCompanyInfo's replace semantics).

Each argument is company-id:path-to-pages.json, a JSON array of pages:

  [{"source_url": "...", "content_type": "new_grad_recruitment",
    "company_name": "Example Corp",
    "sections": [{"heading": "...", "heading_path": "...", "content": "..."}]}]

With multiple companies and a TTY stdout, progress renders as a
bubbletea TUI; otherwise (piped output, or --plain) it falls back to
internal/output's plain progress bar.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindex(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Force plain log output even on a TTY")
	return cmd
}

type reindexTarget struct {
	companyID string
	pagesPath string
}

func parseReindexTargets(args []string) ([]reindexTarget, error) {
	targets := make([]reindexTarget, 0, len(args))
	for _, arg := range args {
		companyID, path, ok := splitTarget(arg)
		if !ok {
			return nil, fmt.Errorf("invalid target %q, expected company-id:pages.json", arg)
		}
		targets = append(targets, reindexTarget{companyID: companyID, pagesPath: path})
	}
	return targets, nil
}

func splitTarget(arg string) (companyID, path string, ok bool) {
	for i := 0; i < len(arg); i++ {
		if arg[i] == ':' {
			return arg[:i], arg[i+1:], arg[:i] != "" && arg[i+1:] != ""
		}
	}
	return "", "", false
}

func runReindex(cmd *cobra.Command, args []string, opts reindexOptions) error {
	ctx := cmd.Context()

	targets, err := parseReindexTargets(args)
	if err != nil {
		return err
	}

	root, err := config.FindProjectRoot(".")
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, closeFn, err := buildStack(ctx, root, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	useTUI := !opts.plain && isatty.IsTerminal(os.Stdout.Fd())
	if useTUI {
		return runReindexTUI(ctx, st, targets)
	}
	return runReindexPlain(ctx, cmd, st, targets)
}

func runReindexPlain(ctx context.Context, cmd *cobra.Command, st *stack, targets []reindexTarget) error {
	out := output.New(cmd.OutOrStdout())

	var firstErr error
	for _, t := range targets {
		pages, err := loadPages(t.pagesPath)
		if err != nil {
			out.Errorf("%s: %v", t.companyID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		n, err := ingestCompany(ctx, st, t.companyID, pages, func(stage string, current, total int) {
			out.Progress(current, total, fmt.Sprintf("%s: %s", t.companyID, stage))
		})
		if err != nil {
			out.Errorf("%s: %v", t.companyID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out.Successf("%s: indexed %d chunks", t.companyID, n)
	}
	return firstErr
}

func runReindexTUI(ctx context.Context, st *stack, targets []reindexTarget) error {
	companies := make([]string, len(targets))
	for i, t := range targets {
		companies[i] = t.companyID
	}

	model := newReindexModel(companies)
	program := tea.NewProgram(model)

	done := make(chan error, 1)
	go func() {
		var firstErr error
		for _, t := range targets {
			pages, err := loadPages(t.pagesPath)
			if err != nil {
				program.Send(reindexDoneMsg{company: t.companyID, err: err})
				if firstErr == nil {
					firstErr = err
				}
				continue
			}

			n, err := ingestCompany(ctx, st, t.companyID, pages, func(stage string, current, total int) {
				program.Send(reindexProgressMsg{company: t.companyID, stage: stage, current: current, total: total})
			})
			program.Send(reindexDoneMsg{company: t.companyID, chunks: n, err: err})
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		program.Send(reindexCompleteMsg{})
		done <- firstErr
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run reindex TUI: %w", err)
	}
	return <-done
}
