package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saoki0913/career-compass-retrieval/internal/config"
	"github.com/saoki0913/career-compass-retrieval/internal/output"
)

type queryOptions struct {
	limit  int
	format string // "text", "json"
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <company-id> <query text...>",
		Short: "Run a one-shot hybrid search against a company's indices",
		Long: `query runs DenseHybridSearch (C9) against a company's existing
BM25+vector indices: query expansion/HyDE, dense+keyword fan-out, RRF
fusion, MMR diversification, content-type boosting, and an optional
rerank pass, exactly as a caller of the retrieval core would.

Examples:
  retrievalctl query mitsui "新卒採用 選考フロー"
  retrievalctl query mitsui "福利厚生について" --format json --limit 5`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], strings.Join(args[1:], " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runQuery(cmd *cobra.Command, companyID, query string, opts queryOptions) error {
	ctx := cmd.Context()
	out := output.New(cmd.OutOrStdout())

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

	req := newRetrievalRequest(companyID, query, opts.limit)
	results, err := st.orch.DenseHybridSearch(ctx, req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		out.Warning("no results")
		return nil
	}
	for i, r := range results {
		out.Statusf("•", "[%d] %s  (score=%.3f via %s)", i+1, r.ChunkID, r.Scores.BoostedScore, r.Scores.UsedScore)
		text := r.Text
		if len(text) > 200 {
			text = text[:200] + "…"
		}
		out.Status("", text)
		out.Newline()
	}
	return nil
}
