// Command retrievalctl operates the career-compass retrieval stack:
// building per-company BM25+vector indices and running one-shot hybrid
// searches against them.
package main

import (
	"fmt"
	"os"

	"github.com/saoki0913/career-compass-retrieval/cmd/retrievalctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
