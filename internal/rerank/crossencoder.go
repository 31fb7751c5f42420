package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// Cross-encoder server defaults, grounded on the teacher's MLX reranker
// client and original_source's DEFAULT_CROSS_ENCODER_MODEL.
const (
	DefaultCrossEncoderEndpoint = "http://localhost:9659"
	DefaultCrossEncoderModel    = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	DefaultCrossEncoderTimeout  = 30 * time.Second
)

// CrossEncoderConfig configures a CrossEncoderReranker.
type CrossEncoderConfig struct {
	Endpoint        string
	Model           string
	Timeout         time.Duration
	MinScore        *float64
	SkipHealthCheck bool
}

// DefaultCrossEncoderConfig returns the cross-encoder reranker's defaults.
func DefaultCrossEncoderConfig() CrossEncoderConfig {
	return CrossEncoderConfig{
		Endpoint: DefaultCrossEncoderEndpoint,
		Model:    DefaultCrossEncoderModel,
		Timeout:  DefaultCrossEncoderTimeout,
	}
}

// CrossEncoderReranker scores (query, text) pairs via a locally hosted
// cross-encoder model server, grounded on reranker.py's CrossEncoderReranker
// (single cached model instance, 512-char text truncation, -inf score for
// missing text, min_score floor) and the teacher's MLXReranker (the HTTP
// client/request shape, since this repo has no in-process ML runtime).
type CrossEncoderReranker struct {
	client *http.Client
	cfg    CrossEncoderConfig
	mu     sync.RWMutex
	closed bool
}

var _ Reranker = (*CrossEncoderReranker)(nil)

// NewCrossEncoderReranker builds a reranker client and, unless
// cfg.SkipHealthCheck, verifies the cross-encoder server is reachable.
func NewCrossEncoderReranker(ctx context.Context, cfg CrossEncoderConfig) (*CrossEncoderReranker, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultCrossEncoderEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultCrossEncoderModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultCrossEncoderTimeout
	}

	r := &CrossEncoderReranker{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		cfg: cfg,
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := r.healthCheck(checkCtx); err != nil {
			return nil, fmt.Errorf("cross-encoder health check failed: %w", err)
		}
	}

	return r, nil
}

func (r *CrossEncoderReranker) healthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.Endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("building health check request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to cross-encoder server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cross-encoder server unhealthy (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

type crossEncoderRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
}

type crossEncoderResponse struct {
	Scores []float64 `json:"scores"`
}

// Rerank scores (query, text[:512]) pairs and reorders results by score
// descending. A candidate with empty text scores -inf (sorts last). On any
// transport/server failure it returns the original order truncated to
// topK, never an error - reranking is a quality improvement, not a
// correctness requirement.
func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, results []types.Result, topK int) ([]types.Result, error) {
	if len(results) == 0 {
		return results, nil
	}

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return truncate(results, topK), nil
	}

	pairs := make([]string, 0, len(results))
	pairIdx := make([]int, 0, len(results))
	for i, res := range results {
		text := res.Text
		if text == "" {
			continue
		}
		if runes := []rune(text); len(runes) > maxCandidateTextChars {
			text = string(runes[:maxCandidateTextChars])
		}
		pairs = append(pairs, text)
		pairIdx = append(pairIdx, i)
	}
	if len(pairs) == 0 {
		return truncate(results, topK), nil
	}

	scores, err := r.scorePairs(ctx, query, pairs)
	if err != nil {
		slog.Warn("cross-encoder rerank failed, returning original order", "error", err)
		return truncate(results, topK), nil
	}

	rerankScore := make([]float64, len(results))
	for i := range rerankScore {
		rerankScore[i] = math.Inf(-1)
	}
	for j, idx := range pairIdx {
		if j < len(scores) {
			rerankScore[idx] = scores[j]
		}
	}

	out := make([]types.Result, len(results))
	copy(out, results)
	for i := range out {
		out[i].Scores.RerankScore = rerankScore[i]
		out[i].Scores.UsedScore = "rerank_score"
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Scores.RerankScore > out[j].Scores.RerankScore })

	if r.cfg.MinScore != nil {
		filtered := out[:0]
		for _, res := range out {
			if res.Scores.RerankScore >= *r.cfg.MinScore {
				filtered = append(filtered, res)
			}
		}
		out = filtered
	}

	return truncate(out, topK), nil
}

func (r *CrossEncoderReranker) scorePairs(ctx context.Context, query string, documents []string) ([]float64, error) {
	reqBody := crossEncoderRequest{Query: query, Documents: documents, Model: r.cfg.Model}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling cross-encoder request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, r.cfg.Endpoint+"/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building cross-encoder request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cross-encoder server returned %d: %s", resp.StatusCode, string(body))
	}

	var out crossEncoderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding cross-encoder response: %w", err)
	}
	return out.Scores, nil
}

// Available reports whether the cross-encoder server currently responds.
func (r *CrossEncoderReranker) Available(ctx context.Context) bool {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return false
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.healthCheck(checkCtx) == nil
}

// Close releases idle connections.
func (r *CrossEncoderReranker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if transport, ok := r.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}

func truncate(results []types.Result, topK int) []types.Result {
	if topK > 0 && topK < len(results) {
		return results[:topK]
	}
	return results
}
