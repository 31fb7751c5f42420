package llmgateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/saoki0913/career-compass-retrieval/internal/classify"
	"github.com/saoki0913/career-compass-retrieval/internal/expand"
	"github.com/saoki0913/career-compass-retrieval/internal/rerank"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// This file wires Gateway.Call to the narrow function types C8 (expand),
// C5 (classify) and C10 (rerank) each declare for their own LLM dependency,
// so none of those packages imports this one.

// QueryExpansion returns an expand.QueryExpansionFunc bound to this
// Gateway, grounded on hybrid_search.py's expand_queries_with_llm prompt
// shape (Japanese instruction, JSON "queries" list, keyword seeds).
func (g *Gateway) QueryExpansion() expand.QueryExpansionFunc {
	return func(ctx context.Context, query string, maxQueries int, keywords []string) ([]string, error) {
		var keywordLine string
		if len(keywords) > 0 {
			keywordLine = fmt.Sprintf("\n関連キーワード: %s", strings.Join(keywords, ", "))
		}
		system := "あなたは検索クエリ拡張アシスタントです。与えられたクエリの言い換えや関連する検索クエリを生成してください。JSONのみで返してください。"
		user := fmt.Sprintf(`クエリ:
%s%s

最大%d件の拡張クエリを生成してください。

出力形式:
{"queries": ["...", "..."]}`, query, keywordLine, maxQueries)

		res, err := g.Call(ctx, Request{
			SystemPrompt:   system,
			UserMessage:    user,
			Feature:        FeatureRAGQueryExpansion,
			MaxTokens:      500,
			Temperature:    0.3,
			ResponseFormat: ResponseFormatJSONObject,
			RetryOnParse:   true,
		})
		if err != nil {
			return nil, err
		}
		raw, _ := res.Data["queries"].([]any)
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		if len(out) > maxQueries {
			out = out[:maxQueries]
		}
		return out, nil
	}
}

// HyDE returns an expand.HyDEFunc bound to this Gateway, grounded on
// hybrid_search.py's generate_hyde_passage (a single hypothetical document
// passage, truncated to 1200 chars by the caller).
func (g *Gateway) HyDE() expand.HyDEFunc {
	return func(ctx context.Context, query string) (string, error) {
		system := "あなたは検索システム向けの仮想文書生成アシスタントです。クエリに対する理想的な回答を含む短い文章を生成してください。JSONのみで返してください。"
		user := fmt.Sprintf(`クエリ:
%s

出力形式:
{"passage": "..."}`, query)

		res, err := g.Call(ctx, Request{
			SystemPrompt:   system,
			UserMessage:    user,
			Feature:        FeatureRAGHyDE,
			MaxTokens:      500,
			Temperature:    0.2,
			ResponseFormat: ResponseFormatJSONObject,
		})
		if err != nil {
			return "", err
		}
		passage, _ := res.Data["passage"].(string)
		passage = strings.TrimSpace(passage)
		if runes := []rune(passage); len(runes) > 1200 {
			passage = string(runes[:1200])
		}
		return passage, nil
	}
}

// Classify returns a classify.LLMClassifyFunc bound to this Gateway, for
// chunks the keyword/URL rules leave ambiguous.
func (g *Gateway) Classify() classify.LLMClassifyFunc {
	labels := []string{
		string(types.ContentTypeNewGradRecruitment), string(types.ContentTypeMidcareerRecruit),
		string(types.ContentTypeCorporateSite), string(types.ContentTypeIRMaterials),
		string(types.ContentTypeCEOMessage), string(types.ContentTypeEmployeeInterviews),
		string(types.ContentTypePressRelease), string(types.ContentTypeCSRSustainability),
		string(types.ContentTypeMidtermPlan),
	}

	return func(ctx context.Context, input classify.ChunkInput) (types.ContentType, error) {
		system := fmt.Sprintf(
			"あなたは採用情報サイトのコンテンツ分類アシスタントです。次のラベルのいずれか一つだけを選んでください: %s\nJSONのみで返してください。",
			strings.Join(labels, ", "))
		user := fmt.Sprintf(`URL: %s
見出し: %s
本文:
%s

出力形式:
{"content_type": "..."}`, input.SourceURL, input.Heading, input.Text)

		res, err := g.Call(ctx, Request{
			SystemPrompt:   system,
			UserMessage:    user,
			Feature:        FeatureRAGClassify,
			MaxTokens:      100,
			Temperature:    0,
			ResponseFormat: ResponseFormatJSONObject,
			RetryOnParse:   true,
		})
		if err != nil {
			return "", err
		}
		ct, _ := res.Data["content_type"].(string)
		return types.ContentType(ct), nil
	}
}

// Rerank returns a rerank.ScoreFunc bound to this Gateway, grounded on
// hybrid_search.py's rerank_results_with_llm prompt (0-100 relevance score
// per candidate id).
func (g *Gateway) Rerank() rerank.ScoreFunc {
	return func(ctx context.Context, query string, candidates []rerank.LLMCandidate) (map[string]float64, error) {
		system := `あなたはRAG検索の再ランキング用スコアラーです。
与えられた候補に対して、クエリとの関連度を0〜100で採点してください。
JSONのみで返してください。`
		user := fmt.Sprintf(`クエリ:
%s

候補:
%s

出力形式:
{"ranked": [{"id":"...", "score": 0}, ...]}`, query, candidatesJSON(candidates))

		res, err := g.Call(ctx, Request{
			SystemPrompt:   system,
			UserMessage:    user,
			Feature:        FeatureRAGRerank,
			MaxTokens:      1500,
			Temperature:    0.2,
			ResponseFormat: ResponseFormatJSONObject,
		})
		if err != nil {
			return nil, err
		}

		ranked, _ := res.Data["ranked"].([]any)
		out := make(map[string]float64, len(ranked))
		for _, item := range ranked {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id, _ := m["id"].(string)
			if id == "" {
				continue
			}
			switch v := m["score"].(type) {
			case float64:
				out[id] = v
			case int:
				out[id] = float64(v)
			}
		}
		return out, nil
	}
}

func candidatesJSON(candidates []rerank.LLMCandidate) string {
	var b strings.Builder
	b.WriteString("[")
	for i, c := range candidates {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id":%q,"text":%q,"content_type":%q,"chunk_type":%q,"source_url":%q}`,
			c.ID, c.Text, c.ContentType, c.ChunkType, c.SourceURL)
	}
	b.WriteString("]")
	return b.String()
}
