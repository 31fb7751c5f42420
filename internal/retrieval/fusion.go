package retrieval

import (
	"log/slog"
	"math"
	"sort"

	"github.com/saoki0913/career-compass-retrieval/internal/intent"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// adaptiveRRFK grows the RRF constant with the number of lists being
// merged, so a query that expanded into many variants doesn't let any
// single list's top ranks dominate (adaptive_rrf_k).
func adaptiveRRFK(numQueries int) int {
	return 30 + numQueries*10
}

// rrfMerge fuses per-query dense result lists by Reciprocal Rank Fusion
// (spec §4.9 step 5). The first list a doc appears in supplies its text and
// metadata; rank within each list is 0-based.
func rrfMerge(k int, lists [][]*candidate) []*candidate {
	scores := make(map[string]float64)
	best := make(map[string]*candidate)
	firstRank := make(map[string]int)

	for _, list := range lists {
		for rank, c := range list {
			scores[c.id] += 1.0 / float64(k+rank+1)
			if _, ok := best[c.id]; !ok {
				best[c.id] = c
				firstRank[c.id] = rank
			}
		}
	}

	merged := make([]*candidate, 0, len(best))
	for id, c := range best {
		out := *c
		out.scores.RRFScore = scores[id]
		out.denseRank = firstRank[id]
		merged = append(merged, &out)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].scores.RRFScore > merged[j].scores.RRFScore
	})
	return merged
}

// embeddingsCompatible reports whether query and every candidate carry a
// non-empty embedding of the same dimension (required for MMR).
func embeddingsCompatible(query []float32, candidates []*candidate) bool {
	if len(query) == 0 {
		return false
	}
	dim := len(query)
	for _, c := range candidates {
		if len(c.embedding) != dim {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// applyMMR greedily selects k candidates maximizing relevance to the query
// while penalizing similarity to already-selected candidates (spec §4.9
// step 6). Falls back to a plain RRF-order slice when embeddings aren't
// usable for every candidate.
func applyMMR(candidates []*candidate, queryEmbedding []float32, k int, lambda float64) []*candidate {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}
	if !embeddingsCompatible(queryEmbedding, candidates) {
		slog.Debug("mmr skipped: candidate embeddings missing or not matching the query dimension", "candidates", len(candidates))
		if len(candidates) > k {
			return candidates[:k]
		}
		return candidates
	}

	remaining := append([]*candidate(nil), candidates...)
	selected := make([]*candidate, 0, k)

	for len(remaining) > 0 && len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i, c := range remaining {
			simToQuery := cosineSimilarity(queryEmbedding, c.embedding)
			simToSelected := 0.0
			for _, s := range selected {
				if sim := cosineSimilarity(c.embedding, s.embedding); sim > simToSelected {
					simToSelected = sim
				}
			}
			score := lambda*simToQuery - (1-lambda)*simToSelected
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

// normalizeScores scales a score map into [0,1] by dividing by
// the maximum (matching _normalize_scores: no subtraction of the minimum).
func normalizeScores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	max := 0.0
	for _, v := range scores {
		if v > max {
			max = v
		}
	}
	for k, v := range scores {
		if max <= 0 {
			out[k] = 0
			continue
		}
		out[k] = v / max
	}
	return out
}

// keywordHit is one BM25 search result carried into the hybrid merge.
type keywordHit struct {
	id    string
	score float64
}

// mergeWithKeyword combines the dense (post-MMR) candidate list with BM25
// hits by normalizing both score spaces and weighting them (spec §4.9 step
// 7). Candidates absent from one side score 0 on that side, matching
// _merge_semantic_and_keyword's union-with-default-zero behavior.
func mergeWithKeyword(dense []*candidate, keyword []keywordHit, semanticWeight, keywordWeight float64) []*candidate {
	if len(keyword) == 0 {
		return dense
	}

	semanticRaw := make(map[string]float64, len(dense))
	for _, c := range dense {
		s := c.scores.RRFScore
		semanticRaw[c.id] = s
	}
	keywordRaw := make(map[string]float64, len(keyword))
	for _, h := range keyword {
		keywordRaw[h.id] = h.score
	}

	semanticNorm := normalizeScores(semanticRaw)
	keywordNorm := normalizeScores(keywordRaw)

	byID := make(map[string]*candidate, len(dense))
	for _, c := range dense {
		byID[c.id] = c
	}

	merged := make([]*candidate, 0, len(dense)+len(keyword))
	seen := make(map[string]struct{}, len(dense))
	order := append([]*candidate(nil), dense...)
	for _, h := range keyword {
		if _, ok := byID[h.id]; !ok {
			order = append(order, &candidate{id: h.id})
		}
	}

	for _, c := range order {
		if _, ok := seen[c.id]; ok {
			continue
		}
		seen[c.id] = struct{}{}
		out := *c
		out.scores.SemanticScore = semanticNorm[c.id]
		out.scores.KeywordScore = keywordNorm[c.id]
		out.scores.HybridScore = semanticWeight*out.scores.SemanticScore + keywordWeight*out.scores.KeywordScore
		merged = append(merged, &out)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].scores.HybridScore > merged[j].scores.HybridScore
	})
	return merged
}

// applyContentTypeBoost multiplies each candidate's current primary score
// (hybrid, falling back to RRF) by the boost profile's best multiplier for
// the chunk's primary/secondary content types (spec §4.9 step 8).
func applyContentTypeBoost(candidates []*candidate, profile intent.BoostProfile, secondaryOf func(c *candidate) []types.ContentType) []*candidate {
	if len(candidates) == 0 || profile == nil {
		return candidates
	}

	out := make([]*candidate, len(candidates))
	for i, c := range candidates {
		primary := types.ContentType(c.metadata["content_type"])
		boost := profile.BestBoost(primary, secondaryOf(c))

		base := c.scores.HybridScore
		if base == 0 {
			base = c.scores.RRFScore
		}

		o := *c
		o.scores.ContentTypeBoost = boost
		o.scores.BoostedScore = base * boost
		out[i] = &o
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].scores.BoostedScore > out[j].scores.BoostedScore
	})
	return out
}

// shouldRerank decides whether the uncertain-confidence band warrants a
// rerank pass (spec §4.9 step 9, _should_rerank).
func shouldRerank(candidates []*candidate, threshold float64) bool {
	if len(candidates) == 0 {
		return false
	}

	n := len(candidates)
	if n > 5 {
		n = 5
	}
	scores := make([]float64, n)
	maxScore := 0.0
	for i := 0; i < n; i++ {
		s := candidates[i].scores.BoostedScore
		if s == 0 {
			s = candidates[i].scores.HybridScore
		}
		if s == 0 {
			s = candidates[i].scores.RRFScore
		}
		scores[i] = s
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore <= 0 {
		return false
	}

	normalized := make([]float64, n)
	for i, s := range scores {
		normalized[i] = s / maxScore
	}

	topN := normalized
	if len(topN) > 3 {
		topN = topN[:3]
	}
	avgTop := 0.0
	for _, s := range topN {
		avgTop += s
	}
	avgTop /= float64(len(topN))

	if avgTop >= threshold {
		return false
	}
	if avgTop < 0.3 {
		return false
	}

	if len(normalized) >= 2 {
		mean := 0.0
		for _, s := range normalized {
			mean += s
		}
		mean /= float64(len(normalized))
		variance := 0.0
		for _, s := range normalized {
			variance += (s - mean) * (s - mean)
		}
		variance /= float64(len(normalized))
		return variance >= 0.02
	}
	return true
}

// terminalScore returns the score a candidate is finally ordered by and the
// name of that field, for Scores.UsedScore. finalSort orders candidates by
// it, then dense rank, then chunk id (spec §4.9's tie-break rule).
func terminalScore(c *candidate) (float64, string) {
	switch {
	case c.scores.RerankScore != 0:
		return c.scores.RerankScore, "rerank_score"
	case c.scores.BoostedScore != 0:
		return c.scores.BoostedScore, "boosted_score"
	case c.scores.HybridScore != 0:
		return c.scores.HybridScore, "hybrid_score"
	default:
		return c.scores.RRFScore, "rrf_score"
	}
}

func finalSort(candidates []*candidate) {
	for _, c := range candidates {
		_, used := terminalScore(c)
		c.scores.UsedScore = used
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, _ := terminalScore(candidates[i])
		sj, _ := terminalScore(candidates[j])
		if si != sj {
			return si > sj
		}
		if candidates[i].denseRank != candidates[j].denseRank {
			return candidates[i].denseRank < candidates[j].denseRank
		}
		return candidates[i].id < candidates[j].id
	})
}
