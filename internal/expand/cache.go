package expand

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// newExpansionCache builds a size- and age-bounded cache of query ->
// expansion variants. hashicorp's expirable LRU gives us both the 500-entry
// cap and the 7-day TTL natively, evicting least-recently-used entries one
// at a time rather than the original's "clear oldest half when full"; that
// batch-eviction was a CPython dict-sorting optimization with no Go analog
// worth reintroducing, so a plain bounded LRU is the idiomatic substitute.
func newExpansionCache(size int, ttl time.Duration) *lru.LRU[string, []string] {
	return lru.NewLRU[string, []string](size, nil, ttl)
}

// expansionCacheKey mirrors _expansion_cache_key: sha256 of the
// trimmed/lowercased query, truncated to 16 hex characters.
func expansionCacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:])[:16]
}
