// Package registry implements the Company Identity Registry (C1): it
// resolves a (company_name, url) pair to an official/parent/subsidiary/
// sibling verdict plus any conflicting companies, backed by a JSON mapping
// file of company name -> domain patterns that is hot-reloaded on edit.
package registry

import (
	"context"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fsnotify/fsnotify"

	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

const normalizedNameCacheSize = 2048

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithLogger overrides the registry's logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithWatch enables fsnotify-based hot reload of the mapping file. Off by
// default so tests and one-shot CLI invocations don't pay for a watcher.
func WithWatch(enabled bool) Option {
	return func(r *Registry) { r.watchEnabled = enabled }
}

// Registry holds the process-wide company mapping plus the derived reverse
// pattern index, and serves lookups used by C1's operations and, through
// them, C5/C7/C9.
type Registry struct {
	mu      sync.RWMutex
	path    string
	logger  *slog.Logger
	mapping types.CompanyMapping

	// patternIndex maps a lowercased domain pattern to the set of company
	// names that claim it, excluding generic patterns and non-allowlisted
	// short patterns (spec §4.1 "Conflict detection").
	patternIndex map[string][]string

	// allowlistedShort is the union of every company's short-pattern
	// allowlist entries, lowercased.
	allowlistedShort map[string]struct{}

	// nameCache memoizes GetCompanyDomainPatterns by company name, since it
	// re-scans every mapping entry for fuzzy containment hits.
	nameCache *lru.Cache[string, []string]

	watchEnabled bool
	watcher      *fsnotify.Watcher
	stopWatch    chan struct{}
	closed       bool
}

// New loads the mapping file at path (a missing file yields an empty,
// usable registry per spec §4.1 failure semantics) and builds the reverse
// pattern index.
func New(path string, opts ...Option) (*Registry, error) {
	cache, err := lru.New[string, []string](normalizedNameCacheSize)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		path:      path,
		logger:    slog.Default(),
		nameCache: cache,
		stopWatch: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	if r.watchEnabled {
		r.startWatch()
	}
	return r, nil
}

// Reload re-reads the mapping file from disk, clears the normalized-name
// cache, and rebuilds the reverse pattern index. A corrupt file logs a
// warning and leaves the registry's last-good mapping in place so callers
// degrade to name-based heuristics rather than losing all mappings.
func (r *Registry) Reload() error {
	mf, err := loadMappingFile(r.path)
	if err != nil {
		r.logger.Warn("company mapping reload failed, keeping previous mapping", "path", r.path, "error", err)
		r.mu.Lock()
		if r.mapping.Entries == nil {
			r.mapping = types.CompanyMapping{Entries: map[string]types.CompanyEntry{}}
		}
		r.mu.Unlock()
		return nil
	}

	mapping := buildMapping(mf)

	r.mu.Lock()
	r.mapping = mapping
	r.patternIndex, r.allowlistedShort = buildPatternIndex(mapping)
	r.mu.Unlock()
	r.nameCache.Purge()
	return nil
}

// buildPatternIndex constructs the pattern -> company-name reverse index
// used by conflict detection and wildcard-subsidiary exclusion, grounded on
// _get_domain_pattern_index.
func buildPatternIndex(mapping types.CompanyMapping) (map[string][]string, map[string]struct{}) {
	allowlisted := make(map[string]struct{})
	for _, patterns := range mapping.ShortDomainAllowlist {
		for _, p := range patterns {
			allowlisted[lowerASCII(p)] = struct{}{}
		}
	}

	index := make(map[string][]string)
	addPattern := func(name, pattern string) {
		pl := lowerASCII(pattern)
		if _, generic := GenericDomainPatterns[pl]; generic {
			return
		}
		if isShortPattern(pl) {
			if _, ok := allowlisted[pl]; !ok {
				return
			}
		}
		index[pl] = appendUnique(index[pl], name)
	}

	for name, entry := range mapping.Entries {
		for _, p := range entry.Domains {
			addPattern(name, p)
		}
	}
	for name, patterns := range mapping.ShortDomainAllowlist {
		for _, p := range patterns {
			pl := lowerASCII(p)
			if _, generic := GenericDomainPatterns[pl]; generic {
				continue
			}
			index[pl] = appendUnique(index[pl], name)
		}
	}
	return index, allowlisted
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func lowerASCII(s string) string {
	return foldFullwidthLower(s)
}

// startWatch runs an fsnotify watch on the mapping file's directory in a
// background goroutine, calling Reload on any write/create/rename event
// naming the file. Modeled on the teacher's hybrid filesystem watcher.
func (r *Registry) startWatch() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		r.logger.Warn("company mapping watch disabled, fsnotify unavailable", "error", err)
		return
	}
	dir := dirOf(r.path)
	if err := w.Add(dir); err != nil {
		r.logger.Warn("company mapping watch disabled", "dir", dir, "error", err)
		_ = w.Close()
		return
	}
	r.watcher = w

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Name != r.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if err := r.Reload(); err != nil {
						r.logger.Warn("company mapping reload after fs event failed", "error", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.logger.Warn("company mapping watcher error", "error", err)
			case <-r.stopWatch:
				return
			}
		}
	}()
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// Close stops the filesystem watcher, if any. Safe to call more than once.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.watcher != nil {
		close(r.stopWatch)
		return r.watcher.Close()
	}
	return nil
}

// snapshot returns the current mapping, pattern index and short-pattern
// allowlist under the read lock. Callers must not retain them past the call.
func (r *Registry) snapshot() (types.CompanyMapping, map[string][]string, map[string]struct{}) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mapping, r.patternIndex, r.allowlistedShort
}

// Verdict is the resolved relationship between a URL and a target company,
// the return shape of Resolve (spec §4.1).
type Verdict struct {
	IsOfficial            bool
	IsParent              bool
	IsSubsidiary          bool
	SubsidiaryName        string
	IsSibling             bool
	ConflictingCompanies  []string
}

// Resolve answers spec §4.1's core question: how does url relate to
// companyName. It layers official-domain matching over the subsidiary,
// parent and conflict-detection primitives below.
func (r *Registry) Resolve(ctx context.Context, companyName, url string) Verdict {
	domain := extractDomain(url)
	var v Verdict
	if domain == "" {
		return v
	}

	ownPatterns := r.GetCompanyDomainPatterns(companyName)
	for _, p := range ownPatterns {
		if isShortPattern(p) && !r.isAllowlistedShort(p) {
			continue
		}
		if MatchesDomainPattern(domain, p) {
			v.IsOfficial = true
			break
		}
	}

	if !v.IsOfficial {
		if isSub, subName := r.IsSubsidiaryDomain(url, companyName); isSub {
			v.IsSubsidiary = true
			v.SubsidiaryName = subName
		} else if r.IsParentDomain(url, companyName) {
			v.IsParent = true
		}
	}

	v.ConflictingCompanies = r.conflictingCompanies(domain, companyName)
	return v
}

func (r *Registry) isAllowlistedShort(pattern string) bool {
	_, _, allow := r.snapshot()
	_, ok := allow[lowerASCII(pattern)]
	return ok
}
