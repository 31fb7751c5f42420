package registry

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/saoki0913/career-compass-retrieval/internal/errors"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// rawEntry is a single mapping entry as it appears in the JSON file, which
// supports both the current object shape ({"domains": [...], "parent": ...})
// and the legacy bare-array shape ([...]) for backward compatibility.
type rawEntry struct {
	object  *rawEntryObject
	domains []string
}

type rawEntryObject struct {
	Domains               []string `json:"domains"`
	Parent                string   `json:"parent"`
	AllowParentDomainsFor []string `json:"allow_parent_domains_for"`
}

func (e *rawEntry) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var arr []string
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		e.domains = arr
		return nil
	}
	var obj rawEntryObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.object = &obj
	return nil
}

// domainList returns the entry's domain pattern list regardless of shape,
// grounded on _get_domains_from_mapping's dual-shape normalizer.
func (e *rawEntry) domainList() []string {
	if e.object != nil {
		return e.object.Domains
	}
	return e.domains
}

func (e *rawEntry) parent() string {
	if e.object != nil {
		return e.object.Parent
	}
	return ""
}

func (e *rawEntry) allowParentDomainsFor() []string {
	if e.object != nil {
		return e.object.AllowParentDomainsFor
	}
	return nil
}

// mappingFile is the top-level shape of the company mappings JSON document.
type mappingFile struct {
	Mappings            map[string]rawEntry    `json:"mappings"`
	ShortDomainAllowlist map[string][]string    `json:"short_domain_allowlist"`
}

// loadMappingFile reads and parses the mapping JSON file. A missing file is
// not an error (empty mapping, per spec §4.1 failure semantics); a corrupt
// file returns an error, which Reload logs while keeping the last-good
// mapping (an empty one if none was loaded yet).
func loadMappingFile(path string) (*mappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &mappingFile{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err)
	}
	var mf mappingFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, errors.New(errors.ErrCodeFileCorrupt, "company mapping file is not valid JSON", err)
	}
	return &mf, nil
}

// buildMapping converts the raw parsed file into the process-wide
// types.CompanyMapping, resolving AllowParentDomainsFor to ContentType.
func buildMapping(mf *mappingFile) types.CompanyMapping {
	out := types.CompanyMapping{
		Entries:              make(map[string]types.CompanyEntry, len(mf.Mappings)),
		ShortDomainAllowlist: make(map[string][]string, len(mf.ShortDomainAllowlist)),
	}
	for name, raw := range mf.Mappings {
		if strings.HasPrefix(name, "_") {
			continue // documentation/section-marker keys, not company entries
		}
		allow := make([]types.ContentType, 0, len(raw.allowParentDomainsFor()))
		for _, ct := range raw.allowParentDomainsFor() {
			allow = append(allow, types.ContentType(ct))
		}
		out.Entries[name] = types.CompanyEntry{
			Name:                  name,
			Domains:               raw.domainList(),
			Parent:                raw.parent(),
			AllowParentDomainsFor: allow,
		}
	}
	for name, patterns := range mf.ShortDomainAllowlist {
		filtered := make([]string, 0, len(patterns))
		for _, p := range patterns {
			if strings.TrimSpace(p) != "" {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			out.ShortDomainAllowlist[name] = filtered
		}
	}
	return out
}
