package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMappingFile(t *testing.T, dir string, doc map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, "company_mappings.json")
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// Scenario 1 (spec §8): segment matching, including the "mec"/"mecyes"
// false-positive that a substring match would wrongly admit.
func TestMatchesDomainPattern_SegmentMatching(t *testing.T) {
	assert.True(t, MatchesDomainPattern("career-mc.mitsubishicorp.com", "mitsubishicorp"))
	assert.True(t, MatchesDomainPattern("www.mec.co.jp", "mec"))
	assert.False(t, MatchesDomainPattern("mecyes.co.jp", "mec"))
}

// I3: the segment-boundary invariant restated for hyphen-prefixed and
// hyphen-suffixed segments.
func TestMatchesDomainPattern_HyphenBoundary(t *testing.T) {
	assert.True(t, MatchesDomainPattern("nttdata-recruit.example.com", "nttdata"))
	assert.True(t, MatchesDomainPattern("pre-nttdata.example.com", "nttdata"))
	assert.False(t, MatchesDomainPattern("nttdataxyz.example.com", "nttdata"))
}

func TestMatchesDomainPattern_MultiSegmentPattern(t *testing.T) {
	assert.True(t, MatchesDomainPattern("bk.mufg.jp", "bk.mufg"))
	assert.False(t, MatchesDomainPattern("sbk.mufg.jp", "bk.mufg"))
}

func newTestRegistry(t *testing.T, doc map[string]any) *Registry {
	t.Helper()
	path := writeMappingFile(t, t.TempDir(), doc)
	reg, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

// Scenario 2 (spec §8): subsidiary vs parent detection.
func TestIsSubsidiaryDomain_RegisteredAndWildcard(t *testing.T) {
	reg := newTestRegistry(t, map[string]any{
		"mappings": map[string]any{
			"NTTデータ": map[string]any{
				"domains": []string{"nttdata"},
			},
			"NTTデータMSE": map[string]any{
				"domains": []string{"nttdata-mse"},
				"parent":  "NTTデータ",
			},
		},
	})

	isSub, name := reg.IsSubsidiaryDomain("https://nttdmse-recruit.snar.jp/", "NTTデータ")
	assert.True(t, isSub)
	assert.NotEmpty(t, name)

	isSub, name = reg.IsSubsidiaryDomain("https://www.nttdata-sbc.co.jp/", "NTTデータ")
	assert.True(t, isSub)
	assert.Contains(t, name, "nttdata-sbc")

	isSub, _ = reg.IsSubsidiaryDomain("https://www.nttdata.com/", "NTTデータ")
	assert.False(t, isSub)
}

// A recruitment-suffixed wildcard segment is the parent's own official
// recruitment site, not an unregistered subsidiary.
func TestIsSubsidiaryDomain_RecruitmentSuffixIsNotASubsidiary(t *testing.T) {
	reg := newTestRegistry(t, map[string]any{
		"mappings": map[string]any{
			"NTTデータ": map[string]any{"domains": []string{"nttdata"}},
		},
	})
	isSub, _ := reg.IsSubsidiaryDomain("https://nttdata-recruit.example.com/", "NTTデータ")
	assert.False(t, isSub)
}

// Scenario 3 (spec §8): parent exclusion of its own child's domain.
func TestIsParentDomain_ExcludesChildsOwnDomain(t *testing.T) {
	reg := newTestRegistry(t, map[string]any{
		"mappings": map[string]any{
			"三井物産": map[string]any{"domains": []string{"mitsui"}},
			"三井物産スチール": map[string]any{
				"domains": []string{"mitsui-steel"},
				"parent":  "三井物産",
			},
		},
	})

	assert.False(t, reg.IsParentDomain("https://www.mitsui-steel.com/", "三井物産スチール"))
	assert.True(t, reg.IsParentDomain("https://career.mitsui.com/", "三井物産スチール"))
}

// I4: identity reflexivity — a company's own domain is never reported as
// its own parent or subsidiary.
func TestIdentityReflexivity(t *testing.T) {
	reg := newTestRegistry(t, map[string]any{
		"mappings": map[string]any{
			"三菱商事": map[string]any{"domains": []string{"mitsubishicorp"}},
		},
	})

	assert.False(t, reg.IsParentDomain("https://www.mitsubishicorp.com/", "三菱商事"))
	isSub, _ := reg.IsSubsidiaryDomain("https://www.mitsubishicorp.com/", "三菱商事")
	assert.False(t, isSub)
}

func TestResolve_OfficialDomain(t *testing.T) {
	reg := newTestRegistry(t, map[string]any{
		"mappings": map[string]any{
			"三菱商事": map[string]any{"domains": []string{"mitsubishicorp"}},
		},
	})
	v := reg.Resolve(context.Background(), "三菱商事", "https://career-mc.mitsubishicorp.com/")
	assert.True(t, v.IsOfficial)
	assert.False(t, v.IsParent)
	assert.False(t, v.IsSubsidiary)
}

func TestGetSiblingCompanies_ExcludesSelf(t *testing.T) {
	reg := newTestRegistry(t, map[string]any{
		"mappings": map[string]any{
			"みずほ": map[string]any{"domains": []string{"mizuho"}},
			"みずほ銀行": map[string]any{
				"domains": []string{"mizuho-bk"},
				"parent":  "みずほ",
			},
			"みずほ信託銀行": map[string]any{
				"domains": []string{"mizuho-tb"},
				"parent":  "みずほ",
			},
		},
	})
	siblings := reg.GetSiblingCompanies("みずほ銀行")
	_, hasSelf := siblings["みずほ銀行"]
	assert.False(t, hasSelf)
	_, hasSibling := siblings["みずほ信託銀行"]
	assert.True(t, hasSibling)
}

// A sibling's own domain must not be misreported as a subsidiary of the
// target when searching from the other sibling's perspective.
func TestIsSubsidiaryDomain_SiblingIsNotASubsidiary(t *testing.T) {
	reg := newTestRegistry(t, map[string]any{
		"mappings": map[string]any{
			"みずほ": map[string]any{"domains": []string{"mizuho"}},
			"みずほ銀行": map[string]any{
				"domains": []string{"mizuho-bk"},
				"parent":  "みずほ",
			},
			"みずほ信託銀行": map[string]any{
				"domains": []string{"mizuho-tb"},
				"parent":  "みずほ",
			},
		},
	})
	isSub, _ := reg.IsSubsidiaryDomain("https://www.mizuho-tb.co.jp/", "みずほ銀行")
	assert.False(t, isSub)
}

func TestNormalizeForLookup_StripsCorporateSuffixes(t *testing.T) {
	assert.Equal(t, "三菱商事", NormalizeForLookup("三菱商事株式会社"))
	assert.Equal(t, "ACME", NormalizeForLookup("ACME Inc."))
}

func TestGetCompanyCandidatesForDomain_MatchesHyphenSplitToken(t *testing.T) {
	reg := newTestRegistry(t, map[string]any{
		"mappings": map[string]any{
			"テスト企業": map[string]any{"domains": []string{"testco"}},
		},
	})
	candidates := reg.GetCompanyCandidatesForDomain("recruit.testco-career.com")
	_, ok := candidates["テスト企業"]
	assert.True(t, ok)
}

func TestReload_MissingFileYieldsEmptyMapping(t *testing.T) {
	reg, err := New(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	defer reg.Close()
	assert.Empty(t, reg.GetCompanyDomainPatterns("anything"))
}

func TestGetCompanyDomainPatterns_ExtractsAsciiHintsForUnmappedCompany(t *testing.T) {
	reg := newTestRegistry(t, map[string]any{"mappings": map[string]any{}})
	patterns := reg.GetCompanyDomainPatterns("サイボウズCybozu")
	assert.Contains(t, patterns, "cybozu")
}
