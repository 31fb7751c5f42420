package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

func TestExpandContentTypeFilter_IRMaterialsAdmitsLegacyAlias(t *testing.T) {
	expanded := ExpandContentTypeFilter([]types.ContentType{types.ContentTypeIRMaterials})
	assert.Contains(t, expanded, types.ContentTypeIRMaterials)
	assert.Contains(t, expanded, types.ContentTypeLegacyCorporateIR)
}

func TestExpandContentTypeFilter_LegacyRecruitmentAdmitsBothNewLabels(t *testing.T) {
	expanded := ExpandContentTypeFilter([]types.ContentType{types.ContentTypeLegacyRecruitment})
	assert.Contains(t, expanded, types.ContentTypeNewGradRecruitment)
	assert.Contains(t, expanded, types.ContentTypeMidcareerRecruit)
}

func TestExpandContentTypeFilter_Dedupes(t *testing.T) {
	expanded := ExpandContentTypeFilter([]types.ContentType{
		types.ContentTypeIRMaterials, types.ContentTypeLegacyCorporateIR,
	})
	seen := map[types.ContentType]int{}
	for _, ct := range expanded {
		seen[ct]++
	}
	for ct, n := range seen {
		assert.Equal(t, 1, n, "content type %s should appear once", ct)
	}
}

func TestNormalizeContentType_PassesThroughCurrentLabel(t *testing.T) {
	assert.Equal(t, types.ContentTypeCorporateSite, NormalizeContentType(types.ContentTypeCorporateSite))
}

func TestMatchesAllowedTypes_EmptyAllowSetAdmitsAll(t *testing.T) {
	assert.True(t, MatchesAllowedTypes(types.ContentTypeIRMaterials, nil))
}

func TestMatchesAllowedTypes_RejectsUnlisted(t *testing.T) {
	allowed := []types.ContentType{types.ContentTypeIRMaterials}
	assert.False(t, MatchesAllowedTypes(types.ContentTypeCEOMessage, allowed))
}
