package keywordindex

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

func newTestManager(t *testing.T) *CompanyIndexManager {
	t.Helper()
	dir := t.TempDir()
	return NewCompanyIndexManager(dir, BM25BackendSQLite, DefaultBM25Config(), slog.Default())
}

func TestCompanyIndex_AddAndSearch(t *testing.T) {
	mgr := newTestManager(t)
	ci, err := mgr.Get("toyota")
	require.NoError(t, err)

	err = ci.AddDocuments(context.Background(), []*IndexedDocument{
		{ID: "toyota_0", Text: "新卒採用 エントリー 募集要項", ContentType: types.ContentTypeNewGradRecruitment},
		{ID: "toyota_1", Text: "IR資料 決算説明会 有価証券報告書", ContentType: types.ContentTypeIRMaterials},
	})
	require.NoError(t, err)

	results, err := ci.Search(context.Background(), "採用", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "toyota_0", results[0].DocID)
}

func TestCompanyIndex_Search_EmptyCorpusReturnsEmpty(t *testing.T) {
	mgr := newTestManager(t)
	ci, err := mgr.Get("empty-co")
	require.NoError(t, err)

	results, err := ci.Search(context.Background(), "anything", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCompanyIndex_Search_ContentTypeFilter(t *testing.T) {
	mgr := newTestManager(t)
	ci, err := mgr.Get("toyota")
	require.NoError(t, err)

	err = ci.AddDocuments(context.Background(), []*IndexedDocument{
		{ID: "toyota_0", Text: "採用情報 募集要項", ContentType: types.ContentTypeNewGradRecruitment},
		{ID: "toyota_1", Text: "採用実績 中途採用情報", ContentType: types.ContentTypeMidcareerRecruit},
	})
	require.NoError(t, err)

	results, err := ci.Search(context.Background(), "採用", 10, []types.ContentType{types.ContentTypeMidcareerRecruit})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "toyota_1", results[0].DocID)
}

func TestCompanyIndex_GetDocument(t *testing.T) {
	mgr := newTestManager(t)
	ci, err := mgr.Get("toyota")
	require.NoError(t, err)

	require.NoError(t, ci.AddDocument(context.Background(), "toyota_0", "本文テキスト", map[string]string{"content_type": "corporate_site"}))

	doc := ci.GetDocument("toyota_0")
	require.NotNil(t, doc)
	assert.Equal(t, types.ContentTypeCorporateSite, doc.ContentType)

	assert.Nil(t, ci.GetDocument("missing"))
}

func TestCompanyIndex_Clear(t *testing.T) {
	mgr := newTestManager(t)
	ci, err := mgr.Get("toyota")
	require.NoError(t, err)

	require.NoError(t, ci.AddDocument(context.Background(), "toyota_0", "テキスト", nil))
	require.NoError(t, ci.Clear(context.Background()))

	results, err := ci.Search(context.Background(), "テキスト", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Nil(t, ci.GetDocument("toyota_0"))
}

func TestCompanyIndexManager_SaveLoadDeleteExists(t *testing.T) {
	dir := t.TempDir()
	mgr := NewCompanyIndexManager(dir, BM25BackendSQLite, DefaultBM25Config(), slog.Default())

	assert.False(t, mgr.Exists("toyota"))

	ci, err := mgr.Get("toyota")
	require.NoError(t, err)
	require.NoError(t, ci.AddDocument(context.Background(), "toyota_0", "採用情報", map[string]string{"content_type": "new_grad_recruitment"}))
	require.NoError(t, ci.Save())

	_, err = os.Stat(filepath.Join(dir, "toyota.db"))
	require.NoError(t, err)
	assert.True(t, mgr.Exists("toyota"))

	mgr.ClearIndexCache("")
	reloaded, err := mgr.Get("toyota")
	require.NoError(t, err)
	results, err := reloaded.Search(context.Background(), "採用", 10, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	deleted, err := mgr.Delete("toyota")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mgr.Exists("toyota"))

	deletedAgain, err := mgr.Delete("toyota")
	require.NoError(t, err)
	assert.False(t, deletedAgain)
}
