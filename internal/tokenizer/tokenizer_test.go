package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_EmptyInputYieldsEmptySlice(t *testing.T) {
	tok := New()
	tokens := tok.Tokenize("")
	require.NotNil(t, tokens)
	assert.Empty(t, tokens)
}

func TestTokenize_FullwidthFoldedAndLowercased(t *testing.T) {
	tok := New()
	tokens := tok.Tokenize("ＡＢＣ１２３")
	require.Len(t, tokens, 1)
	assert.Equal(t, "abc123", tokens[0])
}

func TestTokenize_SplitsOnJapanesePunctuation(t *testing.T) {
	tok := New()
	tokens := tok.Tokenize("新卒採用。エントリー、募集要項")
	assert.Contains(t, tokens, "新卒採用")
	assert.Contains(t, tokens, "エントリー")
	assert.Contains(t, tokens, "募集要項")
}

func TestTokenize_DropsSingleCharNonAlnum(t *testing.T) {
	tok := New()
	tokens := tok.Tokenize("は a を")
	for _, tk := range tokens {
		assert.NotEqual(t, "は", tk)
		assert.NotEqual(t, "を", tk)
	}
}

func TestTokenize_FiltersStopwords(t *testing.T) {
	tok := New()
	tokens := tok.Tokenize("採用について詳しく説明します")
	for _, tk := range tokens {
		assert.NotEqual(t, "について", tk)
		assert.NotEqual(t, "します", tk)
	}
}

func TestTokenize_IdempotentOverWhitespace(t *testing.T) {
	tok := New()
	a := tok.Tokenize("採用 情報")
	b := tok.Tokenize("採用   情報")
	assert.Equal(t, a, b)
}

func TestTokenize_CustomStopwords(t *testing.T) {
	tok := New(WithStopwords([]string{"hello"}))
	tokens := tok.Tokenize("hello world")
	assert.NotContains(t, tokens, "hello")
	assert.Contains(t, tokens, "world")
}

type fakeBackend struct {
	tokens []string
	err    error
}

func (f *fakeBackend) Analyze(text string) ([]string, error) {
	return f.tokens, f.err
}

func TestTokenize_BackendOverridesFallback(t *testing.T) {
	backend := &fakeBackend{tokens: []string{"採用", "情報"}}
	tok := New(WithBackend(backend))
	tokens := tok.Tokenize("anything")
	assert.Equal(t, []string{"採用", "情報"}, tokens)
}

func TestTokenize_BackendErrorFallsBackToRegex(t *testing.T) {
	backend := &fakeBackend{err: assert.AnError}
	tok := New(WithBackend(backend))
	tokens := tok.Tokenize("hello world")
	assert.Equal(t, []string{"hello", "world"}, tokens)
}
