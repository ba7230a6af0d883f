package subword_bpe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/subword_bpe/types"
)

var lowMerges = types.MergeList{{Left: "l", Right: "o"}, {Left: "lo", Right: "w"}}

func TestApplyMerges_Low(t *testing.T) {
	assert.Equal(t, []string{"low"}, ApplyMerges([]string{"low"}, lowMerges))
	assert.Equal(t, []string{"low", "e", "r"},
		ApplyMerges([]string{"lower"}, lowMerges))
}

func TestApplyMerges_EmptyMergeList(t *testing.T) {
	tokens := []string{StartToken, "hello", "hi"}
	assert.Equal(t,
		[]string{StartToken, "h", "e", "l", "l", "o", "h", "i"},
		ApplyMerges(tokens, nil))
}

func TestApplyMerges_PreservesOrder(t *testing.T) {
	tokens := []string{StartToken, "low", "new", StartToken, "low"}
	assert.Equal(t,
		[]string{StartToken, "low", "n", "e", "w", StartToken, "low"},
		ApplyMerges(tokens, lowMerges))
}

func TestApplyMerges_NoOpRules(t *testing.T) {
	merges := types.MergeList{{Left: "x", Right: "y"}, {Left: "q", Right: "z"}, {Left: "l", Right: "o"}}
	assert.Equal(t, []string{"lo", "w"},
		ApplyMerges([]string{"low"}, merges))
}

func TestApplyMerges_OrderMatters(t *testing.T) {
	forward := types.MergeList{{Left: "a", Right: "b"}, {Left: "b", Right: "c"}}
	backward := types.MergeList{{Left: "b", Right: "c"}, {Left: "a", Right: "b"}}
	assert.Equal(t, []string{"ab", "c"},
		ApplyMerges([]string{"abc"}, forward))
	assert.Equal(t, []string{"a", "bc"},
		ApplyMerges([]string{"abc"}, backward))
}

func TestApplyMerges_StartTokenUntouched(t *testing.T) {
	merges := types.MergeList{{Left: "<", Right: "s"}, {Left: "s", Right: "t"}, {Left: "<s", Right: "t"}}
	assert.Equal(t, []string{StartToken},
		ApplyMerges([]string{StartToken}, merges))
}

func TestApplyMerges_NovelText(t *testing.T) {
	merges, err := Train(lowTokens, 16)
	require.NoError(t, err)
	output := ApplyMerges([]string{"slowest", "lowly"}, merges)
	assert.Equal(t, "slowestlowly", strings.Join(output, ""))
	assert.Contains(t, output, "low")
}

func TestMerger_Cache(t *testing.T) {
	merger, err := NewMerger(lowMerges, 16)
	require.NoError(t, err)
	tokens := []string{"low", "low", "lower"}
	first := merger.Apply(tokens)
	assert.Equal(t, 0, merger.CacheHits)
	assert.Equal(t, 2, merger.CacheMisses)

	second := merger.Apply(tokens)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, merger.CacheHits)
	assert.Equal(t, 2, merger.CacheMisses)
}

func TestMerger_NoCache(t *testing.T) {
	merger, err := NewMerger(lowMerges, 0)
	require.NoError(t, err)
	assert.Nil(t, merger.Cache)
	assert.Equal(t, []string{"low"}, merger.Symbols("low"))
	assert.Equal(t, 0, merger.CacheMisses)
}

func TestMerger_ApplyTable(t *testing.T) {
	merger, err := NewMerger(lowMerges, 0)
	require.NoError(t, err)
	applied := merger.ApplyTable(EncodeWords(lowTokens))
	low, ok := applied.Lookup("low")
	require.True(t, ok)
	assert.Equal(t, []string{"low"}, low.Symbols)
	assert.Equal(t, 2, low.Count)
	assert.Equal(t, len(lowTokens), applied.Total())
}

func TestMerger_CharacterConservation(t *testing.T) {
	merges, err := Train(sampleTokens, 150)
	require.NoError(t, err)
	for k := 0; k <= len(merges); k += 10 {
		merger, err := NewMerger(merges[:k], 0)
		require.NoError(t, err)
		for _, token := range sampleTokens {
			assert.Equal(t, token,
				strings.Join(merger.Symbols(token), ""))
		}
	}
}
