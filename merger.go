package subword_bpe

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/wbrown/subword_bpe/types"
)

const MERGE_LRU_SZ = 65536

// Merger replays a MergeList over arbitrary tokens. Results are cached per
// distinct token. A Merger is not safe for concurrent use.
type Merger struct {
	Merges      types.MergeList
	Cache       *lru.ARCCache
	CacheHits   int
	CacheMisses int
}

// NewMerger builds a Merger with an ARC cache of cacheSize entries. A
// cacheSize of zero or less disables caching.
func NewMerger(merges types.MergeList, cacheSize int) (*Merger, error) {
	merger := &Merger{Merges: merges}
	if cacheSize > 0 {
		cache, err := lru.NewARC(cacheSize)
		if err != nil {
			return nil, err
		}
		merger.Cache = cache
	}
	return merger, nil
}

// ApplyMerges replays merges over tokens without caching.
func ApplyMerges(tokens []string, merges types.MergeList) []string {
	merger := &Merger{Merges: merges}
	return merger.Apply(tokens)
}

// Symbols returns the final decomposition of a single token. The returned
// slice may be shared with the cache and must not be modified.
func (merger *Merger) Symbols(token string) []string {
	if merger.Cache != nil {
		if lookup, ok := merger.Cache.Get(token); ok {
			merger.CacheHits++
			return lookup.([]string)
		}
		merger.CacheMisses++
	}
	word := splitSymbols(token)
	if token != StartToken {
		for _, pair := range merger.Merges {
			if len(word) < 2 {
				break
			}
			word, _ = mergeSymbols(word, pair)
		}
	}
	if merger.Cache != nil {
		merger.Cache.Add(token, word)
	}
	return word
}

// ApplyTable returns a new table whose entries carry the final
// decomposition of each distinct token, with counts preserved.
func (merger *Merger) ApplyTable(table *WordTable) *WordTable {
	applied := NewWordTable()
	for _, word := range table.Words {
		applied.index[word.Token] = len(applied.Words)
		applied.Words = append(applied.Words, Word{
			Token:   word.Token,
			Symbols: merger.Symbols(word.Token),
			Count:   word.Count,
		})
	}
	return applied
}

// Apply replays the merges over a token stream and returns the flat stream
// of subword tokens, in the order the input tokens appeared.
func (merger *Merger) Apply(tokens []string) []string {
	table := merger.ApplyTable(EncodeWords(tokens))
	output := make([]string, 0, len(tokens))
	for _, token := range tokens {
		word, _ := table.Lookup(token)
		output = append(output, word.Symbols...)
	}
	return output
}
