package subword_bpe

import (
	"strings"
	"unicode/utf8"

	"github.com/wbrown/subword_bpe/types"
)

const StartToken = types.StartToken

// Word is the current decomposition of one distinct token together with the
// number of times the token occurs.
type Word struct {
	Token   string
	Symbols []string
	Count   int
}

func (word Word) IsStart() bool {
	return word.Token == StartToken
}

// String joins the symbols with spaces, e.g. "lo w e r".
func (word Word) String() string {
	return strings.Join(word.Symbols, " ")
}

// WordTable holds distinct tokens in order of first appearance.
type WordTable struct {
	Words []Word
	index map[string]int
}

func NewWordTable() *WordTable {
	return &WordTable{
		Words: make([]Word, 0),
		index: make(map[string]int),
	}
}

// EncodeWords turns a token stream into its table of distinct tokens, each
// split into one symbol per character. The start token is kept whole.
func EncodeWords(tokens []string) *WordTable {
	table := NewWordTable()
	for _, token := range tokens {
		table.Add(token)
	}
	return table
}

// Add counts one more occurrence of token.
func (table *WordTable) Add(token string) {
	table.AddCount(token, 1)
}

func (table *WordTable) AddCount(token string, count int) {
	if idx, ok := table.index[token]; ok {
		table.Words[idx].Count += count
		return
	}
	table.index[token] = len(table.Words)
	table.Words = append(table.Words, Word{
		Token:   token,
		Symbols: splitSymbols(token),
		Count:   count,
	})
}

// Lookup returns the entry for token.
func (table *WordTable) Lookup(token string) (Word, bool) {
	idx, ok := table.index[token]
	if !ok {
		return Word{}, false
	}
	return table.Words[idx], true
}

func (table *WordTable) Len() int {
	return len(table.Words)
}

// Total is the number of token occurrences the table was built from.
func (table *WordTable) Total() int {
	total := 0
	for _, word := range table.Words {
		total += word.Count
	}
	return total
}

// Alphabet returns every character of every non-start token, in order of
// first appearance.
func (table *WordTable) Alphabet() []string {
	seen := make(map[string]struct{})
	alphabet := make([]string, 0)
	for _, word := range table.Words {
		if word.IsStart() {
			continue
		}
		for _, symbol := range characters(word.Token) {
			if _, ok := seen[symbol]; !ok {
				seen[symbol] = struct{}{}
				alphabet = append(alphabet, symbol)
			}
		}
	}
	return alphabet
}

// clone copies the entries so a training run can own its working state.
func (table *WordTable) clone() []Word {
	words := make([]Word, len(table.Words))
	copy(words, table.Words)
	return words
}

func splitSymbols(token string) []string {
	if token == StartToken {
		return []string{token}
	}
	return characters(token)
}

// characters cuts s into one string per rune. An invalid UTF-8 byte stays a
// one-byte symbol so the pieces always join back to s.
func characters(s string) []string {
	chars := make([]string, 0, len(s))
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		chars = append(chars, s[i:i+size])
		i += size
	}
	return chars
}

// Vocabulary is the set of symbols known to a training run, kept in
// insertion order.
type Vocabulary struct {
	symbols []string
	set     map[string]struct{}
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		symbols: make([]string, 0),
		set:     make(map[string]struct{}),
	}
}

// Add inserts symbol and reports whether it was new.
func (vocab *Vocabulary) Add(symbol string) bool {
	if _, ok := vocab.set[symbol]; ok {
		return false
	}
	vocab.set[symbol] = struct{}{}
	vocab.symbols = append(vocab.symbols, symbol)
	return true
}

func (vocab *Vocabulary) Contains(symbol string) bool {
	_, ok := vocab.set[symbol]
	return ok
}

func (vocab *Vocabulary) Len() int {
	return len(vocab.symbols)
}

// Symbols returns a copy of the symbols in insertion order.
func (vocab *Vocabulary) Symbols() []string {
	symbols := make([]string, len(vocab.symbols))
	copy(symbols, vocab.symbols)
	return symbols
}
