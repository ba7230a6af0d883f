package subword_bpe

import (
	"context"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/subword_bpe/types"
)

const DEFAULT_LOG_EVERY = 1000

// Trainer learns merge rules from a WordTable.
type Trainer struct {
	VocabSize int         // Stop once the vocabulary holds this many symbols.
	MaxMerges int         // Optional cap on merge steps, 0 for none.
	Logger    *log.Logger // Progress output, nil for silence.
	LogEvery  int         // Merges between progress lines.
}

// TrainResult is what survives a training run.
type TrainResult struct {
	Merges      types.MergeList
	Frequencies []int // Frequency of each merge at the step it was chosen.
	Vocabulary  *Vocabulary
	InitialSize int // Vocabulary size before the first merge.
}

func NewTrainer(vocabSize int) *Trainer {
	return &Trainer{
		VocabSize: vocabSize,
		LogEvery:  DEFAULT_LOG_EVERY,
	}
}

// Train is a shorthand that encodes tokens and returns only the merges.
func Train(tokens []string, vocabSize int) (types.MergeList, error) {
	result, err := NewTrainer(vocabSize).Train(EncodeWords(tokens))
	if err != nil {
		return nil, err
	}
	return result.Merges, nil
}

func (trainer *Trainer) Train(table *WordTable) (*TrainResult, error) {
	return trainer.TrainContext(context.Background(), table)
}

// TrainContext runs the merge loop until the vocabulary reaches VocabSize or
// no adjacent pair is left. ctx is only consulted between merge steps; when
// it is done the merges learned so far are returned along with ctx.Err().
// The table is not modified.
func (trainer *Trainer) TrainContext(ctx context.Context,
	table *WordTable) (*TrainResult, error) {
	if err := validateVocabSize(trainer.VocabSize); err != nil {
		return nil, err
	}
	if table == nil {
		table = NewWordTable()
	}

	vocab := NewVocabulary()
	vocab.Add(StartToken)
	for _, symbol := range table.Alphabet() {
		vocab.Add(symbol)
	}
	result := &TrainResult{
		Merges:      make(types.MergeList, 0),
		Frequencies: make([]int, 0),
		Vocabulary:  vocab,
		InitialSize: vocab.Len(),
	}

	words := table.clone()
	begin := time.Now()
	for vocab.Len() < trainer.VocabSize {
		if trainer.MaxMerges > 0 && len(result.Merges) >= trainer.MaxMerges {
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		pair, freq, ok := countPairs(words).best()
		if !ok {
			break
		}
		result.Merges = append(result.Merges, pair)
		result.Frequencies = append(result.Frequencies, freq)
		vocab.Add(pair.Merged())
		words = mergeWords(words, pair)
		trainer.logProgress(len(result.Merges), pair, freq, vocab.Len())
	}
	if trainer.Logger != nil {
		trainer.Logger.Printf("%s merges learned in %0.2fs, vocabulary %s",
			humanize.Comma(int64(len(result.Merges))),
			time.Since(begin).Seconds(),
			humanize.Comma(int64(vocab.Len())))
	}
	return result, nil
}

func (trainer *Trainer) logProgress(step int, pair types.SymbolPair,
	freq int, vocabLen int) {
	if trainer.Logger == nil || trainer.LogEvery <= 0 ||
		step%trainer.LogEvery != 0 {
		return
	}
	trainer.Logger.Printf("merge %s: %s freq=%s vocab=%s",
		humanize.Comma(int64(step)), pair.String(),
		humanize.Comma(int64(freq)), humanize.Comma(int64(vocabLen)))
}

// pairStats accumulates weighted pair frequencies, remembering the order in
// which each pair was first seen.
type pairStats struct {
	order []types.SymbolPair
	freqs map[types.SymbolPair]int
}

func countPairs(words []Word) *pairStats {
	stats := &pairStats{
		order: make([]types.SymbolPair, 0),
		freqs: make(map[types.SymbolPair]int),
	}
	for _, word := range words {
		if word.IsStart() {
			continue
		}
		for idx := 1; idx < len(word.Symbols); idx++ {
			pair := types.SymbolPair{
				Left:  word.Symbols[idx-1],
				Right: word.Symbols[idx],
			}
			if _, ok := stats.freqs[pair]; !ok {
				stats.order = append(stats.order, pair)
			}
			stats.freqs[pair] += word.Count
		}
	}
	return stats
}

// best returns the first pair, in first-seen order, with the highest
// positive frequency.
func (stats *pairStats) best() (types.SymbolPair, int, bool) {
	var bestPair types.SymbolPair
	bestFreq := 0
	for _, pair := range stats.order {
		if freq := stats.freqs[pair]; freq > bestFreq {
			bestPair = pair
			bestFreq = freq
		}
	}
	return bestPair, bestFreq, bestFreq > 0
}

// mergeWords returns a fresh slice with pair merged inside every word.
// Words the pair does not touch share their symbol slices with the input.
func mergeWords(words []Word, pair types.SymbolPair) []Word {
	merged := make([]Word, len(words))
	for idx, word := range words {
		merged[idx] = word
		if word.IsStart() {
			continue
		}
		if symbols, ok := mergeSymbols(word.Symbols, pair); ok {
			merged[idx].Symbols = symbols
		}
	}
	return merged
}

// pos finds the index of the first occurrence of seek in word at or past i.
func pos(word []string, seek string, i int) int {
	for j, v := range word[i:] {
		if seek == v {
			return j + i
		}
	}
	return -1
}

// mergeSymbols replaces every non-overlapping occurrence of pair, scanning
// left to right, and reports whether anything changed. The input is never
// modified.
func mergeSymbols(word []string, pair types.SymbolPair) ([]string, bool) {
	first, second := pair.Left, pair.Right
	if pos(word, first, 0) == -1 {
		return word, false
	}
	changed := false
	newWord := make([]string, 0, len(word))
	for i := 0; i < len(word); {
		j := pos(word, first, i)
		if j == -1 {
			newWord = append(newWord, word[i:]...)
			break
		}
		newWord = append(newWord, word[i:j]...)
		i = j
		if i < len(word)-1 && word[i+1] == second {
			newWord = append(newWord, first+second)
			changed = true
			i += 2
		} else {
			newWord = append(newWord, word[i])
			i += 1
		}
	}
	if !changed {
		return word, false
	}
	return newWord, true
}
