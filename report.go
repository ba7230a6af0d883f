package subword_bpe

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/wbrown/subword_bpe/types"
)

const (
	DEFAULT_TOP_MERGES = 20
	DEFAULT_TOP_TOKENS = 50
)

type TokenCount struct {
	Token string
	Count int
}

// FrequencyReport counts tokens, keeping first-encountered order.
type FrequencyReport struct {
	Counts []TokenCount
	Total  int
	index  map[string]int
}

func CountTokens(tokens []string) *FrequencyReport {
	report := &FrequencyReport{
		Counts: make([]TokenCount, 0),
		index:  make(map[string]int),
	}
	for _, token := range tokens {
		report.Total++
		if idx, ok := report.index[token]; ok {
			report.Counts[idx].Count++
			continue
		}
		report.index[token] = len(report.Counts)
		report.Counts = append(report.Counts, TokenCount{token, 1})
	}
	return report
}

func (report *FrequencyReport) Count(token string) int {
	if idx, ok := report.index[token]; ok {
		return report.Counts[idx].Count
	}
	return 0
}

func (report *FrequencyReport) Distinct() int {
	return len(report.Counts)
}

// MostCommon returns every token by descending count; equal counts keep
// first-encountered order.
func (report *FrequencyReport) MostCommon() []TokenCount {
	sorted := make([]TokenCount, len(report.Counts))
	copy(sorted, report.Counts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	return sorted
}

// Top returns the n most common tokens.
func (report *FrequencyReport) Top(n int) []TokenCount {
	sorted := report.MostCommon()
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// MinTokensForCoverage returns how many of the most common distinct tokens
// are needed to account for fraction of all token occurrences.
func (report *FrequencyReport) MinTokensForCoverage(fraction float64) int {
	if report.Total == 0 || fraction <= 0 {
		return 0
	}
	threshold := fraction * float64(report.Total)
	cumulative := 0
	for idx, entry := range report.MostCommon() {
		cumulative += entry.Count
		if float64(cumulative) >= threshold {
			return idx + 1
		}
	}
	return report.Distinct()
}

// Summary is the outcome of one train-and-apply run.
type Summary struct {
	Tokens    []string
	Merges    types.MergeList
	TopMerges int
	TopTokens int
}

// WriteTo renders the summary:
//
//	Tokens: <n>
//	Merge rules: <m>
//	The first 20 merge rules:
//	(a, b) -> ab
//	Top 50 tokens:
//	token [count]
func (summary *Summary) WriteTo(w io.Writer) (int64, error) {
	buf := bufio.NewWriter(w)
	counter := &countingWriter{w: buf}
	report := CountTokens(summary.Tokens)
	fmt.Fprintf(counter, "Tokens: %d\n", len(summary.Tokens))
	fmt.Fprintf(counter, "Merge rules: %d\n", len(summary.Merges))
	fmt.Fprintf(counter, "The first %d merge rules:\n", summary.TopMerges)
	for _, pair := range summary.Merges.Head(summary.TopMerges) {
		fmt.Fprintln(counter, pair.String())
	}
	fmt.Fprintf(counter, "Top %d tokens:\n", summary.TopTokens)
	for _, entry := range report.Top(summary.TopTokens) {
		fmt.Fprintf(counter, "%s [%d]\n", entry.Token, entry.Count)
	}
	if counter.err != nil {
		return counter.n, counter.err
	}
	return counter.n, buf.Flush()
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	cw.err = err
	return n, err
}
