package types

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const MergesVersionHeader = "#version: 0.2"

// Merged returns the symbol produced by applying the pair as a merge rule.
func (pair SymbolPair) Merged() string {
	return pair.Left + pair.Right
}

// String renders the rule as `(left, right) -> leftright`.
func (pair SymbolPair) String() string {
	return fmt.Sprintf("(%s, %s) -> %s", pair.Left, pair.Right,
		pair.Merged())
}

// Ranks maps every rule to the position of its first occurrence.
func (merges MergeList) Ranks() map[SymbolPair]int {
	ranks := make(map[SymbolPair]int, len(merges))
	for idx, pair := range merges {
		if _, ok := ranks[pair]; !ok {
			ranks[pair] = idx
		}
	}
	return ranks
}

// Head returns at most the first n rules.
func (merges MergeList) Head(n int) MergeList {
	if n < 0 || n >= len(merges) {
		return merges
	}
	return merges[:n]
}

func hasSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// WriteTxt writes the rules in merges.txt form: a version header followed by
// one `left right` line per rule.
func (merges MergeList) WriteTxt(w io.Writer) error {
	buf := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(buf, MergesVersionHeader); err != nil {
		return err
	}
	for idx, pair := range merges {
		if pair.Left == "" || pair.Right == "" ||
			hasSpace(pair.Left) || hasSpace(pair.Right) {
			return fmt.Errorf("merge %d %q cannot be written as text",
				idx, pair.Merged())
		}
		if _, err := fmt.Fprintf(buf, "%s %s\n", pair.Left,
			pair.Right); err != nil {
			return err
		}
	}
	return buf.Flush()
}

// ReadMergesTxt parses merges.txt content. A leading `#version` line is
// skipped, as are blank lines.
func ReadMergesTxt(r io.Reader) (MergeList, error) {
	merges := make(MergeList, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 && strings.HasPrefix(line, "#version") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected `left right`, "+
				"got %q", lineNo, line)
		}
		merges = append(merges, SymbolPair{fields[0], fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return merges, nil
}

// MarshalJSON encodes the rules as `[["left","right"], ...]`.
func (merges MergeList) MarshalJSON() ([]byte, error) {
	table := make([][2]string, len(merges))
	for idx, pair := range merges {
		table[idx] = [2]string{pair.Left, pair.Right}
	}
	return json.Marshal(table)
}

func (merges *MergeList) UnmarshalJSON(data []byte) error {
	var table [][]string
	if err := json.Unmarshal(data, &table); err != nil {
		return err
	}
	decoded := make(MergeList, 0, len(table))
	for idx, entry := range table {
		if len(entry) != 2 {
			return fmt.Errorf("merge %d: expected 2 symbols, got %d",
				idx, len(entry))
		}
		decoded = append(decoded, SymbolPair{entry[0], entry[1]})
	}
	*merges = decoded
	return nil
}
