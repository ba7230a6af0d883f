package types

// StartToken marks the beginning of a line or sentence. It is kept whole by
// every stage and never takes part in pair counting.
const StartToken = "<start>"

// SymbolPair is an ordered pair of adjacent symbols. Used as a merge rule it
// means: wherever Left is immediately followed by Right, replace both with
// Left+Right.
type SymbolPair struct {
	Left  string
	Right string
}

// MergeList is an ordered list of merge rules. Order is significant, rules
// are replayed first to last.
type MergeList []SymbolPair
