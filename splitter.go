package subword_bpe

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Boundary selects where the splitter emits StartToken.
type Boundary uint

const (
	LineBoundary     Boundary = iota // One StartToken per non-blank line.
	SentenceBoundary Boundary = iota // One StartToken per detected sentence.
)

const (
	SGML_REGEX         = `<[^>]+>`
	SENTENCE_END_REGEX = `([.!?])(\s|$)`
	NUMERIC_REGEX      = `^[\d,./-]+$`
	ABBREVIATION_REGEX = `^[A-Za-z]+\.[A-Za-z.]+$`
	DISALLOWED_REGEX   = `[^\p{L}\p{N}\p{M}_\s-]`
)

var (
	sgmlPat        = regexp.MustCompile(SGML_REGEX)
	sentenceEndPat = regexp.MustCompile(SENTENCE_END_REGEX)
	numericPat     = regexp.MustCompile(NUMERIC_REGEX)
	abbrevPat      = regexp.MustCompile(ABBREVIATION_REGEX)
	disallowedPat  = regexp.MustCompile(DISALLOWED_REGEX)
)

type contraction struct {
	pattern     *regexp.Regexp
	replacement string
}

// Applied in this order. RE2's \b only knows ASCII word characters, so each
// suffix must instead be followed by a non-letter, non-digit, non-underscore
// rune or the end of the line. The captured rune is put back.
var contractions = []contraction{
	{contractionPattern(`'m`), " am"},
	{contractionPattern(`'s`), " 's"},
	{contractionPattern(`'re`), " are"},
	{contractionPattern(`'ve`), " have"},
	{contractionPattern(`'ll`), " will"},
	{contractionPattern(`n't`), " not"},
	{contractionPattern(`'d`), " would"},
}

func contractionPattern(suffix string) *regexp.Regexp {
	return regexp.MustCompile(suffix + `([^\p{L}\p{N}_]|$)`)
}

// ParseBoundary accepts "line" or "sentence".
func ParseBoundary(name string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "line":
		return LineBoundary, nil
	case "sentence":
		return SentenceBoundary, nil
	default:
		return LineBoundary, &InputError{
			Field:  "boundary",
			Reason: fmt.Sprintf("%q (expected line|sentence)", name),
		}
	}
}

func (boundary Boundary) String() string {
	if boundary == SentenceBoundary {
		return "sentence"
	}
	return "line"
}

// Splitter turns cleaned text into whitespace-delimited tokens with
// StartToken markers.
type Splitter struct {
	Boundary  Boundary
	StripSGML bool
}

func NewSplitter() *Splitter {
	return &Splitter{
		Boundary:  LineBoundary,
		StripSGML: true,
	}
}

// StripSGML removes anything that looks like a markup tag.
func StripSGML(text string) string {
	return sgmlPat.ReplaceAllString(text, "")
}

// Split tokenizes text. Blank lines produce nothing.
func (splitter *Splitter) Split(text string) ([]string, error) {
	if splitter.StripSGML {
		text = StripSGML(text)
	}
	tokens := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if splitter.Boundary != SentenceBoundary {
			tokens = append(tokens, StartToken)
			tokens = append(tokens, SplitLine(line)...)
			continue
		}
		sentences, err := segmentSentences(line)
		if err != nil {
			return nil, err
		}
		for _, sentence := range sentences {
			if strings.TrimSpace(sentence) == "" {
				continue
			}
			tokens = append(tokens, StartToken)
			tokens = append(tokens, SplitLine(sentence)...)
		}
	}
	return tokens, nil
}

// SplitReader reads all of r and splits it.
func (splitter *Splitter) SplitReader(r io.Reader) ([]string, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return splitter.Split(string(text))
}

// SplitLine tokenizes a single line without adding StartToken. Sentence
// punctuation becomes its own token, contractions are expanded, and tokens
// that are not numbers, dotted abbreviations or hyphenated words lose every
// character that is not a word character or '-'.
func SplitLine(line string) []string {
	line = sentenceEndPat.ReplaceAllString(line, " ${1} ")
	for _, c := range contractions {
		line = c.pattern.ReplaceAllString(line, c.replacement+"${1}")
	}
	tokens := make([]string, 0)
	for _, word := range strings.Fields(line) {
		if numericPat.MatchString(word) || abbrevPat.MatchString(word) ||
			strings.Contains(word, "-") {
			tokens = append(tokens, word)
			continue
		}
		if cleaned := disallowedPat.ReplaceAllString(word, ""); cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}
