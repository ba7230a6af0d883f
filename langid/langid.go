// Package langid identifies the language of a line of text with per-language
// character bigram models and add-one smoothing.
package langid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/subword_bpe/resources"
)

const DEFAULT_OUTPUT = "languageIdentification.output"

type bigram [2]rune

// Model holds the character counts of one language's training text.
type Model struct {
	Language string
	Unigrams map[rune]int
	Bigrams  map[bigram]int
}

// TrainModel counts every character and every adjacent character pair of
// text. Newlines are treated as spaces.
func TrainModel(language string, text string) *Model {
	model := &Model{
		Language: language,
		Unigrams: make(map[rune]int),
		Bigrams:  make(map[bigram]int),
	}
	runes := []rune(strings.ReplaceAll(text, "\n", " "))
	for idx, r := range runes {
		model.Unigrams[r]++
		if idx < len(runes)-1 {
			model.Bigrams[bigram{r, runes[idx+1]}]++
		}
	}
	return model
}

// LogProb scores line as
//
//	Σ log((count(c[i] c[i+1]) + 1) / (count(c[i]) + |unigrams|))
//
// Lines shorter than two characters score 0.
func (model *Model) LogProb(line string) float64 {
	runes := []rune(line)
	vocabSize := len(model.Unigrams)
	logProb := 0.0
	for idx := 0; idx < len(runes)-1; idx++ {
		bigramFreq := model.Bigrams[bigram{runes[idx], runes[idx+1]}] + 1
		unigramFreq := model.Unigrams[runes[idx]] + vocabSize
		logProb += math.Log(float64(bigramFreq) / float64(unigramFreq))
	}
	return logProb
}

type Score struct {
	Language string
	LogProb  float64
}

// Classifier picks the best scoring of its models. Models are consulted in
// the order they were trained; the first of equally scoring models wins.
type Classifier struct {
	Models []*Model
}

func NewClassifier() *Classifier {
	return &Classifier{Models: make([]*Model, 0)}
}

func (classifier *Classifier) Train(language string, text string) {
	classifier.Models = append(classifier.Models,
		TrainModel(language, text))
}

func (classifier *Classifier) Languages() []string {
	languages := make([]string, len(classifier.Models))
	for idx, model := range classifier.Models {
		languages[idx] = model.Language
	}
	return languages
}

func (classifier *Classifier) Scores(line string) []Score {
	scores := make([]Score, len(classifier.Models))
	for idx, model := range classifier.Models {
		scores[idx] = Score{model.Language, model.LogProb(line)}
	}
	return scores
}

// Identify returns the most likely language of line, or false when there
// are no models.
func (classifier *Classifier) Identify(line string) (string, bool) {
	best := ""
	bestLogProb := math.Inf(-1)
	found := false
	for _, score := range classifier.Scores(line) {
		if !found || score.LogProb > bestLogProb {
			best = score.Language
			bestLogProb = score.LogProb
			found = true
		}
	}
	return best, found
}

// IdentifyReader writes `<line number> <language>` for every non-blank line
// of r. Line numbers count blank lines too, starting at 1.
func (classifier *Classifier) IdentifyReader(r io.Reader,
	w io.Writer) error {
	if len(classifier.Models) == 0 {
		return errors.New("no language models trained")
	}
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)
	lineNumber := 0
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return readErr
		}
		if len(line) > 0 {
			lineNumber++
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				language, _ := classifier.Identify(trimmed)
				if _, err := fmt.Fprintf(writer, "%d %s\n", lineNumber,
					language); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			break
		}
	}
	return writer.Flush()
}

// LoadTrainingDir trains one model per regular file in dir, named after the
// file without its extension, in file name order.
func LoadTrainingDir(dir string, enc resources.Encoding) (*Classifier,
	error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	begin := time.Now()
	classifier := NewClassifier()
	var totalChars int
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		language := strings.TrimSuffix(name, filepath.Ext(name))
		if language == "" {
			language = name
		}
		text, readErr := resources.ReadText(filepath.Join(dir, name), enc)
		if readErr != nil {
			return nil, fmt.Errorf("cannot read training file %s: %w",
				name, readErr)
		}
		totalChars += len(text)
		classifier.Train(language, text)
	}
	if len(classifier.Models) == 0 {
		return nil, errors.New(fmt.Sprintf(
			"%s does not contain any training files", dir))
	}
	log.Printf("Trained %d language models on %s in %0.2fs",
		len(classifier.Models), humanize.Bytes(uint64(totalChars)),
		time.Since(begin).Seconds())
	return classifier, nil
}
