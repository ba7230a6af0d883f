//go:build !wasip1 && !js

package subword_bpe

import (
	"github.com/jdkato/prose/v2"
)

func segmentSentences(text string) ([]string, error) {
	doc, err := prose.NewDocument(
		text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithTokenization(false),
	)
	if err != nil {
		return nil, err
	}
	sentences := make([]string, 0)
	for _, sentence := range doc.Sentences() {
		sentences = append(sentences, sentence.Text)
	}
	return sentences, nil
}
