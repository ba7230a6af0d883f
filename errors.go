package subword_bpe

import (
	"errors"
	"fmt"
)

var ErrInvalidVocabSize = errors.New("vocabulary size must be positive")

// InputError reports unusable input or configuration. It is returned before
// any training state is built.
type InputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("subword_bpe: invalid %s: %s: %v", e.Field,
			e.Reason, e.Err)
	}
	return fmt.Sprintf("subword_bpe: invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func validateVocabSize(vocabSize int) error {
	if vocabSize <= 0 {
		return &InputError{
			Field:  "vocabulary size",
			Reason: fmt.Sprintf("got %d", vocabSize),
			Err:    ErrInvalidVocabSize,
		}
	}
	return nil
}
