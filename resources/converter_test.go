package resources

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"github.com/wbrown/subword_bpe"
	"github.com/wbrown/subword_bpe/types"
	"google.golang.org/protobuf/proto"
)

var lowTokens = []string{"low", "low", "lower", "newest", "widest"}

func TestSentencePiece_RoundTrip(t *testing.T) {
	result, err := subword_bpe.NewTrainer(1000).Train(
		subword_bpe.EncodeWords(lowTokens))
	require.NoError(t, err)

	model := BuildSentencePieceModel(result.Vocabulary.Symbols())
	assert.Equal(t, sentencepiece.TrainerSpec_BPE,
		model.GetTrainerSpec().GetModelType())
	assert.Equal(t, int32(result.Vocabulary.Len()),
		model.GetTrainerSpec().GetVocabSize())
	assert.Equal(t, sentencepiece.ModelProto_SentencePiece_CONTROL,
		model.GetPieces()[0].GetType())

	path := filepath.Join(t.TempDir(), "subword.model")
	require.NoError(t, WriteSentencePieceModel(path, model))
	loaded, err := ReadSentencePieceModel(path)
	require.NoError(t, err)
	require.Len(t, loaded.GetPieces(), result.Vocabulary.Len())

	merges, err := MergesFromSentencePiece(loaded)
	require.NoError(t, err)
	assert.Equal(t, result.Merges, merges)
}

func TestBuildSentencePieceModel_VocabularyOrder(t *testing.T) {
	vocab := []string{subword_bpe.StartToken, "l", "o", "w", "lo", "low"}
	model := BuildSentencePieceModel(vocab)
	pieces := model.GetPieces()
	require.Len(t, pieces, len(vocab))
	for idx, piece := range pieces {
		assert.Equal(t, vocab[idx], piece.GetPiece())
		assert.Equal(t, -float32(idx), piece.GetScore())
		if idx == 0 {
			assert.Equal(t, sentencepiece.ModelProto_SentencePiece_CONTROL,
				piece.GetType())
			continue
		}
		assert.Equal(t, sentencepiece.ModelProto_SentencePiece_NORMAL,
			piece.GetType())
	}
	assert.Equal(t, int32(len(vocab)),
		model.GetTrainerSpec().GetVocabSize())
}

func TestMergesFromSentencePiece_ReplaysEarlierMerges(t *testing.T) {
	piece := func(repr string) *sentencepiece.ModelProto_SentencePiece {
		return &sentencepiece.ModelProto_SentencePiece{
			Piece: proto.String(repr),
			Type:  sentencepiece.ModelProto_SentencePiece_NORMAL.Enum(),
		}
	}
	model := &sentencepiece.ModelProto{
		Pieces: []*sentencepiece.ModelProto_SentencePiece{
			piece("a"), piece("b"), piece("c"),
			piece("ab"), piece("bc"), piece("abc"),
		},
	}
	merges, err := MergesFromSentencePiece(model)
	require.NoError(t, err)
	// Replaying (a,b) then (b,c) over "abc" leaves "ab c".
	assert.Equal(t, types.MergeList{{Left: "a", Right: "b"}, {Left: "b", Right: "c"}, {Left: "ab", Right: "c"}},
		merges)
}

func TestMergesFromSentencePiece_Orphan(t *testing.T) {
	model := &sentencepiece.ModelProto{
		Pieces: []*sentencepiece.ModelProto_SentencePiece{{
			Piece: proto.String("xy"),
			Type:  sentencepiece.ModelProto_SentencePiece_NORMAL.Enum(),
		}},
	}
	_, err := MergesFromSentencePiece(model)
	assert.Error(t, err)
}
