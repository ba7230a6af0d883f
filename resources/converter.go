package resources

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"github.com/wbrown/subword_bpe"
	"github.com/wbrown/subword_bpe/types"
	"google.golang.org/protobuf/proto"
)

// BuildSentencePieceModel exports a trained vocabulary as a sentencepiece
// BPE model. Pieces keep vocabulary order and are scored by descending rank;
// the start token becomes a control piece.
func BuildSentencePieceModel(vocab []string) *sentencepiece.ModelProto {
	pieces := make([]*sentencepiece.ModelProto_SentencePiece, 0, len(vocab))
	for idx, symbol := range vocab {
		pieceType := sentencepiece.ModelProto_SentencePiece_NORMAL
		if symbol == subword_bpe.StartToken {
			pieceType = sentencepiece.ModelProto_SentencePiece_CONTROL
		}
		pieces = append(pieces, &sentencepiece.ModelProto_SentencePiece{
			Piece: proto.String(symbol),
			Score: proto.Float32(-float32(idx)),
			Type:  pieceType.Enum(),
		})
	}
	return &sentencepiece.ModelProto{
		Pieces: pieces,
		TrainerSpec: &sentencepiece.TrainerSpec{
			ModelType: sentencepiece.TrainerSpec_BPE.Enum(),
			VocabSize: proto.Int32(int32(len(vocab))),
		},
	}
}

func WriteSentencePieceModel(path string,
	model *sentencepiece.ModelProto) error {
	encoded, err := proto.Marshal(model)
	if err != nil {
		return fmt.Errorf("cannot marshal sentencepiece model: %w", err)
	}
	return os.WriteFile(path, encoded, 0644)
}

func ReadSentencePieceModel(path string) (*sentencepiece.ModelProto, error) {
	rsrcs := make(Resources)
	defer rsrcs.Cleanup()
	if err := rsrcs.Open("model", path); err != nil {
		return nil, err
	}
	var model sentencepiece.ModelProto
	if err := proto.Unmarshal(*rsrcs["model"].Data, &model); err != nil {
		return nil, fmt.Errorf("unable to unmarshal %s: %w", path, err)
	}
	return &model, nil
}

// MergesFromSentencePiece recovers the merge list of a BPE model. Single
// rune pieces form the alphabet; each longer piece is split by replaying
// the merges recovered so far, falling back to the first split whose halves
// are both earlier pieces.
func MergesFromSentencePiece(
	model *sentencepiece.ModelProto,
) (types.MergeList, error) {
	known := make(map[string]struct{})
	merges := make(types.MergeList, 0)
	for _, piece := range model.GetPieces() {
		repr := piece.GetPiece()
		switch piece.GetType() {
		case sentencepiece.ModelProto_SentencePiece_CONTROL,
			sentencepiece.ModelProto_SentencePiece_USER_DEFINED,
			sentencepiece.ModelProto_SentencePiece_BYTE,
			sentencepiece.ModelProto_SentencePiece_UNKNOWN:
			continue
		}
		if utf8.RuneCountInString(repr) < 2 {
			known[repr] = struct{}{}
			continue
		}
		pair, err := splitPiece(repr, merges, known)
		if err != nil {
			return nil, err
		}
		merges = append(merges, pair)
		known[repr] = struct{}{}
	}
	return merges, nil
}

func splitPiece(
	repr string,
	merges types.MergeList,
	known map[string]struct{},
) (types.SymbolPair, error) {
	replayed := (&subword_bpe.Merger{Merges: merges}).Symbols(repr)
	if len(replayed) == 2 {
		return types.SymbolPair{Left: replayed[0], Right: replayed[1]}, nil
	}
	for splitIdx := range repr {
		if splitIdx == 0 {
			continue
		}
		left, right := repr[:splitIdx], repr[splitIdx:]
		_, leftOk := known[left]
		_, rightOk := known[right]
		if leftOk && rightOk {
			return types.SymbolPair{Left: left, Right: right}, nil
		}
	}
	return types.SymbolPair{}, errors.New(
		fmt.Sprintf("piece `%s` is not a merge of earlier pieces", repr))
}
