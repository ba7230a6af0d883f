package resources

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wbrown/subword_bpe"
	"github.com/wbrown/subword_bpe/types"
)

// MergesFormat selects the on-disk layout of a merges file.
type MergesFormat int

const (
	MergesTxt MergesFormat = iota
	MergesJSON
)

func ParseMergesFormat(name string) (MergesFormat, error) {
	switch strings.ToLower(name) {
	case "txt", "":
		return MergesTxt, nil
	case "json":
		return MergesJSON, nil
	}
	return MergesTxt, &subword_bpe.InputError{
		Field:  "merges format",
		Reason: fmt.Sprintf("unknown format `%s`", name),
	}
}

func (format MergesFormat) String() string {
	if format == MergesJSON {
		return "json"
	}
	return "txt"
}

// WriteMerges writes merges to path in the given format.
func WriteMerges(path string, merges types.MergeList,
	format MergesFormat) error {
	file, err := os.OpenFile(path, os.O_TRUNC|os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening '%s' for write: %w", path, err)
	}
	writer := bufio.NewWriter(file)
	switch format {
	case MergesJSON:
		var encoded []byte
		if encoded, err = json.Marshal(merges); err == nil {
			_, err = writer.Write(encoded)
		}
	default:
		err = merges.WriteTxt(writer)
	}
	if err == nil {
		err = writer.Flush()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}

// DecodeMerges parses merges in either format. JSON is recognized by a
// leading `[`.
func DecodeMerges(data []byte) (types.MergeList, error) {
	var merges types.MergeList
	var err error
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 &&
		trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &merges)
	} else {
		merges, err = types.ReadMergesTxt(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	return merges, nil
}

// ReadMerges loads a merges file from a local path or a URL. Remote files
// are cached in cacheDir, or the system temp dir when cacheDir is empty.
// Malformed files are reported as an InputError.
func ReadMerges(uri string, cacheDir string) (types.MergeList, error) {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "subword_bpe")
	}
	localPath, err := ResolveFile(uri, cacheDir)
	if err != nil {
		return nil, &subword_bpe.InputError{
			Field:  "merges file",
			Reason: fmt.Sprintf("cannot resolve `%s`", uri),
			Err:    err,
		}
	}
	rsrcs := make(Resources)
	defer rsrcs.Cleanup()
	if err = rsrcs.Open("merges", localPath); err != nil {
		return nil, &subword_bpe.InputError{
			Field:  "merges file",
			Reason: fmt.Sprintf("cannot read `%s`", localPath),
			Err:    err,
		}
	}
	merges, err := DecodeMerges(*rsrcs["merges"].Data)
	if err != nil {
		return nil, &subword_bpe.InputError{
			Field:  "merges file",
			Reason: fmt.Sprintf("malformed `%s`", uri),
			Err:    err,
		}
	}
	return merges, nil
}
