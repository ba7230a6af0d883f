package resources

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/subword_bpe"
	"github.com/yargevad/filepathx"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Encoding is the character encoding of corpus files on disk.
type Encoding int

const (
	UTF8 Encoding = iota
	Latin1
)

func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(name) {
	case "utf8", "utf-8":
		return UTF8, nil
	case "latin1", "latin-1", "iso-8859-1":
		return Latin1, nil
	}
	return UTF8, &subword_bpe.InputError{
		Field:  "encoding",
		Reason: fmt.Sprintf("unknown encoding `%s`", name),
	}
}

func (enc Encoding) String() string {
	if enc == Latin1 {
		return "latin1"
	}
	return "utf8"
}

// Decode turns raw file bytes into NFC-normalized text with `\r` removed.
func (enc Encoding) Decode(data []byte) (string, error) {
	var text []byte
	switch enc {
	case Latin1:
		decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(),
			data)
		if err != nil {
			return "", err
		}
		text = decoded
	default:
		text = norm.NFC.Bytes(data)
	}
	return strings.ReplaceAll(string(text), "\r", ""), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter encodes text written to it into enc. Close flushes any pending
// output but does not close w.
func (enc Encoding) NewWriter(w io.Writer) io.WriteCloser {
	if enc == Latin1 {
		return transform.NewWriter(w, charmap.ISO8859_1.NewEncoder())
	}
	return nopWriteCloser{w}
}

type PathInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// CorpusText is the decoded contents of one corpus file.
type CorpusText struct {
	Path string
	Text string
}

// GlobCorpus
// Given a file or directory path, returns every regular file beneath it,
// sorted by path. Hidden files are skipped.
func GlobCorpus(root string) (pathInfos []PathInfo, err error) {
	rootStat, statErr := os.Stat(root)
	if statErr != nil {
		return nil, statErr
	}
	if !rootStat.IsDir() {
		return []PathInfo{{
			Path:    root,
			Size:    rootStat.Size(),
			ModTime: rootStat.ModTime(),
		}}, nil
	}
	matches, err := filepathx.Glob(filepath.Join(root, "**", "*"))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	pathInfos = make([]PathInfo, 0, len(matches))
	for _, match := range matches {
		currPath := filepath.Clean(match)
		if _, ok := seen[currPath]; ok {
			continue
		}
		seen[currPath] = struct{}{}
		if strings.HasPrefix(filepath.Base(currPath), ".") {
			continue
		}
		stat, statErr := os.Stat(currPath)
		if statErr != nil {
			return nil, statErr
		}
		if stat.IsDir() {
			continue
		}
		pathInfos = append(pathInfos, PathInfo{
			Path:    currPath,
			Size:    stat.Size(),
			ModTime: stat.ModTime(),
		})
	}
	if len(pathInfos) == 0 {
		return nil, errors.New(fmt.Sprintf(
			"%s does not contain any files", root))
	}
	SortPathInfoByPath(pathInfos)
	return pathInfos, nil
}

func SortPathInfoByPath(pathInfos []PathInfo) {
	sort.Slice(pathInfos, func(i, j int) bool {
		return pathInfos[i].Path < pathInfos[j].Path
	})
}

// ReadText maps a single file and decodes it.
func ReadText(path string, enc Encoding) (string, error) {
	rsrcs := make(Resources)
	defer rsrcs.Cleanup()
	if err := rsrcs.Open(path, path); err != nil {
		return "", err
	}
	return enc.Decode(*rsrcs[path].Data)
}

// ReadCorpus reads every file under root. Any unreadable file makes the
// whole corpus unusable.
func ReadCorpus(root string, enc Encoding) ([]CorpusText, error) {
	pathInfos, err := GlobCorpus(root)
	if err != nil {
		return nil, &subword_bpe.InputError{
			Field:  "corpus",
			Reason: fmt.Sprintf("cannot list `%s`", root),
			Err:    err,
		}
	}
	begin := time.Now()
	var totalSize int64
	texts := make([]CorpusText, 0, len(pathInfos))
	for _, pathInfo := range pathInfos {
		text, readErr := ReadText(pathInfo.Path, enc)
		if readErr != nil {
			return nil, &subword_bpe.InputError{
				Field:  "corpus",
				Reason: fmt.Sprintf("cannot read `%s`", pathInfo.Path),
				Err:    readErr,
			}
		}
		totalSize += pathInfo.Size
		texts = append(texts, CorpusText{Path: pathInfo.Path, Text: text})
	}
	log.Printf("Read %s files, %s from %s in %0.2fs",
		humanize.Comma(int64(len(texts))),
		humanize.Bytes(uint64(totalSize)), root,
		time.Since(begin).Seconds())
	return texts, nil
}
