package resources

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/subword_bpe"
	"github.com/wbrown/subword_bpe/types"
)

var lowMerges = types.MergeList{{Left: "l", Right: "o"}, {Left: "lo", Right: "w"}, {Left: "e", Right: "s"}}

func TestWriteReadMerges(t *testing.T) {
	for _, format := range []MergesFormat{MergesTxt, MergesJSON} {
		t.Run(format.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "merges."+format.String())
			require.NoError(t, WriteMerges(path, lowMerges, format))
			merges, err := ReadMerges(path, "")
			require.NoError(t, err)
			assert.Equal(t, lowMerges, merges)
		})
	}
}

func TestWriteMerges_TxtLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merges.txt")
	require.NoError(t, WriteMerges(path, lowMerges[:2], MergesTxt))
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, types.MergesVersionHeader+"\nl o\nlo w\n",
		string(contents))
}

func TestParseMergesFormat(t *testing.T) {
	format, err := ParseMergesFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, MergesJSON, format)
	_, err = ParseMergesFormat("yaml")
	var inputErr *subword_bpe.InputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestReadMerges_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merges.txt")
	writeFile(t, path, []byte("l o\nlow\n"))
	_, err := ReadMerges(path, "")
	var inputErr *subword_bpe.InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "merges file", inputErr.Field)
}

func TestReadMerges_Missing(t *testing.T) {
	_, err := ReadMerges(filepath.Join(t.TempDir(), "nope.txt"), "")
	var inputErr *subword_bpe.InputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestReadMerges_Remote(t *testing.T) {
	body := []byte(`[["l","o"],["lo","w"]]`)
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "GET" {
				requests++
			}
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.Write(body)
		}))
	defer server.Close()

	cacheDir := t.TempDir()
	merges, err := ReadMerges(server.URL+"/merges.json", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, lowMerges[:2], merges)
	assert.FileExists(t, filepath.Join(cacheDir, "merges.json"))

	// Second resolve finds the cached copy of the same size.
	_, err = ReadMerges(server.URL+"/merges.json", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestReadMerges_RemoteNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	_, err := ReadMerges(server.URL+"/merges.txt", t.TempDir())
	assert.Error(t, err)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/merges.txt"))
	assert.False(t, IsRemote("merges.txt"))
	assert.False(t, IsRemote("/tmp/merges.txt"))
}
