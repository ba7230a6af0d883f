package resources

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/dustin/go-humanize"
)

// WriteCounter counts the number of bytes written to it, and every 10 seconds,
// it prints a message reporting the number of bytes written so far.
type WriteCounter struct {
	Total    uint64
	Last     time.Time
	Reported bool
	Path     string
	Size     uint64
}

func (wc *WriteCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Total += uint64(n)
	if time.Now().Sub(wc.Last).Seconds() > 10 {
		wc.Reported = true
		wc.Last = time.Now()
		log.Printf("Downloading %s... %s / %s completed.",
			wc.Path, humanize.Bytes(wc.Total), humanize.Bytes(wc.Size))
	}
	return n, nil
}

// ResourceEntry is an opened file and its mapped contents.
type ResourceEntry struct {
	file  *os.File
	unmap func() error
	Data  *[]byte
}

type Resources map[string]ResourceEntry

// Cleanup unmaps and closes every entry.
func (rsrcs *Resources) Cleanup() {
	for name, rsrc := range *rsrcs {
		if rsrc.unmap != nil {
			if err := rsrc.unmap(); err != nil {
				log.Printf("error unmapping %s: %v", name, err)
			}
		}
		if rsrc.file != nil {
			rsrc.file.Close()
		}
		delete(*rsrcs, name)
	}
}

// AddEntry
// Add a resource to the Resources map, opening it as a mmap.Map.
func (rsrcs *Resources) AddEntry(name string, file *os.File) error {
	fileMmap, unmap, mmapErr := readMmap(file)
	if mmapErr != nil {
		return fmt.Errorf("error trying to mmap %s: %w", name, mmapErr)
	}
	(*rsrcs)[name] = ResourceEntry{file, unmap, fileMmap}
	return nil
}

// Open maps the local file at path under name. Empty files are not
// mappable, so they get an empty entry instead.
func (rsrcs *Resources) Open(name string, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	if stat, statErr := file.Stat(); statErr != nil {
		file.Close()
		return statErr
	} else if stat.Size() == 0 {
		empty := make([]byte, 0)
		(*rsrcs)[name] = ResourceEntry{file, nil, &empty}
		return nil
	}
	if err := rsrcs.AddEntry(name, file); err != nil {
		file.Close()
		return err
	}
	return nil
}

func isValidUrl(toTest string) bool {
	_, err := url.ParseRequestURI(toTest)
	if err != nil {
		return false
	}

	u, err := url.Parse(toTest)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// IsRemote reports whether uri names an http(s) resource rather than a
// local path.
func IsRemote(uri string) bool {
	return isValidUrl(uri)
}

// Fetch
// Returns a ReadCloser over uri, which is either a local file path or a
// remote URL.
func Fetch(uri string) (io.ReadCloser, error) {
	if isValidUrl(uri) {
		return FetchHTTP(uri, "")
	}
	handle, fileErr := os.Open(uri)
	if fileErr != nil {
		return nil, fmt.Errorf("error opening %s: %w", uri, fileErr)
	}
	return handle, nil
}

// Size
// Determine the size of the resource at uri.
func Size(uri string) (uint, error) {
	if isValidUrl(uri) {
		return SizeHTTP(uri, "")
	}
	fsz, err := os.Stat(uri)
	if err != nil {
		return 0, err
	}
	return uint(fsz.Size()), nil
}

// ResolveFile returns a local path for uri. Local paths are returned as is;
// remote resources are downloaded into dir unless a file of the same name
// and size is already there.
func ResolveFile(uri string, dir string) (string, error) {
	if !isValidUrl(uri) {
		if _, err := os.Stat(uri); err != nil {
			return "", err
		}
		return uri, nil
	}
	u, _ := url.Parse(uri)
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", errors.New(
			fmt.Sprintf("cannot derive a file name from `%s`", uri))
	}
	targetPath := path.Join(dir, name)

	log.Printf("Resolving %s... ", uri)
	rsrcSize, rsrcSizeErr := Size(uri)
	if rsrcSizeErr != nil {
		return "", fmt.Errorf("cannot retrieve `%s`: %w", uri, rsrcSizeErr)
	}
	if targetStat, targetStatErr := os.Stat(targetPath); targetStatErr == nil &&
		rsrcSize != 0 && uint(targetStat.Size()) == rsrcSize {
		log.Printf("Skipping %s... already exists, "+
			"and of the correct size.", uri)
		return targetPath, nil
	}

	rsrcReader, rsrcErr := Fetch(uri)
	if rsrcErr != nil {
		return "", fmt.Errorf("cannot retrieve `%s`: %w", uri, rsrcErr)
	}
	defer rsrcReader.Close()
	if mkdirErr := os.MkdirAll(dir, 0755); mkdirErr != nil {
		return "", mkdirErr
	}
	rsrcFile, rsrcFileErr := os.OpenFile(targetPath,
		os.O_TRUNC|os.O_RDWR|os.O_CREATE, 0644)
	if rsrcFileErr != nil {
		return "", fmt.Errorf("error opening '%s' for write: %w",
			targetPath, rsrcFileErr)
	}
	defer rsrcFile.Close()
	counter := &WriteCounter{
		Last: time.Now(),
		Path: uri,
		Size: uint64(rsrcSize),
	}
	bytesDownloaded, ioErr := io.Copy(rsrcFile,
		io.TeeReader(rsrcReader, counter))
	if ioErr != nil {
		return "", fmt.Errorf("error downloading '%s': %w", uri, ioErr)
	}
	log.Printf("Downloaded %s... %s completed.", uri,
		humanize.Bytes(uint64(bytesDownloaded)))
	return targetPath, nil
}
