//go:build !wasip1 && !js

package resources

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// readMmap maps file read-only. The returned func releases the mapping.
func readMmap(file *os.File) (*[]byte, func() error, error) {
	fileMmap, mmapErr := mmap.Map(file, mmap.RDONLY, 0)
	if mmapErr != nil {
		return nil, nil, mmapErr
	}
	mmapBytes := (*[]byte)(&fileMmap)
	return mmapBytes, fileMmap.Unmap, nil
}
