package transfer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// File is a re-openable file handle. The content is opened on every upload
// so the same File can be sent again on retry.
type File struct {
	Name     string
	Size     int64
	FileType string
	open     func() (io.ReadCloser, error)
}

// Open returns a fresh reader over the file content.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return f.open()
}

// FileFromPath builds a File backed by a file on the local filesystem.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	fileType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(path); err == nil {
		fileType = mtype.String()
	}
	return File{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		FileType: fileType,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FileFromBytes builds an in-memory File.
func FileFromBytes(name string, data []byte) File {
	return File{
		Name:     name,
		Size:     int64(len(data)),
		FileType: mimetype.Detect(data).String(),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
