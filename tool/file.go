package tool

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
)

// PathFromFileURL resolves a file:// url (or a plain path) to a local regular file path.
func PathFromFileURL(fileUrl string) (string, error) {
	if fileUrl == "" {
		return "", fmt.Errorf("fileUrl is required")
	}
	parsedUrl, err := url.Parse(fileUrl)
	if err != nil {
		return "", fmt.Errorf("invalid fileUrl: %w", err)
	}
	path := fileUrl
	switch parsedUrl.Scheme {
	case "file":
		path = parsedUrl.Path
	case "":
	default:
		return "", fmt.Errorf("only file:// protocol is supported for fileUrl")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file")
	}
	return path, nil
}

// CopyWithContext copies from src to dst while respecting context cancellation.
func CopyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 256*1024)
	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[0:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if writeErr == nil {
					writeErr = fmt.Errorf("invalid write result")
				}
			}
			written += int64(nw)
			if writeErr != nil {
				return written, writeErr
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}
			return written, readErr
		}
	}
}
