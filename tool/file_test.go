package tool

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFromFileURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	got, err := PathFromFileURL("file://" + path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	got, err = PathFromFileURL(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = PathFromFileURL("")
	assert.Error(t, err)
	_, err = PathFromFileURL("http://example.com/a.txt")
	assert.ErrorContains(t, err, "file://")
	_, err = PathFromFileURL("file://" + dir)
	assert.ErrorContains(t, err, "directory")
	_, err = PathFromFileURL("file://" + filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestCopyWithContext(t *testing.T) {
	var dst bytes.Buffer
	n, err := CopyWithContext(context.Background(), &dst, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, "hello", dst.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dst.Reset()
	n, err = CopyWithContext(ctx, &dst, strings.NewReader("hello"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestGenerateShortID(t *testing.T) {
	id := GenerateShortID()
	assert.Len(t, id, 8)
	assert.NotEqual(t, id, GenerateShortID())
}

func TestTerminalQRCode(t *testing.T) {
	qr, err := TerminalQRCode("http://192.168.1.2:4000/file")
	require.NoError(t, err)
	assert.NotEmpty(t, qr)
}
