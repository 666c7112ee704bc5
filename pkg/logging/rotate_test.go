package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T, opts ...Option) (*RotatingFile, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pingoo.debug.log")
	rf, err := NewRotatingFile(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rf.Close() })
	return rf, path
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestRotatingFile_WritesBelowLimit(t *testing.T) {
	rf, path := newTestFile(t, WithMaxSize(100))

	n, err := rf.Write([]byte("level=DEBUG msg=one\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = rf.Write([]byte("level=DEBUG msg=two\n"))
	require.NoError(t, err)

	assert.Equal(t, "level=DEBUG msg=one\nlevel=DEBUG msg=two\n", readFile(t, path))
	assert.NoFileExists(t, path+".1")
}

func TestRotatingFile_ShiftsBackups(t *testing.T) {
	rf, path := newTestFile(t, WithMaxSize(10), WithMaxBackups(2))

	for _, line := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n", "dddddddd\n"} {
		_, err := rf.Write([]byte(line))
		require.NoError(t, err)
	}

	assert.Equal(t, "dddddddd\n", readFile(t, path))
	assert.Equal(t, "cccccccc\n", readFile(t, path+".1"))
	assert.Equal(t, "bbbbbbbb\n", readFile(t, path+".2"))
	assert.NoFileExists(t, path+".3", "the oldest backup is dropped")
}

func TestRotatingFile_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pingoo.debug.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o600))

	rf, err := NewRotatingFile(path, WithMaxSize(1000))
	require.NoError(t, err)
	defer rf.Close()

	_, err = rf.Write([]byte("this run\n"))
	require.NoError(t, err)

	assert.Equal(t, "previous run\nthis run\n", readFile(t, path))
}

func TestRotatingFile_ExistingSizeCountsTowardLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pingoo.debug.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 8)), 0o600))

	rf, err := NewRotatingFile(path, WithMaxSize(10))
	require.NoError(t, err)
	defer rf.Close()

	_, err = rf.Write([]byte("yyyy"))
	require.NoError(t, err)

	assert.Equal(t, "yyyy", readFile(t, path))
	assert.Equal(t, "xxxxxxxx", readFile(t, path+".1"))
}

func TestRotatingFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pingoo", "logs", "pingoo.debug.log")

	rf, err := NewRotatingFile(path)
	require.NoError(t, err)
	defer rf.Close()

	assert.FileExists(t, path)
}

func TestRotatingFile_CloseTwice(t *testing.T) {
	rf, _ := newTestFile(t)

	require.NoError(t, rf.Close())
	require.NoError(t, rf.Close())
}

func TestRotatingFile_OversizedFirstWrite(t *testing.T) {
	rf, path := newTestFile(t, WithMaxSize(4))

	_, err := rf.Write([]byte("longer than max"))
	require.NoError(t, err)

	assert.NoFileExists(t, path+".1", "an empty file is never rotated")
}
