package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("downloads")
	require.NoError(t, err)

	want := filepath.Join(tmp, "downloads")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_Absolute(t *testing.T) {
	want := filepath.Join(t.TempDir(), "a", "b")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	again, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("downloads", []byte("x"), 0o660))

	_, err := EnsureDir("downloads")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestFileName(t *testing.T) {
	require.Equal(t, "7.pdf", FileName("7", "PDF", "books/7.pdf"))
	require.Equal(t, "7.epub", FileName("7", "EPUB", "books/7"))
	require.Equal(t, "7.zip", FileName("7", "PDF", "https://cdn/x/7.zip?sig=abc"))
	require.Equal(t, "a_b_c", FileName("a/b c", "", ""))
}

func TestAtomicFile_CommitAndAbort(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.pdf")

	f, err := CreateAtomic(target)
	require.NoError(t, err)
	_, err = f.Write([]byte("data"))
	require.NoError(t, err)

	_, err = os.Stat(target)
	require.True(t, os.IsNotExist(err), "target must not exist before commit")

	require.NoError(t, f.Commit())
	b, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "data", string(b))
	f.Abort()

	g, err := CreateAtomic(filepath.Join(dir, "other.pdf"))
	require.NoError(t, err)
	_, _ = g.Write([]byte("partial"))
	g.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "out.pdf", entries[0].Name())
}
