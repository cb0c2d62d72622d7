package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"
)

func names(files []SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func newTree(t *testing.T) *fs.Dir {
	return fs.NewDir(t, "scan",
		fs.WithFile("b.csv", "x,y\n"),
		fs.WithFile("A.CSV", "x,y\n"),
		fs.WithFile("a.backup.csv", "x;y\n"),
		fs.WithFile("notes.txt", "hello\n"),
		fs.WithFile("data.tsv", "x\ty\n"),
		fs.WithDir("nested",
			fs.WithFile("c.csv", "1,2\n"),
			fs.WithDir("deeper", fs.WithFile("Aa.csv", "3,4\n")),
		),
		fs.WithDir("folder.csv"),
	)
}

func TestScanTopLevel(t *testing.T) {
	dir := newTree(t)

	s, err := NewScanner(dir.Path())
	assert.NilError(t, err)
	files, err := s.Scan(context.Background())
	assert.NilError(t, err)

	assert.DeepEqual(t, names(files), []string{"a.backup.csv", "A.CSV", "b.csv"})
	assert.Equal(t, files[0].Stem, "a.backup")
	assert.Equal(t, files[1].Stem, "A")
	assert.Equal(t, files[2].Size, int64(4))
}

func TestScanRecursive(t *testing.T) {
	dir := newTree(t)

	s, err := NewScanner(dir.Path())
	assert.NilError(t, err)
	s.SetRecursive(true)
	files, err := s.Scan(context.Background())
	assert.NilError(t, err)

	assert.DeepEqual(t, names(files), []string{"a.backup.csv", "A.CSV", "Aa.csv", "b.csv", "c.csv"})
	assert.Equal(t, files[2].Path, filepath.Join(dir.Path(), "nested", "deeper", "Aa.csv"))
}

func TestScanExtensions(t *testing.T) {
	dir := newTree(t)

	s, err := NewScanner(dir.Path())
	assert.NilError(t, err)
	s.SetExtensions([]string{"TSV", ".txt"})
	files, err := s.Scan(context.Background())
	assert.NilError(t, err)
	assert.DeepEqual(t, names(files), []string{"data.tsv", "notes.txt"})

	s.SetExtensions(nil)
	files, err = s.Scan(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(files), 3)
}

func TestScanEmpty(t *testing.T) {
	dir := fs.NewDir(t, "empty", fs.WithFile("readme.md", "# nothing"))

	s, err := NewScanner(dir.Path())
	assert.NilError(t, err)
	files, err := s.Scan(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(files), 0)
}

func TestNewScannerErrors(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "failed to stat path")

	file := filepath.Join(t.TempDir(), "plain.csv")
	assert.NilError(t, os.WriteFile(file, []byte("a,b\n"), 0644))
	_, err = NewScanner(file)
	assert.ErrorContains(t, err, "not a directory")
}

func TestScanCancelled(t *testing.T) {
	dir := newTree(t)
	s, err := NewScanner(dir.Path())
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSortFiles(t *testing.T) {
	files := []SourceFile{
		{Name: "b.csv", Path: "/x/b.csv"},
		{Name: "A.csv", Path: "/y/A.csv"},
		{Name: "a.csv", Path: "/x/a.csv"},
	}
	SortFiles(files)
	assert.DeepEqual(t, []string{files[0].Path, files[1].Path, files[2].Path},
		[]string{"/x/a.csv", "/y/A.csv", "/x/b.csv"})
}
