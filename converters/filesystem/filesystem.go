package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultExtensions are matched when no extensions are configured.
var DefaultExtensions = []string{".csv"}

// SourceFile is one discovered input file.
type SourceFile struct {
	Path       string
	Name       string // base name
	Stem       string // base name without its final extension
	Size       int64
	ModTime    time.Time
	CreateTime time.Time
}

// Scanner discovers delimited text files below a directory.
type Scanner struct {
	root       string
	recursive  bool
	extensions []string
	logger     zerolog.Logger
}

// NewScanner creates a Scanner for a directory path.
func NewScanner(root string) (*Scanner, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path is not a directory: %s", root)
	}

	return &Scanner{
		root:       root,
		extensions: normalizeExtensions(DefaultExtensions),
		logger:     zerolog.Nop(),
	}, nil
}

// SetRecursive enables descending into subdirectories.
func (s *Scanner) SetRecursive(recursive bool) {
	s.recursive = recursive
}

// SetExtensions replaces the matched extensions. Matching ignores case and
// the leading dot is optional.
func (s *Scanner) SetExtensions(exts []string) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	s.extensions = normalizeExtensions(exts)
}

// SetLogger sets the logger used for skipped entries.
func (s *Scanner) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// Scan returns the matching files sorted case-insensitively by base name.
// Unreadable subdirectories are logged and skipped; an unreadable root is an error.
func (s *Scanner) Scan(ctx context.Context) ([]SourceFile, error) {
	var files []SourceFile

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == s.root {
				return err
			}
			s.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != s.root && !s.recursive {
				return fs.SkipDir
			}
			return nil
		}

		if !s.matches(d.Name()) {
			return nil
		}

		// os.Stat follows symlinks so linked files are picked up and linked directories are not.
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Skipping file")
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		files = append(files, newSourceFile(path, info))
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}

	SortFiles(files)
	return files, nil
}

// SortFiles orders files case-insensitively by base name, then by path so the
// order is deterministic for equal names in different directories.
func SortFiles(files []SourceFile) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := strings.ToLower(files[i].Name), strings.ToLower(files[j].Name)
		if a != b {
			return a < b
		}
		return files[i].Path < files[j].Path
	})
}

func (s *Scanner) matches(name string) bool {
	ext := filepath.Ext(name)
	for _, want := range s.extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

func newSourceFile(path string, info fs.FileInfo) SourceFile {
	name := filepath.Base(path)
	return SourceFile{
		Path:       path,
		Name:       name,
		Stem:       strings.TrimSuffix(name, filepath.Ext(name)),
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		CreateTime: getCreateTime(info),
	}
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, strings.ToLower(ext))
	}
	return out
}
