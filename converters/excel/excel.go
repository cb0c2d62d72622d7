package excel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrClosed is returned when a saved or discarded workbook is used again.
	ErrClosed = errors.New("workbook already closed")
	// ErrDuplicateSheet is returned when a title matches an existing sheet,
	// compared the way excelize compares names (case-folded).
	ErrDuplicateSheet = errors.New("sheet already exists")
)

// Workbook is an xlsx file under construction. Rows are streamed into one
// sheet at a time. The data goes to a temporary file next to the destination
// and only replaces the destination on Save, so an aborted run never leaves a
// half-written workbook behind.
type Workbook struct {
	file         *excelize.File
	path         string
	tmp          *os.File
	defaultSheet string
	sheets       []string
	closed       bool
}

// Create prepares a workbook that will be written to path.
// The destination directory is created if needed; failure to create the
// temporary file there means the output location is not writable.
func Create(path string) (*Workbook, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("output path is a directory: %s", abs)
	}

	tmp, err := os.CreateTemp(dir, ".mkxlsx-*.xlsx")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to set output file mode: %w", err)
	}

	f := excelize.NewFile()
	return &Workbook{
		file:         f,
		path:         abs,
		tmp:          tmp,
		defaultSheet: f.GetSheetName(0),
	}, nil
}

// Path returns the destination path.
func (w *Workbook) Path() string {
	return w.path
}

// Sheets returns the sheet titles in creation order.
func (w *Workbook) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

// AddSheet appends a worksheet named title and returns a writer for its rows.
// The caller must Flush the returned writer before adding another sheet.
// The first sheet takes over the default sheet every new workbook starts with.
func (w *Workbook) AddSheet(title string) (*SheetWriter, error) {
	if w.closed {
		return nil, ErrClosed
	}

	if len(w.sheets) == 0 {
		if err := w.file.SetSheetName(w.defaultSheet, title); err != nil {
			return nil, fmt.Errorf("failed to name sheet %q: %w", title, err)
		}
	} else {
		// NewSheet hands back an existing sheet whose name folds equal
		idx, err := w.file.GetSheetIndex(title)
		if err != nil {
			return nil, fmt.Errorf("invalid sheet name %q: %w", title, err)
		}
		if idx != -1 {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSheet, title)
		}
		if _, err := w.file.NewSheet(title); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", title, err)
		}
	}
	w.sheets = append(w.sheets, title)

	stream, err := w.file.NewStreamWriter(title)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream writer for %q: %w", title, err)
	}
	return &SheetWriter{title: title, stream: stream}, nil
}

// Save writes the workbook and moves it into place.
func (w *Workbook) Save() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	if len(w.sheets) > 0 {
		w.file.SetActiveSheet(0)
	}
	if err := w.file.Write(w.tmp); err != nil {
		w.cleanup()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := w.tmp.Close(); err != nil {
		w.cleanup()
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(w.tmp.Name(), w.path); err != nil {
		w.cleanup()
		return fmt.Errorf("failed to move workbook into place: %w", err)
	}
	return w.file.Close()
}

// Discard drops everything written so far. It is a no-op after Save.
func (w *Workbook) Discard() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.cleanup()
}

func (w *Workbook) cleanup() error {
	w.tmp.Close()
	err := os.Remove(w.tmp.Name())
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// SheetWriter streams rows into one worksheet.
type SheetWriter struct {
	title  string
	stream *excelize.StreamWriter
	rows   int
	values []interface{}
}

// Title returns the worksheet title.
func (s *SheetWriter) Title() string {
	return s.title
}

// Rows returns the number of rows written.
func (s *SheetWriter) Rows() int {
	return s.rows
}

// WriteRow appends row below the previous one. Every field is stored as a
// literal string; nothing is parsed as a number, date or formula.
func (s *SheetWriter) WriteRow(row []string) error {
	cell, err := excelize.CoordinatesToCellName(1, s.rows+1)
	if err != nil {
		return err
	}

	s.values = s.values[:0]
	for _, val := range row {
		s.values = append(s.values, val)
	}
	if err := s.stream.SetRow(cell, s.values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", s.rows+1, err)
	}
	s.rows++
	return nil
}

// Flush finishes the worksheet.
func (s *SheetWriter) Flush() error {
	if err := s.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet %q: %w", s.title, err)
	}
	return nil
}
