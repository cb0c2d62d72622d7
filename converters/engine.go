package converters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/darianmavgo/mkxlsx/converters/common"
	"github.com/darianmavgo/mkxlsx/converters/excel"
	"github.com/darianmavgo/mkxlsx/converters/filesystem"
	"github.com/darianmavgo/mkxlsx/converters/textenc"
)

var (
	ErrInterrupted = errors.New("operation interrupted by user")
	ErrNoInput     = errors.New("no matching input files found")
	ErrInputDir    = errors.New("input directory is not usable")
	ErrOutput      = errors.New("output workbook could not be written")
)

// ImportOptions defines configuration for a combine run.
type ImportOptions struct {
	Recursive   bool
	Extensions  []string                 // Matched file extensions; defaults to .csv
	Config      *common.ConversionConfig // Delimiter override, encoding and sample size
	Placeholder string                   // Title for stems with no usable characters
	Logger      zerolog.Logger
}

// FileError describes why one input file was skipped or cut short.
type FileError struct {
	Path  string
	Stage string // "open", "read", "title" or "write"
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Path      string     `json:"path"`
	Sheet     string     `json:"sheet,omitempty"`
	Delimiter string     `json:"delimiter,omitempty"`
	Encoding  string     `json:"encoding,omitempty"`
	Rows      int        `json:"rows"`
	Error     string     `json:"error,omitempty"`
	Err       *FileError `json:"-"`
}

// OK reports whether the file was converted completely.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// Report summarizes a combine run.
type Report struct {
	InputDir string       `json:"input_dir"`
	Output   string       `json:"output"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Files    []FileResult `json:"files"`
}

// Failed returns the number of files that were skipped or truncated.
func (r *Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if !f.OK() {
			n++
		}
	}
	return n
}

// Sheets returns the worksheet titles in workbook order.
func (r *Report) Sheets() []string {
	var out []string
	for _, f := range r.Files {
		if f.Sheet != "" {
			out = append(out, f.Sheet)
		}
	}
	return out
}

// Combine converts every matching file in inputDir into one worksheet of the
// workbook at outputPath. Files are processed one at a time in
// case-insensitive name order. Per-file problems are logged and recorded in
// the report; only configuration, no-input and output failures abort the run,
// in which case no workbook is written.
func Combine(ctx context.Context, inputDir, outputPath string, opts *ImportOptions) (*Report, error) {
	if opts == nil {
		opts = &ImportOptions{Logger: zerolog.Nop()}
	}
	logger := opts.Logger
	cfg := opts.Config.WithDefaults()

	if _, err := textenc.Lookup(cfg.Encoding); err != nil {
		return nil, err
	}

	report := &Report{InputDir: inputDir, Output: outputPath, Started: time.Now()}

	scanner, err := filesystem.NewScanner(inputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputDir, err)
	}
	scanner.SetRecursive(opts.Recursive)
	scanner.SetExtensions(opts.Extensions)
	scanner.SetLogger(logger)

	files, err := scanner.Scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrInterrupted
		}
		return nil, fmt.Errorf("%w: %v", ErrInputDir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInput, inputDir)
	}
	logger.Debug().Int("files", len(files)).Str("dir", inputDir).Msg("Discovered input files")

	wb, err := excel.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutput, err)
	}
	report.Output = wb.Path()

	registry := common.NewTitleRegistry(opts.Placeholder)
	for _, sf := range files {
		if ctx.Err() != nil {
			wb.Discard()
			return report, ErrInterrupted
		}

		result, err := convertFile(ctx, wb, registry, sf, cfg, logger)
		report.Files = append(report.Files, result)
		if err != nil {
			wb.Discard()
			return report, err
		}
	}

	if err := wb.Save(); err != nil {
		return report, fmt.Errorf("%w: %v", ErrOutput, err)
	}
	report.Finished = time.Now()

	logger.Info().
		Str("output", wb.Path()).
		Int("sheets", len(wb.Sheets())).
		Int("failed", report.Failed()).
		Msg("Wrote Excel workbook")
	return report, nil
}

// convertFile streams one source into a new worksheet. A non-nil error means
// the whole run must stop; per-file failures are only recorded in the result.
func convertFile(ctx context.Context, wb *excel.Workbook, registry *common.TitleRegistry, sf filesystem.SourceFile, cfg common.ConversionConfig, logger zerolog.Logger) (FileResult, error) {
	result := FileResult{Path: sf.Path}
	fail := func(stage string, err error) {
		result.Err = &FileError{Path: sf.Path, Stage: stage, Err: err}
		result.Error = result.Err.Error()
		logger.Warn().Err(err).Str("path", sf.Path).Str("stage", stage).Msg("Failed to process file")
	}

	f, err := os.Open(sf.Path)
	if err != nil {
		fail("open", err)
		return result, nil
	}
	defer f.Close()

	provider, err := Open(DriverName(sf.Path), f, &cfg)
	if err != nil {
		fail("read", err)
		return result, nil
	}
	result.Delimiter = string(provider.Delimiter())
	result.Encoding = provider.Encoding()

	title, err := registry.Assign(sf.Stem)
	if err != nil {
		fail("title", err)
		return result, nil
	}
	result.Sheet = title

	sheet, err := wb.AddSheet(title)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrOutput, err)
	}
	logger.Info().Str("sheet", title).Str("path", sf.Path).Msg("Adding sheet")
	logger.Debug().
		Str("sheet", title).
		Str("delimiter", fmt.Sprintf("%q", provider.Delimiter())).
		Str("encoding", provider.Encoding()).
		Int64("size", sf.Size).
		Time("modified", sf.ModTime).
		Time("created", sf.CreateTime).
		Msg("Reading file")

	var writeErr error
	scanErr := provider.ScanRows(ctx, func(row []string) error {
		if err := sheet.WriteRow(row); err != nil {
			writeErr = err
			return err
		}
		return nil
	})
	result.Rows = sheet.Rows()

	if err := sheet.Flush(); err != nil {
		return result, fmt.Errorf("%w: %v", ErrOutput, err)
	}

	switch {
	case scanErr == nil:
	case errors.Is(scanErr, context.Canceled), errors.Is(scanErr, context.DeadlineExceeded):
		return result, ErrInterrupted
	case writeErr != nil:
		fail("write", writeErr)
	default:
		fail("read", scanErr)
	}

	logger.Debug().Str("sheet", title).Int("rows", result.Rows).Msg("Finished sheet")
	return result, nil
}
