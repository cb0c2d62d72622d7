package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/darianmavgo/mkxlsx/converters"
	"github.com/darianmavgo/mkxlsx/converters/common"
	"github.com/darianmavgo/mkxlsx/converters/textenc"
)

// checkEvery is how many rows are read between cancellation checks.
const checkEvery = 1000

func init() {
	converters.Register("csv", &csvDriver{})
	converters.Register("tsv", &csvDriver{defaultDelimiter: '\t'})
}

type csvDriver struct {
	defaultDelimiter rune
}

func (d *csvDriver) Open(source io.Reader, config *common.ConversionConfig) (common.RowProvider, error) {
	cfg := config.WithDefaults()
	if cfg.Delimiter == 0 {
		cfg.Delimiter = d.defaultDelimiter
	}
	return NewCSVConverterWithConfig(source, &cfg)
}

// CSVConverter streams the records of a delimited text file.
type CSVConverter struct {
	csvReader *csv.Reader
	encoding  string
	Config    common.ConversionConfig
}

// Ensure CSVConverter implements RowProvider
var _ common.RowProvider = (*CSVConverter)(nil)

// NewCSVConverter creates a new CSVConverter from an io.Reader with default settings.
func NewCSVConverter(r io.Reader) (*CSVConverter, error) {
	return NewCSVConverterWithConfig(r, nil)
}

// NewCSVConverterWithConfig decodes r with the configured encoding and, unless
// a delimiter is set, detects it from a prefix of the decoded text.
// Only the first SampleSize bytes are inspected; rows are read lazily by ScanRows.
func NewCSVConverterWithConfig(r io.Reader, config *common.ConversionConfig) (*CSVConverter, error) {
	cfg := config.WithDefaults()

	decoded, encName, err := textenc.NewReader(r, cfg.Encoding)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(decoded, common.MaxSampleSize)

	// Detect delimiter if not set
	if cfg.Delimiter == 0 {
		peekBytes, err := br.Peek(cfg.SampleSize)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return nil, fmt.Errorf("failed to read delimiter sample: %w", err)
		}
		sample := string(peekBytes)
		if len(peekBytes) == cfg.SampleSize {
			sample = common.TrimPartialRecord(sample)
		}
		cfg.Delimiter = common.DetectDelimiter(sample, 0)
	}

	reader := csv.NewReader(br)
	reader.Comma = cfg.Delimiter
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	return &CSVConverter{
		csvReader: reader,
		encoding:  encName,
		Config:    cfg,
	}, nil
}

// Delimiter implements RowProvider
func (c *CSVConverter) Delimiter() rune {
	return c.Config.Delimiter
}

// Encoding implements RowProvider
func (c *CSVConverter) Encoding() string {
	return c.encoding
}

// ScanRows implements RowProvider. Fields are passed through verbatim except
// that invalid UTF-8 is replaced with U+FFFD.
func (c *CSVConverter) ScanRows(ctx context.Context, yield func([]string) error) error {
	if c.csvReader == nil {
		return fmt.Errorf("CSV reader is not initialized")
	}

	for n := 0; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		row, err := c.csvReader.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read CSV row: %w", err)
		}

		for i, val := range row {
			if !utf8.ValidString(val) {
				row[i] = strings.ToValidUTF8(val, "\uFFFD")
			}
		}

		if err := yield(row); err != nil {
			return err
		}
	}
}
