package csv

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"gotest.tools/v3/assert"

	"github.com/darianmavgo/mkxlsx/converters/common"
)

func collect(t *testing.T, c *CSVConverter) [][]string {
	t.Helper()
	var rows [][]string
	err := c.ScanRows(context.Background(), func(row []string) error {
		rows = append(rows, append([]string(nil), row...))
		return nil
	})
	if err != nil {
		t.Fatalf("ScanRows failed: %v", err)
	}
	return rows
}

func TestScanRowsVerbatim(t *testing.T) {
	content := "\xef\xbb\xbfid,amount,note\n007,1e3,\"=SUM(A1)\"\n8,,\"multi\nline, quoted\"\n9\n"
	c, err := NewCSVConverter(strings.NewReader(content))
	assert.NilError(t, err)
	assert.Equal(t, c.Encoding(), "utf-8-sig")

	rows := collect(t, c)
	assert.DeepEqual(t, rows, [][]string{
		{"id", "amount", "note"},
		{"007", "1e3", "=SUM(A1)"},
		{"8", "", "multi\nline, quoted"},
		{"9"},
	})
}

func TestScanRowsLatin1(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().String("nom;ville\nRenée;Besançon\n")
	assert.NilError(t, err)

	c, err := NewCSVConverterWithConfig(strings.NewReader(raw), &common.ConversionConfig{Encoding: "latin1"})
	assert.NilError(t, err)
	assert.Equal(t, c.Delimiter(), ';')
	assert.Equal(t, c.Encoding(), "windows-1252")

	rows := collect(t, c)
	assert.DeepEqual(t, rows, [][]string{{"nom", "ville"}, {"Renée", "Besançon"}})
}

func TestScanRowsReplacesInvalidUTF8(t *testing.T) {
	c, err := NewCSVConverterWithConfig(strings.NewReader("a,b\n\xff,ok\n"), &common.ConversionConfig{Encoding: "utf-8"})
	assert.NilError(t, err)
	rows := collect(t, c)
	assert.Equal(t, rows[1][0], "\uFFFD")
	assert.Equal(t, rows[1][1], "ok")
}

func TestUnknownEncoding(t *testing.T) {
	_, err := NewCSVConverterWithConfig(strings.NewReader("a,b"), &common.ConversionConfig{Encoding: "ebcdic-xyz"})
	assert.ErrorContains(t, err, "unknown encoding")
}

// faultyReader hands out a prefix of the content and then fails.
type faultyReader struct {
	data   string
	failAt int
	read   int
}

func (r *faultyReader) Read(p []byte) (int, error) {
	if r.read >= r.failAt {
		return 0, errors.New("simulated disk error")
	}
	end := r.read + len(p)
	if end > r.failAt {
		end = r.failAt
	}
	n := copy(p, r.data[r.read:end])
	r.read += n
	return n, nil
}

func TestScanRowsMidFileError(t *testing.T) {
	var b strings.Builder
	for b.Len() < 100_000 {
		b.WriteString("alpha,beta,gamma\n")
	}
	r := &faultyReader{data: b.String(), failAt: 80_000}

	c, err := NewCSVConverterWithConfig(r, &common.ConversionConfig{Delimiter: ','})
	assert.NilError(t, err)

	count := 0
	err = c.ScanRows(context.Background(), func(row []string) error {
		count++
		return nil
	})
	assert.ErrorContains(t, err, "simulated disk error")
	assert.Assert(t, count > 0)
}

func TestScanRowsStopsOnYieldError(t *testing.T) {
	c, err := NewCSVConverter(strings.NewReader("a,b\nc,d\ne,f\n"))
	assert.NilError(t, err)

	stop := errors.New("stop")
	count := 0
	err = c.ScanRows(context.Background(), func(row []string) error {
		count++
		return stop
	})
	assert.Assert(t, errors.Is(err, stop))
	assert.Equal(t, count, 1)
}

func TestScanRowsCancelled(t *testing.T) {
	c, err := NewCSVConverter(strings.NewReader("a,b\n"))
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.ScanRows(ctx, func(row []string) error { return nil })
	assert.Assert(t, errors.Is(err, context.Canceled))
}

func TestEmptyInput(t *testing.T) {
	c, err := NewCSVConverter(strings.NewReader(""))
	assert.NilError(t, err)
	assert.Equal(t, c.Delimiter(), ',')
	assert.Equal(t, len(collect(t, c)), 0)
}

var _ io.Reader = (*faultyReader)(nil)
