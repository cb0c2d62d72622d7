package manifest

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/darianmavgo/mkxlsx/converters"
)

func sampleReport() *converters.Report {
	return &converters.Report{
		InputDir: "/in",
		Output:   "/out/combined.xlsx",
		Started:  time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC),
		Files: []converters.FileResult{
			{Path: "/in/a.csv", Sheet: "a", Delimiter: ",", Encoding: "utf-8-sig", Rows: 2},
			{Path: "/in/b.tsv", Sheet: "b", Delimiter: "\t", Encoding: "utf-8-sig", Rows: 5},
			{
				Path:  "/in/c.csv",
				Error: "open /in/c.csv: permission denied",
				Err:   &converters.FileError{Path: "/in/c.csv", Stage: "open", Err: errors.New("permission denied")},
			},
		},
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "manifest.db")

	assert.NilError(t, Write(path, sampleReport()))
	// a second run appends
	assert.NilError(t, Write(path, sampleReport()))

	db, err := sql.Open("sqlite", path)
	assert.NilError(t, err)
	defer db.Close()

	var count int
	assert.NilError(t, db.QueryRow("SELECT COUNT(*) FROM "+Table).Scan(&count))
	assert.Equal(t, count, 6)

	var sheet, delim, status, msg string
	var rows int
	err = db.QueryRow("SELECT sheet, delimiter, row_count, status, error FROM "+Table+" WHERE source_path = ? LIMIT 1", "/in/b.tsv").
		Scan(&sheet, &delim, &rows, &status, &msg)
	assert.NilError(t, err)
	assert.Equal(t, sheet, "b")
	assert.Equal(t, delim, `\t`)
	assert.Equal(t, rows, 5)
	assert.Equal(t, status, "ok")
	assert.Equal(t, msg, "")

	err = db.QueryRow("SELECT status, error FROM "+Table+" WHERE source_path = ? LIMIT 1", "/in/c.csv").Scan(&status, &msg)
	assert.NilError(t, err)
	assert.Equal(t, status, "failed")
	assert.Equal(t, msg, "open /in/c.csv: permission denied")
}

func TestDisplayDelimiter(t *testing.T) {
	assert.Equal(t, displayDelimiter(";"), ";")
	assert.Equal(t, displayDelimiter("\t"), `\t`)
	assert.Equal(t, displayDelimiter(""), "")
	assert.Equal(t, displayDelimiter("\x1f"), `"\x1f"`)
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.db")
	assert.NilError(t, Write(path, sampleReport()))

	records, err := Read(path)
	assert.NilError(t, err)
	assert.Equal(t, len(records), 3)
	assert.Equal(t, records[0].SourcePath, "/in/a.csv")
	assert.Equal(t, records[0].RunStarted, "2026-10-19T08:30:00Z")
	assert.Equal(t, records[1].Delimiter, `\t`)
	assert.Equal(t, records[2].Status, "failed")

	_, err = Read(filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorContains(t, err, "failed to open manifest")
}
