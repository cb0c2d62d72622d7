// Package manifest records combine runs in a SQLite database so repeated
// exports can be audited later: which file became which sheet, with which
// delimiter and encoding, and what went wrong.
package manifest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/darianmavgo/mkxlsx/converters"
	"github.com/darianmavgo/mkxlsx/converters/common"

	_ "modernc.org/sqlite"
)

// Table is the table runs are appended to.
const Table = "conversions"

// Columns lists the manifest columns in insert order.
var Columns = []string{
	"run_started", "output", "source_path", "sheet",
	"delimiter", "encoding", "row_count", "status", "error",
}

var columnTypes = []string{
	"TEXT", "TEXT", "TEXT", "TEXT",
	"TEXT", "TEXT", "INTEGER", "TEXT", "TEXT",
}

// Write appends one row per file of report to the manifest database at path,
// creating the database and table when missing.
func Write(path string, report *converters.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(common.GenCreateTableSQLWithTypes(Table, Columns, columnTypes)); err != nil {
		return fmt.Errorf("failed to create manifest table: %w", err)
	}

	insertSQL, err := common.GenPreparedStmt(Table, Columns, common.InsertStmt)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	started := report.Started.UTC().Format(time.RFC3339Nano)
	for _, f := range report.Files {
		status := "ok"
		if !f.OK() {
			status = "failed"
		}
		_, err := stmt.Exec(started, report.Output, f.Path, f.Sheet,
			displayDelimiter(f.Delimiter), f.Encoding, f.Rows, status, f.Error)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record %s: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit manifest: %w", err)
	}
	return nil
}

// displayDelimiter makes whitespace delimiters readable in the manifest.
func displayDelimiter(d string) string {
	switch {
	case d == "\t":
		return `\t`
	case d == "", strconv.IsPrint([]rune(d)[0]):
		return d
	}
	return strconv.Quote(d)
}

// Record is one manifest row.
type Record struct {
	RunStarted string `json:"run_started"`
	Output     string `json:"output"`
	SourcePath string `json:"source_path"`
	Sheet      string `json:"sheet"`
	Delimiter  string `json:"delimiter"`
	Encoding   string `json:"encoding"`
	Rows       int    `json:"row_count"`
	Status     string `json:"status"`
	Error      string `json:"error"`
}

// Read returns every recorded row, oldest run first.
func Read(path string) ([]Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer db.Close()

	selectSQL, err := common.GenPreparedStmt(Table, Columns, common.SelectStmt)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(selectSQL + " ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query manifest: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.RunStarted, &r.Output, &r.SourcePath, &r.Sheet,
			&r.Delimiter, &r.Encoding, &r.Rows, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan manifest row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
