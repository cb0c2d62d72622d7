package common

import (
	"fmt"
	"strings"
)

// SQLStmtType defines the type of SQL statement to generate
type SQLStmtType string

const (
	InsertStmt SQLStmtType = "INSERT"
	SelectStmt SQLStmtType = "SELECT"
)

// GenPreparedStmt generates a prepared statement for the specified operation
func GenPreparedStmt(table string, fields []string, stmtType SQLStmtType) (string, error) {
	if table == "" || len(fields) == 0 {
		return "", fmt.Errorf("table name and fields are required")
	}

	var stmtSQL string
	switch stmtType {
	case InsertStmt:
		stmtSQL = fmt.Sprintf(`
INSERT INTO %s (
	%s
) VALUES (%s)`,
			table,
			strings.Join(fields, ","),
			strings.Repeat("?,", len(fields)-1)+"?",
		)
	case SelectStmt:
		stmtSQL = fmt.Sprintf(`
SELECT %s
FROM %s`,
			strings.Join(fields, ","),
			table,
		)
	default:
		return "", fmt.Errorf("unsupported statement type: %s", stmtType)
	}

	return strings.TrimSpace(stmtSQL), nil
}

// GenCreateTableSQLWithTypes generates an idempotent CREATE TABLE statement.
// Missing types default to TEXT.
func GenCreateTableSQLWithTypes(tableName string, columnNames, colTypes []string) string {
	var builder strings.Builder
	builder.Grow(len(tableName) + len(columnNames)*20) // Heuristic pre-allocation

	builder.WriteString("CREATE TABLE IF NOT EXISTS ")
	builder.WriteString(tableName)
	builder.WriteString(" (")

	for i, name := range columnNames {
		builder.WriteString(name)
		builder.WriteByte(' ')
		if i < len(colTypes) && colTypes[i] != "" {
			builder.WriteString(colTypes[i])
		} else {
			builder.WriteString("TEXT")
		}
		if i < len(columnNames)-1 {
			builder.WriteString(", ")
		}
	}
	builder.WriteByte(')')
	return builder.String()
}
