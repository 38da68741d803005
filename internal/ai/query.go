package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var ErrNotReadOnly = errors.New("ai: only a single SELECT statement is allowed")

// Keywords that never belong in a reporting query. INTO covers
// SELECT ... INTO OUTFILE.
var forbidden = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "REPLACE": true,
	"DROP": true, "ALTER": true, "CREATE": true, "TRUNCATE": true, "RENAME": true,
	"GRANT": true, "REVOKE": true, "LOCK": true, "UNLOCK": true,
	"CALL": true, "HANDLER": true, "LOAD": true, "INTO": true, "SET": true,
	"SLEEP": true, "BENCHMARK": true,
}

// CheckReadOnly accepts a single SELECT or WITH statement and nothing else.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	if q == "" || strings.Contains(q, ";") {
		return ErrNotReadOnly
	}

	words := strings.FieldsFunc(strings.ToUpper(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if len(words) == 0 || (words[0] != "SELECT" && words[0] != "WITH") {
		return ErrNotReadOnly
	}
	for _, w := range words {
		if forbidden[w] {
			return fmt.Errorf("%w: %s", ErrNotReadOnly, w)
		}
	}
	return nil
}

// QueryRunner executes guarded queries on the read-only pool and returns
// the rows as a JSON array of objects.
type QueryRunner struct {
	db      *sql.DB
	maxRows int
	timeout time.Duration
}

func NewQueryRunner(db *sql.DB) *QueryRunner {
	return &QueryRunner{db: db, maxRows: 200, timeout: 10 * time.Second}
}

// Run checks query, executes it inside a READ ONLY transaction and encodes
// at most maxRows rows.
func (r *QueryRunner) Run(ctx context.Context, query string) (string, error) {
	if err := CheckReadOnly(query); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return "", fmt.Errorf("ai: begin read-only transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}

	tableData := []map[string]any{}
	for rows.Next() && len(tableData) < r.maxRows {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return "", err
		}

		entry := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				entry[col] = string(b)
			} else {
				entry[col] = values[i]
			}
		}
		tableData = append(tableData, entry)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	jsonData, err := json.Marshal(tableData)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}
