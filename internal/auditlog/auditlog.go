// Package auditlog appends operator-triggered balance operations to a CSV
// trail. Rows are informational; nothing replays them.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Operations recorded in the log.
const (
	OpApply            = "apply"
	OpReconcileAccount = "reconcile_account"
	OpReconcileAll     = "reconcile_all"
	OpReconcileFund    = "reconcile_fund"
	OpCheck            = "check"
	OpImport           = "import"
)

// Entry is one row in the reconcile log. Previous and Balance are empty when
// the operation produced no balance (a missing account, an import).
type Entry struct {
	Timestamp time.Time
	Operation string
	Target    string
	Previous  decimal.NullDecimal
	Balance   decimal.NullDecimal
	Details   string
}

// Header is the CSV header for reconcile-log.csv.
const Header = "timestamp,operation,target,previous,balance,details"

const (
	numFields    = 6
	colTimestamp = 0
	colOperation = 1
	colTarget    = 2
	colPrevious  = 3
	colBalance   = 4
	colDetails   = 5
)

// Amount wraps d for an Entry field.
func Amount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colOperation] = e.Operation
	row[colTarget] = e.Target
	row[colPrevious] = formatAmount(e.Previous)
	row[colBalance] = formatAmount(e.Balance)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	previous, err := parseAmount(record[colPrevious])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing previous: %w", err)
	}
	balance, err := parseAmount(record[colBalance])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing balance: %w", err)
	}

	return Entry{
		Timestamp: ts,
		Operation: record[colOperation],
		Target:    record[colTarget],
		Previous:  previous,
		Balance:   balance,
		Details:   record[colDetails],
	}, nil
}

func formatAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func parseAmount(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return Amount(d), nil
}

// Append writes entries to the log at path, creating the file and header if needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening reconcile log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from the log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening reconcile log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading reconcile log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
