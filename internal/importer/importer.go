// Package importer loads accounts, funds, transactions and savings movements
// from CSV files dropped in a repo's import/ directory.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// Batch holds the rows parsed from one file. Only the slice matching the
// parser's format is populated.
type Batch struct {
	Accounts     []model.Account
	Funds        []model.SavingsFund
	Transactions []model.Transaction
	Movements    []model.SavingsMovement
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int {
	return len(b.Accounts) + len(b.Funds) + len(b.Transactions) + len(b.Movements)
}

// Parser converts one CSV format into a Batch.
type Parser interface {
	Parse(r io.Reader) (Batch, error)
	Format() string
	Header() string
}

// Registry holds parsers by format name and by header.
type Registry struct {
	parsers  map[string]Parser
	byHeader map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers:  make(map[string]Parser),
		byHeader: make(map[string]Parser),
	}
}

// Register adds a parser. Panics on duplicate format or header.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	header := normalizeHeader(p.Header())
	if _, ok := r.byHeader[header]; ok {
		panic("duplicate parser header: " + header)
	}
	r.parsers[key] = p
	r.byHeader[header] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Detect returns the parser whose header matches, or nil.
func (r *Registry) Detect(header string) Parser {
	return r.byHeader[normalizeHeader(header)]
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	fields := strings.Split(h, ",")
	for i, f := range fields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return strings.Join(fields, ",")
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&AccountsParser{})
	r.Register(&FundsParser{})
	r.Register(&TransactionsParser{})
	r.Register(&MovementsParser{})
	return r
}

// loadOrder is the order formats are loaded in, so that every row's parent
// exists before the row itself.
var loadOrder = []string{FormatAccounts, FormatFunds, FormatTransactions, FormatMovements}

func loadRank(format string) int {
	if i := slices.Index(loadOrder, format); i >= 0 {
		return i
	}
	return len(loadOrder)
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// ParseFile detects the format of the file at path and parses it.
func (r *Registry) ParseFile(path string) (Parser, Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Batch{}, fmt.Errorf("reading %s: %w", path, err)
	}

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err == io.EOF {
		return nil, Batch{}, fmt.Errorf("%s is empty", filepath.Base(path))
	}
	if err != nil {
		return nil, Batch{}, fmt.Errorf("reading header of %s: %w", filepath.Base(path), err)
	}

	p := r.Detect(strings.Join(header, ","))
	if p == nil {
		return nil, Batch{}, fmt.Errorf("%s: unrecognized header %q", filepath.Base(path), strings.Join(header, ","))
	}

	batch, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, Batch{}, fmt.Errorf("parsing %s as %s: %w", filepath.Base(path), p.Format(), err)
	}
	return p, batch, nil
}

// readRecords reads a CSV with a header row and unmarshals every data row.
func readRecords[T any](r io.Reader, what string, numFields int, unmarshal func([]string) (T, error)) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV: %w", what, err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var out []T
	for i, rec := range records[1:] {
		v, err := unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, v)
	}
	return out, nil
}
