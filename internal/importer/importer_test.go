package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&FundsParser{})
	p := r.Get("funds")
	require.NotNil(t, p)
	assert.Equal(t, "funds", p.Format())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&FundsParser{})
	assert.NotNil(t, r.Get("Funds"))
	assert.NotNil(t, r.Get("FUNDS"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&FundsParser{})
	assert.Panics(t, func() { r.Register(&FundsParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, format := range []string{FormatAccounts, FormatFunds, FormatTransactions, FormatMovements} {
		assert.NotNil(t, r.Get(format), format)
	}
}

func TestRegistry_Detect(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		header string
		want   string
	}{
		{"account_id,user_id,name,type,initial_balance,credit_limit,archived", FormatAccounts},
		{"fund_id,user_id,name,target_amount", FormatFunds},
		{"Transaction_ID, Account_ID, Date, Type, Base_Amount, Is_Paid, Description", FormatTransactions},
		{"\ufeffmovement_id,fund_id,date,type,amount,note", FormatMovements},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p := r.Detect(tt.header)
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.Format())
		})
	}

	assert.Nil(t, r.Detect("Details,Posting Date,Description,Amount"))
}

func TestParseFile_UnknownHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.csv")
	require.NoError(t, os.WriteFile(path, []byte("Details,Posting Date,Amount\nDEBIT,01/03/2025,-4.00\n"), 0o644))

	_, _, err := DefaultRegistry().ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized header")
}

func TestParseFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, _, err := DefaultRegistry().ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseFile_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "funds.csv")
	require.NoError(t, os.WriteFile(path, []byte(fundsHeader+"\n"), 0o644))

	p, batch, err := DefaultRegistry().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatFunds, p.Format())
	assert.Zero(t, batch.Len())
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "other.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "bank.csv", files[0].Name)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	processedDir := filepath.Join(importDir, "processed")
	require.NoError(t, os.MkdirAll(processedDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processedDir, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))

	err := MarkProcessed(dir, "bank.csv")
	require.NoError(t, err)

	// Source gone.
	_, err = os.Stat(filepath.Join(importDir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))

	// Destination exists.
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "bank.csv"))
	assert.NoError(t, err)
}

func TestMarkProcessed_CreatesDir(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "a.csv"), []byte("data"), 0o644))

	err := MarkProcessed(dir, "a.csv")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "import", "processed"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
