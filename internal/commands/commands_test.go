package commands

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/sqlstore"
)

func runTally(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func initRepo(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runTally(t, append([]string{"init", dir}, extra...)...)
	require.NoError(t, err)
	return dir
}

func writeImport(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", name), []byte(contents), 0o644))
}

const (
	accountsCSV = "account_id,user_id,name,type,initial_balance,credit_limit,archived\n" +
		"card,u1,Visa,credit_card,0,5000,false\n" +
		"chk,u1,Checking,checking,1000,,false\n"
	fundsCSV        = "fund_id,user_id,name,target_amount\nf1,u1,Holiday,20000\n"
	transactionsCSV = "transaction_id,account_id,date,type,base_amount,is_paid,description\n" +
		"t1,card,2025-01-03,expense,300,true,Groceries\n" +
		"t2,card,2025-01-05,income,50,true,Refund\n" +
		"t3,chk,2025-01-06,expense,400,true,Rent\n"
	movementsCSV = "movement_id,fund_id,date,type,amount,note\n" +
		"m1,f1,2025-02-01,deposit,10000,\n" +
		"m2,f1,2025-02-02,deposit,5000,\n" +
		"m3,f1,2025-02-03,withdrawal,2000,\n"
)

func importedRepo(t *testing.T) string {
	t.Helper()
	dir := initRepo(t)
	writeImport(t, dir, "accounts.csv", accountsCSV)
	writeImport(t, dir, "funds.csv", fundsCSV)
	writeImport(t, dir, "transactions.csv", transactionsCSV)
	writeImport(t, dir, "movements.csv", movementsCSV)

	out, err := runTally(t, "--repo", dir, "import")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 2 accounts, 1 funds, 3 transactions, 3 movements")
	return dir
}

// corrupt overwrites a stored balance behind the engine's back.
func corrupt(t *testing.T, dir, accountID, balance string) {
	t.Helper()
	s, err := sqlstore.Open(store.DriverSQLite, filepath.Join(dir, "data", "tally.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.SetAccountBalance(context.Background(), accountID, decimalOf(t, balance)))
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initRepo(t)

	for _, d := range []string{"data", "logs", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)

	_, err = os.Stat(filepath.Join(dir, "data", "tally.db"))
	assert.NoError(t, err, "schema created")
}

func TestInit_PostgresNeedsDSN(t *testing.T) {
	_, err := runTally(t, "init", t.TempDir(), "--driver", store.DriverPostgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a dsn")
}

func TestInit_Bolt(t *testing.T) {
	dir := initRepo(t, "--driver", store.DriverBolt)
	_, err := os.Stat(filepath.Join(dir, "data", "tally.bolt"))
	require.NoError(t, err)

	out, err := runTally(t, "--repo", dir, "accounts", "--user", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "BALANCE")
}

func TestInit_GitAutoCommit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := initRepo(t, "--git")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.True(t, cfg.Git.AutoCommit)

	writeImport(t, dir, "accounts.csv", accountsCSV)
	out, err := runTally(t, "--repo", dir, "import")
	require.NoError(t, err, out)
	corrupt(t, dir, "chk", "999")
	out, err = runTally(t, "--repo", dir, "reconcile", "all", "--user", "u1")
	require.NoError(t, err, out)

	log, err := exec.Command("git", "-C", dir, "log", "--format=%s|%an").Output()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(log)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "tally: reconcile_account, reconcile_all (2 entries)|Tally", lines[0])
	assert.Equal(t, "tally: import (1 entries)|Tally", lines[1])
	assert.Equal(t, "init: tally repo|Tally", lines[2])

	status, err := exec.Command("git", "-C", dir, "status", "--porcelain", "--", "logs").Output()
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(status)))
}

func TestImportAndList(t *testing.T) {
	dir := importedRepo(t)

	out, err := runTally(t, "--repo", dir, "accounts", "--user", "u1")
	require.NoError(t, err)
	assert.Regexp(t, `card\s+Visa\s+credit_card\s+250\.00\s+4750\.00\s+false`, out)
	assert.Regexp(t, `chk\s+Checking\s+checking\s+600\.00\s+-\s+false`, out)

	out, err = runTally(t, "--repo", dir, "funds", "--user", "u1")
	require.NoError(t, err)
	assert.Regexp(t, `f1\s+Holiday\s+13000\.00\s+20000\.00`, out)

	out, err = runTally(t, "--repo", dir, "import")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to import")
}

func TestAccounts_Export(t *testing.T) {
	dir := importedRepo(t)

	out, err := runTally(t, "--repo", dir, "accounts", "--user", "u1", "--export")
	require.NoError(t, err)
	assert.Contains(t, out, "account_id,user_id,name,type,initial_balance,credit_limit,archived\n")
	assert.Contains(t, out, "card,u1,Visa,credit_card,0,5000,false\n")
}

func TestCheckAndReconcileAccount(t *testing.T) {
	dir := importedRepo(t)

	out, err := runTally(t, "--repo", dir, "check", "card")
	require.NoError(t, err)
	assert.Contains(t, out, "in sync")

	corrupt(t, dir, "card", "0")

	out, err = runTally(t, "--repo", dir, "check", "card")
	require.ErrorIs(t, err, errDrift)
	assert.Contains(t, out, "drift:    -250.00")

	out, err = runTally(t, "--repo", dir, "reconcile", "account", "card")
	require.NoError(t, err)
	assert.Contains(t, out, "card: 0.00 -> 250.00 (corrected)")

	_, err = runTally(t, "--repo", dir, "check", "card")
	require.NoError(t, err)
}

func TestCheck_UnknownAccount(t *testing.T) {
	dir := initRepo(t)
	_, err := runTally(t, "--repo", dir, "check", "ghost")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestApply(t *testing.T) {
	dir := importedRepo(t)

	out, err := runTally(t, "--repo", dir, "apply", "chk", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "chk: 600.00 -> 700.00 (adjusted 100.00)")

	out, err = runTally(t, "--repo", dir, "apply", "--", "card", "-50")
	require.NoError(t, err)
	assert.Contains(t, out, "card: 250.00 -> 300.00 (adjusted 50.00)", "an expense raises what the card owes")

	_, err = runTally(t, "--repo", dir, "apply", "ghost", "1")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	_, err = runTally(t, "--repo", dir, "apply", "chk", "a lot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing delta")

	_, err = runTally(t, "--repo", dir, "apply", "chk", "0.000001")
	assert.ErrorIs(t, err, ledger.ErrDeltaScale)
	out, err = runTally(t, "--repo", dir, "accounts", "--user", "u1")
	require.NoError(t, err)
	assert.Regexp(t, `chk\s+Checking\s+checking\s+700\.00\s`, out, "rejected delta wrote nothing")
}

func TestReconcileAll(t *testing.T) {
	dir := importedRepo(t)
	corrupt(t, dir, "chk", "9999")

	out, err := runTally(t, "--repo", dir, "reconcile", "all", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "chk: 9999.00 -> 600.00 (corrected)")
	assert.Contains(t, out, "card: 250.00 -> 250.00\n")
	assert.Contains(t, out, "Reconciled 2 of 2 accounts")
}

func TestReconcileFund(t *testing.T) {
	dir := importedRepo(t)

	out, err := runTally(t, "--repo", dir, "reconcile", "fund", "f1")
	require.NoError(t, err)
	assert.Contains(t, out, "f1: 13000.00 -> 13000.00")

	_, err = runTally(t, "--repo", dir, "reconcile", "fund", "ghost")
	assert.ErrorIs(t, err, ledger.ErrFundNotFound)
}

func TestAuditLog(t *testing.T) {
	dir := importedRepo(t)
	_, err := runTally(t, "--repo", dir, "apply", "chk", "25")
	require.NoError(t, err)
	_, err = runTally(t, "--repo", dir, "reconcile", "account", "chk")
	require.NoError(t, err)

	entries, err := auditlog.Read(filepath.Join(dir, "logs", "reconcile-log.csv"))
	require.NoError(t, err)

	var ops []string
	for _, e := range entries {
		ops = append(ops, e.Operation)
	}
	assert.Equal(t, []string{
		auditlog.OpImport, auditlog.OpImport, auditlog.OpImport, auditlog.OpImport,
		auditlog.OpApply, auditlog.OpReconcileAccount,
	}, ops)

	apply := entries[4]
	assert.Equal(t, "chk", apply.Target)
	assert.Equal(t, "600", apply.Previous.Decimal.String())
	assert.Equal(t, "625", apply.Balance.Decimal.String())

	rec := entries[5]
	assert.Equal(t, "625", rec.Previous.Decimal.String())
	assert.Equal(t, "600", rec.Balance.Decimal.String())
	assert.Equal(t, "drift corrected", rec.Details)
}

func TestRuntime_MissingConfig(t *testing.T) {
	_, err := runTally(t, "--repo", t.TempDir(), "accounts", "--user", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestRuntime_EnvOverride(t *testing.T) {
	dir := initRepo(t)
	t.Setenv(config.EnvLogLevel, "verbose")

	_, err := runTally(t, "--repo", dir, "accounts", "--user", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(config.LogConfig{Level: "warn", Format: config.FormatJSON}, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.WithField("account_id", "a").Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"account_id":"a"`)
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestVersion(t *testing.T) {
	out, err := runTally(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit none, built unknown)")
}
