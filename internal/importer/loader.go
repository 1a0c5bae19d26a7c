package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Lookup finds rows an earlier run may already have stored.
type Lookup interface {
	GetAccount(ctx context.Context, accountID string) (model.Account, error)
	GetFund(ctx context.Context, fundID string) (model.SavingsFund, error)
	GetTransaction(ctx context.Context, txnID string) (model.Transaction, error)
	GetMovement(ctx context.Context, movementID string) (model.SavingsMovement, error)
}

// Holders opens accounts and funds.
type Holders interface {
	Open(ctx context.Context, acct model.Account) (model.Account, error)
	OpenFund(ctx context.Context, fund model.SavingsFund) (model.SavingsFund, error)
}

// Recorder records transactions and movements, keeping balances current.
type Recorder interface {
	CreateTransaction(ctx context.Context, txn model.Transaction) (model.Transaction, error)
	RecordMovement(ctx context.Context, mv model.SavingsMovement) (model.SavingsMovement, error)
}

// FileResult reports one imported file.
type FileResult struct {
	Name   string
	Format string
	Rows   int
}

// Summary reports a whole import run.
type Summary struct {
	Files        []FileResult
	Accounts     int
	Funds        int
	Transactions int
	Movements    int
	Skipped      int
}

// Importer loads every CSV in a repo's import directory.
type Importer struct {
	registry *Registry
	lookup   Lookup
	holders  Holders
	recorder Recorder
	log      logrus.FieldLogger
}

// New creates an Importer. A nil registry means DefaultRegistry.
func New(registry *Registry, lookup Lookup, holders Holders, recorder Recorder, log logrus.FieldLogger) *Importer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{registry: registry, lookup: lookup, holders: holders, recorder: recorder, log: log}
}

type parsedFile struct {
	file   FileInfo
	parser Parser
	batch  Batch
}

// Run loads every CSV in <repoRoot>/import/. Every file is parsed first, so a
// malformed file aborts the run before anything is written. Files are then
// loaded in dependency order, and each one moves to import/processed/ once all
// its rows are stored. A row that fails to load stops the run and its file
// stays in import/.
//
// Rows already stored with identical contents are skipped, so a file left
// behind by a failed run can be fixed and imported again. A stored row with
// the same ID but different contents is a conflict.
func (im *Importer) Run(ctx context.Context, repoRoot string) (Summary, error) {
	files, err := Scan(repoRoot)
	if err != nil {
		return Summary{}, err
	}

	parsed := make([]parsedFile, 0, len(files))
	for _, f := range files {
		p, batch, err := im.registry.ParseFile(f.Path)
		if err != nil {
			return Summary{}, err
		}
		parsed = append(parsed, parsedFile{file: f, parser: p, batch: batch})
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		ri, rj := loadRank(parsed[i].parser.Format()), loadRank(parsed[j].parser.Format())
		if ri != rj {
			return ri < rj
		}
		return parsed[i].file.Name < parsed[j].file.Name
	})

	var sum Summary
	for _, pf := range parsed {
		if err := im.load(ctx, pf.batch, &sum); err != nil {
			return sum, fmt.Errorf("importing %s: %w", pf.file.Name, err)
		}
		if err := MarkProcessed(repoRoot, pf.file.Name); err != nil {
			return sum, err
		}
		sum.Files = append(sum.Files, FileResult{
			Name:   pf.file.Name,
			Format: pf.parser.Format(),
			Rows:   pf.batch.Len(),
		})
		im.log.WithFields(logrus.Fields{
			"file":   pf.file.Name,
			"format": pf.parser.Format(),
			"rows":   pf.batch.Len(),
		}).Info("imported file")
	}
	return sum, nil
}

func (im *Importer) load(ctx context.Context, b Batch, sum *Summary) error {
	for _, acct := range b.Accounts {
		stored, err := im.lookup.GetAccount(ctx, id.Normalize(acct.ID))
		skip, err := im.existing(acct.ID, err, sameAccount(stored, acct), sum)
		if err != nil {
			return fmt.Errorf("account %s: %w", acct.ID, err)
		}
		if skip {
			continue
		}
		if _, err := im.holders.Open(ctx, acct); err != nil {
			return fmt.Errorf("account %s: %w", acct.ID, err)
		}
		sum.Accounts++
	}
	for _, fund := range b.Funds {
		stored, err := im.lookup.GetFund(ctx, id.Normalize(fund.ID))
		skip, err := im.existing(fund.ID, err, sameFund(stored, fund), sum)
		if err != nil {
			return fmt.Errorf("fund %s: %w", fund.ID, err)
		}
		if skip {
			continue
		}
		if _, err := im.holders.OpenFund(ctx, fund); err != nil {
			return fmt.Errorf("fund %s: %w", fund.ID, err)
		}
		sum.Funds++
	}
	for _, txn := range b.Transactions {
		stored, err := im.lookup.GetTransaction(ctx, id.Normalize(txn.ID))
		skip, err := im.existing(txn.ID, err, sameTransaction(stored, txn), sum)
		if err != nil {
			return fmt.Errorf("transaction %s: %w", txn.ID, err)
		}
		if skip {
			continue
		}
		if _, err := im.recorder.CreateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("transaction %s: %w", txn.ID, err)
		}
		sum.Transactions++
	}
	for _, mv := range b.Movements {
		stored, err := im.lookup.GetMovement(ctx, id.Normalize(mv.ID))
		skip, err := im.existing(mv.ID, err, sameMovement(stored, mv), sum)
		if err != nil {
			return fmt.Errorf("movement %s: %w", mv.ID, err)
		}
		if skip {
			continue
		}
		if _, err := im.recorder.RecordMovement(ctx, mv); err != nil {
			return fmt.Errorf("movement %s: %w", mv.ID, err)
		}
		sum.Movements++
	}
	return nil
}

// existing interprets a lookup by row ID. It reports skip when the row is
// already stored as given, and an error when it is stored differently or the
// lookup failed. Rows without an ID always load.
func (im *Importer) existing(rowID string, lookupErr error, same bool, sum *Summary) (bool, error) {
	if rowID == "" || errors.Is(lookupErr, store.ErrNotFound) {
		return false, nil
	}
	if lookupErr != nil {
		return false, lookupErr
	}
	if !same {
		return false, fmt.Errorf("stored with different contents: %w", store.ErrConflict)
	}
	im.log.WithField("id", rowID).Debug("row already imported; skipping")
	sum.Skipped++
	return true, nil
}

func sameAccount(a, b model.Account) bool {
	return a.UserID == b.UserID && a.Name == b.Name && a.Type == b.Type &&
		a.InitialBalance.Equal(b.InitialBalance) && sameOptional(a.CreditLimit, b.CreditLimit) &&
		a.Archived == b.Archived
}

func sameFund(a, b model.SavingsFund) bool {
	return a.UserID == b.UserID && a.Name == b.Name && sameOptional(a.TargetAmount, b.TargetAmount)
}

func sameTransaction(a, b model.Transaction) bool {
	return a.AccountID == b.AccountID && a.Type == b.Type && a.BaseAmount.Equal(b.BaseAmount) &&
		a.IsPaid == b.IsPaid && a.Date.Format(dateFormat) == b.Date.Format(dateFormat) &&
		a.Description == b.Description
}

func sameMovement(a, b model.SavingsMovement) bool {
	return a.FundID == b.FundID && a.Type == b.Type && a.Amount.Equal(b.Amount) &&
		a.Date.Format(dateFormat) == b.Date.Format(dateFormat) && a.Note == b.Note
}

func sameOptional(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
