package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/model"
)

// Format names.
const (
	FormatAccounts     = "accounts"
	FormatFunds        = "funds"
	FormatTransactions = "transactions"
	FormatMovements    = "movements"
)

const dateFormat = "2006-01-02"

// AccountsParser reads account files; see accounts.Header.
type AccountsParser struct{}

// Format returns the parser name.
func (p *AccountsParser) Format() string { return FormatAccounts }

// Header returns the expected header row.
func (p *AccountsParser) Header() string { return accounts.Header }

// Parse reads accounts.
func (p *AccountsParser) Parse(r io.Reader) (Batch, error) {
	accts, err := accounts.ReadAccounts(r)
	if err != nil {
		return Batch{}, err
	}
	return Batch{Accounts: accts}, nil
}

// FundsParser reads savings fund files.
type FundsParser struct{}

const (
	fundsHeader    = "fund_id,user_id,name,target_amount"
	fundsNumFields = 4
	fundColID      = 0
	fundColUserID  = 1
	fundColName    = 2
	fundColTarget  = 3
)

// Format returns the parser name.
func (p *FundsParser) Format() string { return FormatFunds }

// Header returns the expected header row.
func (p *FundsParser) Header() string { return fundsHeader }

// Parse reads savings funds.
func (p *FundsParser) Parse(r io.Reader) (Batch, error) {
	funds, err := readRecords(r, "funds", fundsNumFields, parseFundRow)
	if err != nil {
		return Batch{}, err
	}
	return Batch{Funds: funds}, nil
}

func parseFundRow(rec []string) (model.SavingsFund, error) {
	fund := model.SavingsFund{
		ID:     strings.TrimSpace(rec[fundColID]),
		UserID: strings.TrimSpace(rec[fundColUserID]),
		Name:   rec[fundColName],
	}
	if s := strings.TrimSpace(rec[fundColTarget]); s != "" {
		target, err := decimal.NewFromString(s)
		if err != nil {
			return model.SavingsFund{}, fmt.Errorf("parsing target_amount %q: %w", s, err)
		}
		fund.TargetAmount = &target
	}
	return fund, nil
}

// TransactionsParser reads transaction files.
type TransactionsParser struct{}

const (
	txnHeader     = "transaction_id,account_id,date,type,base_amount,is_paid,description"
	txnNumFields  = 7
	txnColID      = 0
	txnColAccount = 1
	txnColDate    = 2
	txnColType    = 3
	txnColAmount  = 4
	txnColPaid    = 5
	txnColDesc    = 6
)

// Format returns the parser name.
func (p *TransactionsParser) Format() string { return FormatTransactions }

// Header returns the expected header row.
func (p *TransactionsParser) Header() string { return txnHeader }

// Parse reads transactions.
func (p *TransactionsParser) Parse(r io.Reader) (Batch, error) {
	txns, err := readRecords(r, "transactions", txnNumFields, parseTransactionRow)
	if err != nil {
		return Batch{}, err
	}
	return Batch{Transactions: txns}, nil
}

func parseTransactionRow(rec []string) (model.Transaction, error) {
	date, err := time.Parse(dateFormat, strings.TrimSpace(rec[txnColDate]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rec[txnColDate], err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[txnColAmount]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing base_amount %q: %w", rec[txnColAmount], err)
	}

	var paid bool
	if s := strings.TrimSpace(rec[txnColPaid]); s != "" {
		paid, err = strconv.ParseBool(s)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing is_paid %q: %w", s, err)
		}
	}

	return model.Transaction{
		ID:          strings.TrimSpace(rec[txnColID]),
		AccountID:   strings.TrimSpace(rec[txnColAccount]),
		Type:        model.TransactionType(strings.TrimSpace(rec[txnColType])),
		BaseAmount:  amount,
		IsPaid:      paid,
		Date:        date,
		Description: rec[txnColDesc],
	}, nil
}

// MovementsParser reads savings movement files.
type MovementsParser struct{}

const (
	movementsHeader   = "movement_id,fund_id,date,type,amount,note"
	movementNumFields = 6
	mvColID           = 0
	mvColFund         = 1
	mvColDate         = 2
	mvColType         = 3
	mvColAmount       = 4
	mvColNote         = 5
)

// Format returns the parser name.
func (p *MovementsParser) Format() string { return FormatMovements }

// Header returns the expected header row.
func (p *MovementsParser) Header() string { return movementsHeader }

// Parse reads savings movements.
func (p *MovementsParser) Parse(r io.Reader) (Batch, error) {
	mvs, err := readRecords(r, "movements", movementNumFields, parseMovementRow)
	if err != nil {
		return Batch{}, err
	}
	return Batch{Movements: mvs}, nil
}

func parseMovementRow(rec []string) (model.SavingsMovement, error) {
	date, err := time.Parse(dateFormat, strings.TrimSpace(rec[mvColDate]))
	if err != nil {
		return model.SavingsMovement{}, fmt.Errorf("parsing date %q: %w", rec[mvColDate], err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[mvColAmount]))
	if err != nil {
		return model.SavingsMovement{}, fmt.Errorf("parsing amount %q: %w", rec[mvColAmount], err)
	}

	return model.SavingsMovement{
		ID:     strings.TrimSpace(rec[mvColID]),
		FundID: strings.TrimSpace(rec[mvColFund]),
		Type:   model.MovementType(strings.TrimSpace(rec[mvColType])),
		Amount: amount,
		Date:   date,
		Note:   rec[mvColNote],
	}, nil
}
