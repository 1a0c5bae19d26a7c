package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Header is the CSV header for account files.
const Header = "account_id,user_id,name,type,initial_balance,credit_limit,archived"

const (
	numFields      = 7
	colID          = 0
	colUserID      = 1
	colName        = 2
	colType        = 3
	colInitial     = 4
	colCreditLimit = 5
	colArchived    = 6
)

// ReadAccounts reads an account CSV. The current balance is not part of the
// file; callers open accounts at their initial balance.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts in the same format ReadAccounts reads.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colUserID] = acct.UserID
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colInitial] = acct.InitialBalance.String()
	if acct.CreditLimit != nil {
		row[colCreditLimit] = acct.CreditLimit.String()
	}
	row[colArchived] = strconv.FormatBool(acct.Archived)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	acct := model.Account{
		ID:     strings.TrimSpace(record[colID]),
		UserID: strings.TrimSpace(record[colUserID]),
		Name:   record[colName],
		Type:   model.AccountType(strings.TrimSpace(record[colType])),
	}

	if s := strings.TrimSpace(record[colInitial]); s != "" {
		initial, err := decimal.NewFromString(s)
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing initial_balance %q: %w", s, err)
		}
		acct.InitialBalance = initial
	}

	if s := strings.TrimSpace(record[colCreditLimit]); s != "" {
		limit, err := decimal.NewFromString(s)
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing credit_limit %q: %w", s, err)
		}
		acct.CreditLimit = &limit
	}

	if s := strings.TrimSpace(record[colArchived]); s != "" {
		archived, err := strconv.ParseBool(s)
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing archived %q: %w", s, err)
		}
		acct.Archived = archived
	}

	return acct, nil
}
