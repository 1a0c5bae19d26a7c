package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// SignFor returns +1 or -1: the direction a transaction of txnType moves the
// stored balance of an account of acctType.
//
//	               income  expense
//	debit-like       +1      -1
//	credit_card      -1      +1
func SignFor(acctType model.AccountType, txnType model.TransactionType) int {
	sign := 1
	if txnType == model.TransactionExpense {
		sign = -1
	}
	if acctType.IsCreditCard() {
		sign = -sign
	}
	return sign
}

func signedFor(acctType model.AccountType, txnType model.TransactionType, amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(SignFor(acctType, txnType))))
}

// Contribution is what txn adds to its account in the debit-like convention
// ApplyAccountDelta expects: +amount for income, -amount for expense, zero
// when the transaction is unpaid or has no account.
func Contribution(txn model.Transaction) decimal.Decimal {
	if !txn.IsPaid || txn.AccountID == "" {
		return decimal.Zero
	}
	return signedFor(model.AccountTypeChecking, txn.Type, txn.BaseAmount)
}
