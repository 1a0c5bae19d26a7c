// Package ledger keeps stored account and savings-fund balances consistent
// with the movements that produced them.
//
// Two paths write the same stored balance. ApplyAccountDelta is the O(1) path
// taken when a single transaction changes; ReconcileAccount recomputes the
// balance from the account's initial balance plus every paid transaction and
// corrects any drift. Both derive signs from SignFor, so a credit card (whose
// balance is money owed) moves the opposite way from a debit-like account.
package ledger
