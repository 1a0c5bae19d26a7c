package ledger

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

var (
	// ErrAccountNotFound is returned by the reconciler for an unknown account.
	ErrAccountNotFound = fmt.Errorf("account not found: %w", store.ErrNotFound)
	// ErrFundNotFound is returned by the fund reconciler for an unknown fund.
	ErrFundNotFound = fmt.Errorf("savings fund not found: %w", store.ErrNotFound)
	// ErrDeltaScale is returned by ApplyAccountDelta for a delta no stored
	// amount could produce. It wraps model.ErrScale.
	ErrDeltaScale = fmt.Errorf("delta: %w", model.ErrScale)
)

// Outcome tells an ApplyAccountDelta caller what happened to the delta.
type Outcome string

const (
	// OutcomeApplied means the delta was added to the stored balance.
	OutcomeApplied Outcome = "applied"
	// OutcomeAccountMissing means the account did not exist and nothing was
	// written. It is not an error: a concurrent delete leaves nothing to update.
	OutcomeAccountMissing Outcome = "account_missing"
)

func notFound(sentinel error, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", id, sentinel)
	}
	return err
}
