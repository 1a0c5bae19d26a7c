package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxScale is the number of decimal places stored amounts may carry.
const MaxScale = 4

// ErrScale is returned (wrapped) for an amount with more than MaxScale
// decimal places.
var ErrScale = errors.New("too many decimal places")

var scaleFactor = decimal.New(1, MaxScale)

// CheckScale returns an error wrapping ErrScale when d carries more than
// MaxScale decimal places. field names the amount in the message.
func CheckScale(field string, d decimal.Decimal) error {
	scaled := d.Mul(scaleFactor)
	if !scaled.Equal(scaled.Truncate(0)) {
		return fmt.Errorf("%s %s has more than %d decimal places: %w", field, d, MaxScale, ErrScale)
	}
	return nil
}
