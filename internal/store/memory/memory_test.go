package memory

import (
	"testing"

	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}
