package testsupport

import (
	"testing"

	"captionify/internal/assets"
	"captionify/internal/config"
)

// MustOpenLedger opens an assets.Ledger for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *assets.Ledger {
	t.Helper()

	ledger, err := assets.Open(cfg)
	if err != nil {
		t.Fatalf("assets.Open: %v", err)
	}
	t.Cleanup(func() {
		ledger.Close()
	})
	return ledger
}
