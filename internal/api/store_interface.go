package api

import (
	"github.com/soaringjerry/Scamwatch/internal/alerts"
	"github.com/soaringjerry/Scamwatch/internal/services"
)

// Store is everything the HTTP layer persists. The in-memory store below and
// db.SQLiteStore both implement it; each service sees only its own slice.
type Store interface {
	services.ReportStore
	services.LookupStore
	services.DisputeStore
	services.ModerationStore
	services.SweepStore
	services.AuthStore
	services.VerificationStore
	alerts.Store

	ListAlerts(limit int) ([]*services.Alert, error)
}

var _ Store = (*memoryStore)(nil)
