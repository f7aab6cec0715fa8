package services

import (
	"context"
	"strconv"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/logging"
	"github.com/soaringjerry/Scamwatch/internal/trust"
)

type SweepStore interface {
	ListUnexpiredReports() ([]*Report, error)
	MarkReportsExpired(ids []string) error
	AddAudit(entry AuditEntry)
}

type SweepService struct {
	store SweepStore
	now   func() time.Time
}

func NewSweepService(store SweepStore) *SweepService {
	return &SweepService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Sweep marks every report whose lifetime has passed as expired and returns
// how many were marked.
func (s *SweepService) Sweep() (int, error) {
	reports, err := s.store.ListUnexpiredReports()
	if err != nil {
		return 0, err
	}
	now := s.now()
	var due []string
	for _, r := range reports {
		if trust.ShouldExpire(r.Report, now) {
			due = append(due, r.ID)
		}
	}
	if len(due) == 0 {
		return 0, nil
	}
	if err := s.store.MarkReportsExpired(due); err != nil {
		return 0, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: "system", Action: "sweep", Note: strconv.Itoa(len(due)) + " expired"})
	return len(due), nil
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *SweepService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		n, err := s.Sweep()
		if err != nil {
			logging.Error("expiry sweep failed", "err", err)
		} else if n > 0 {
			logging.Info("expiry sweep", "expired", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}
