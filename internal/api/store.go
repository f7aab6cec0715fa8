package api

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/services"
	"github.com/soaringjerry/Scamwatch/internal/trust"
)

// memoryStore keeps everything in maps. Used by tests and when no database
// path is configured.
type memoryStore struct {
	mu        sync.RWMutex
	reports   []*services.Report
	byID      map[string]*services.Report
	disputes  map[string]*services.Dispute
	official  map[string][]*services.OfficialSource
	verified  map[string]time.Time
	otps      map[string]*services.OTP
	admins    map[string]*services.Admin
	alerts    map[string]*services.Alert
	alertList []*services.Alert
	audit     []services.AuditEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		byID:     map[string]*services.Report{},
		disputes: map[string]*services.Dispute{},
		official: map[string][]*services.OfficialSource{},
		verified: map[string]time.Time{},
		otps:     map[string]*services.OTP{},
		admins:   map[string]*services.Admin{},
		alerts:   map[string]*services.Alert{},
	}
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store { return newMemoryStore() }

func copyReport(r *services.Report) *services.Report {
	cp := *r
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		cp.ExpiresAt = &t
	}
	return &cp
}

func (s *memoryStore) InsertReport(r *services.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; ok {
		return services.NewConflictError("report exists")
	}
	cp := copyReport(r)
	s.reports = append(s.reports, cp)
	s.byID[cp.ID] = cp
	return nil
}

func (s *memoryStore) ListReportsByIdentifier(identifier string) ([]*services.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.Report
	for _, r := range s.reports {
		if r.Identifier == identifier && !r.Hidden {
			out = append(out, copyReport(r))
		}
	}
	return out, nil
}

func (s *memoryStore) UpdateReportTier(id string, tier trust.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.byID[id]; ok && r.Tier < tier {
		r.Tier = tier
	}
	return nil
}

func (s *memoryStore) ListRecentReports(limit int) ([]*services.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Report, 0, limit)
	for i := len(s.reports) - 1; i >= 0 && len(out) < limit; i-- {
		r := s.reports[i]
		if r.Hidden || r.IsExpired {
			continue
		}
		out = append(out, copyReport(r))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) SearchIdentifiers(query string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, r := range s.reports {
		if r.Hidden || seen[r.Identifier] || !strings.Contains(r.Identifier, query) {
			continue
		}
		seen[r.Identifier] = true
		out = append(out, r.Identifier)
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) MarkReportsExpired(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if r, ok := s.byID[id]; ok {
			r.IsExpired = true
		}
	}
	return nil
}

func (s *memoryStore) ListUnexpiredReports() ([]*services.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.Report
	for _, r := range s.reports {
		if !r.IsExpired {
			out = append(out, copyReport(r))
		}
	}
	return out, nil
}

func (s *memoryStore) ListReports(f services.ReportFilter) ([]*services.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.Report
	for i := len(s.reports) - 1; i >= 0; i-- {
		r := s.reports[i]
		if r.Hidden && !f.IncludeHidden {
			continue
		}
		if f.Identifier != "" && r.Identifier != f.Identifier {
			continue
		}
		if f.ScamType != "" && r.ScamType != f.ScamType {
			continue
		}
		out = append(out, copyReport(r))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *memoryStore) SetReportHidden(id string, hidden bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	r.Hidden = hidden
	return true, nil
}

func (s *memoryStore) PromoteIdentifier(identifier string, tier trust.Tier) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reports {
		if r.Identifier == identifier && !r.IsExpired && r.Tier < tier {
			r.Tier = tier
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) AddOfficialSource(src *services.OfficialSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *src
	s.official[src.Identifier] = append(s.official[src.Identifier], &cp)
	return nil
}

func (s *memoryStore) HasOfficialSource(identifier string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.official[identifier]) > 0, nil
}

func (s *memoryStore) IsPhoneVerified(phoneHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.verified[phoneHash]
	return ok, nil
}

func (s *memoryStore) MarkPhoneVerified(phoneHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[phoneHash] = at
	return nil
}

func (s *memoryStore) GetOTP(phoneHash string) (*services.OTP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.otps[phoneHash]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *memoryStore) PutOTP(o *services.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.otps[o.PhoneHash] = &cp
	return nil
}

func (s *memoryStore) DeleteOTP(phoneHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.otps, phoneHash)
	return nil
}

func (s *memoryStore) InsertDispute(d *services.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.disputes[d.ID] = &cp
	return nil
}

func (s *memoryStore) GetDispute(id string) (*services.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.disputes[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *memoryStore) UpdateDispute(d *services.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disputes[d.ID]; !ok {
		return services.NewNotFoundError("dispute not found")
	}
	cp := *d
	s.disputes[d.ID] = &cp
	return nil
}

func (s *memoryStore) ListDisputes(status services.DisputeStatus) ([]*services.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Dispute{}
	for _, d := range s.disputes {
		if status == "" || d.Status == status {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) HasOpenDisputes(identifier string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.disputes {
		if d.Identifier == identifier && (d.Status == services.DisputePending || d.Status == services.DisputeUpheld) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) FindAdminByEmail(email string) (*services.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *memoryStore) AddAdmin(a *services.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(a.Email)
	if _, ok := s.admins[key]; ok {
		return services.NewConflictError("email exists")
	}
	cp := *a
	s.admins[key] = &cp
	return nil
}

func (s *memoryStore) CountAdmins() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins), nil
}

func (s *memoryStore) HasAlert(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.alerts[id]
	return ok, nil
}

func (s *memoryStore) InsertAlert(a *services.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[a.ID]; ok {
		return nil
	}
	cp := *a
	s.alerts[a.ID] = &cp
	s.alertList = append(s.alertList, &cp)
	return nil
}

func (s *memoryStore) ListAlerts(limit int) ([]*services.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Alert, 0, len(s.alertList))
	for _, a := range s.alertList {
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
}

// ListAudit returns the newest limit entries, newest first.
func (s *memoryStore) ListAudit(limit int) ([]services.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, 0, limit)
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}
