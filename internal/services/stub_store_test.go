package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/trust"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// stubStore is a minimal in-memory store satisfying every service interface.
type stubStore struct {
	reports  []*Report
	disputes map[string]*Dispute
	official map[string][]*OfficialSource
	verified map[string]time.Time
	otps     map[string]*OTP
	admins   map[string]*Admin
	audit    []AuditEntry
}

func newStubStore() *stubStore {
	return &stubStore{
		disputes: map[string]*Dispute{},
		official: map[string][]*OfficialSource{},
		verified: map[string]time.Time{},
		otps:     map[string]*OTP{},
		admins:   map[string]*Admin{},
	}
}

func (s *stubStore) ListReportsByIdentifier(ident string) ([]*Report, error) {
	var out []*Report
	for _, r := range s.reports {
		if r.Identifier == ident && !r.Hidden {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) InsertReport(r *Report) error {
	cp := *r
	s.reports = append(s.reports, &cp)
	return nil
}

func (s *stubStore) find(id string) *Report {
	for _, r := range s.reports {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *stubStore) UpdateReportTier(id string, tier trust.Tier) error {
	if r := s.find(id); r != nil && r.Tier < tier {
		r.Tier = tier
	}
	return nil
}

func (s *stubStore) HasOfficialSource(ident string) (bool, error) {
	return len(s.official[ident]) > 0, nil
}

func (s *stubStore) IsPhoneVerified(h string) (bool, error) {
	_, ok := s.verified[h]
	return ok, nil
}

func (s *stubStore) AddAudit(e AuditEntry) { s.audit = append(s.audit, e) }

func (s *stubStore) ListRecentReports(limit int) ([]*Report, error) {
	var out []*Report
	for _, r := range s.reports {
		if !r.Hidden && !r.IsExpired {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubStore) SearchIdentifiers(q string, limit int) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, r := range s.reports {
		if r.Hidden || seen[r.Identifier] || !strings.Contains(r.Identifier, q) {
			continue
		}
		seen[r.Identifier] = true
		out = append(out, r.Identifier)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubStore) MarkReportsExpired(ids []string) error {
	for _, id := range ids {
		if r := s.find(id); r != nil {
			r.IsExpired = true
		}
	}
	return nil
}

func (s *stubStore) HasOpenDisputes(ident string) (bool, error) {
	for _, d := range s.disputes {
		if d.Identifier == ident && (d.Status == DisputePending || d.Status == DisputeUpheld) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) ListUnexpiredReports() ([]*Report, error) {
	var out []*Report
	for _, r := range s.reports {
		if !r.IsExpired {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) InsertDispute(d *Dispute) error {
	cp := *d
	s.disputes[d.ID] = &cp
	return nil
}

func (s *stubStore) GetDispute(id string) (*Dispute, error) {
	d, ok := s.disputes[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *stubStore) UpdateDispute(d *Dispute) error {
	cp := *d
	s.disputes[d.ID] = &cp
	return nil
}

func (s *stubStore) ListDisputes(status DisputeStatus) ([]*Dispute, error) {
	var out []*Dispute
	for _, d := range s.disputes {
		if status == "" || d.Status == status {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) ListReports(f ReportFilter) ([]*Report, error) {
	var out []*Report
	for _, r := range s.reports {
		if r.Hidden && !f.IncludeHidden {
			continue
		}
		if f.Identifier != "" && r.Identifier != f.Identifier {
			continue
		}
		if f.ScamType != "" && r.ScamType != f.ScamType {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubStore) SetReportHidden(id string, hidden bool) (bool, error) {
	r := s.find(id)
	if r == nil {
		return false, nil
	}
	r.Hidden = hidden
	return true, nil
}

func (s *stubStore) AddOfficialSource(src *OfficialSource) error {
	s.official[src.Identifier] = append(s.official[src.Identifier], src)
	return nil
}

func (s *stubStore) PromoteIdentifier(ident string, tier trust.Tier) (int, error) {
	n := 0
	for _, r := range s.reports {
		if r.Identifier == ident && !r.IsExpired && r.Tier < tier {
			r.Tier = tier
			n++
		}
	}
	return n, nil
}

func (s *stubStore) ListAudit(limit int) ([]AuditEntry, error) {
	var out []AuditEntry
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

func (s *stubStore) GetOTP(h string) (*OTP, error) {
	o, ok := s.otps[h]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *stubStore) PutOTP(o *OTP) error {
	cp := *o
	s.otps[o.PhoneHash] = &cp
	return nil
}

func (s *stubStore) DeleteOTP(h string) error {
	delete(s.otps, h)
	return nil
}

func (s *stubStore) MarkPhoneVerified(h string, at time.Time) error {
	s.verified[h] = at
	return nil
}

func (s *stubStore) FindAdminByEmail(email string) (*Admin, error) {
	if a, ok := s.admins[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) AddAdmin(a *Admin) error {
	cp := *a
	s.admins[a.Email] = &cp
	return nil
}

func (s *stubStore) CountAdmins() (int, error) { return len(s.admins), nil }

// memSessions is a map-backed SessionStore that ignores TTLs.
type memSessions map[string][]byte

func (m memSessions) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memSessions) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m[key] = val
	return nil
}

func (m memSessions) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}
