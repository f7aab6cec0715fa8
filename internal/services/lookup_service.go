package services

import (
	"sort"
	"strings"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
	"github.com/soaringjerry/Scamwatch/internal/trust"
)

const (
	checkReportLimit   = 20
	defaultRecentLimit = 20
	maxListLimit       = 100
	minSearchLen       = 3
)

type LookupStore interface {
	ListReportsByIdentifier(identifier string) ([]*Report, error)
	ListRecentReports(limit int) ([]*Report, error)
	SearchIdentifiers(query string, limit int) ([]string, error)
	MarkReportsExpired(ids []string) error
	HasOpenDisputes(identifier string) (bool, error)
	HasOfficialSource(identifier string) (bool, error)
}

type LookupService struct {
	store LookupStore
	now   func() time.Time
}

type CheckResult struct {
	Identifier     string           `json:"identifier"`
	Kind           string           `json:"kind"`
	Assessment     trust.Assessment `json:"assessment"`
	OfficialSource bool             `json:"official_source"`
	Reports        []ReportView     `json:"reports"`
}

type SearchHit struct {
	Identifier string           `json:"identifier"`
	Assessment trust.Assessment `json:"assessment"`
}

func NewLookupService(store LookupStore) *LookupService {
	return &LookupService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Check normalizes raw and summarizes the community reports for it.
func (s *LookupService) Check(raw string) (*CheckResult, error) {
	kind := identifier.Detect(raw)
	ident, err := identifier.Normalize(kind, raw)
	if err != nil {
		return nil, NewInvalidError("identifier is not valid")
	}
	now := s.now()
	reports, err := s.loadActive(ident, now)
	if err != nil {
		return nil, err
	}
	disputed, err := s.store.HasOpenDisputes(ident)
	if err != nil {
		return nil, err
	}
	official, err := s.store.HasOfficialSource(ident)
	if err != nil {
		return nil, err
	}

	res := &CheckResult{
		Identifier:     ident,
		Kind:           string(kind),
		Assessment:     trust.Assess(trustReports(reports), disputed, now),
		OfficialSource: official,
		Reports:        []ReportView{},
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	for _, r := range reports {
		if r.IsExpired || r.Hidden {
			continue
		}
		if len(res.Reports) == checkReportLimit {
			break
		}
		res.Reports = append(res.Reports, toReportView(r))
	}
	return res, nil
}

// loadActive reads the reports for ident and expires, in the store and in
// the returned slice, any whose lifetime has run out.
func (s *LookupService) loadActive(ident string, now time.Time) ([]*Report, error) {
	reports, err := s.store.ListReportsByIdentifier(ident)
	if err != nil {
		return nil, err
	}
	if err := expireLapsed(s.store, reports, now); err != nil {
		return nil, err
	}
	return reports, nil
}

type reportExpirer interface {
	MarkReportsExpired(ids []string) error
}

// expireLapsed flags every report in reports whose lifetime has run out as
// of now and persists the change. Reports already expired are left alone.
// Every path that reads reports before scoring or promoting them goes
// through here so a lapsed report never counts toward a tier.
func expireLapsed(store reportExpirer, reports []*Report, now time.Time) error {
	var due []string
	for _, r := range reports {
		if r.IsExpired || !trust.ShouldExpire(r.Report, now) {
			continue
		}
		r.IsExpired = true
		due = append(due, r.ID)
	}
	if len(due) == 0 {
		return nil
	}
	return store.MarkReportsExpired(due)
}

func (s *LookupService) Recent(limit int) ([]ReportView, error) {
	limit = clampLimit(limit, defaultRecentLimit)
	reports, err := s.store.ListRecentReports(limit)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ReportView, 0, len(reports))
	for _, r := range reports {
		if r.IsExpired || r.Hidden || trust.ShouldExpire(r.Report, now) {
			continue
		}
		out = append(out, toReportView(r))
	}
	return out, nil
}

func (s *LookupService) Search(query string, limit int) ([]SearchHit, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < minSearchLen {
		return nil, NewInvalidError("query must be at least 3 characters")
	}
	// phone numbers are stored normalized, so search on the normalized form too
	if p, err := identifier.NormalizePhone(q); err == nil {
		q = p
	}
	limit = clampLimit(limit, defaultRecentLimit)
	idents, err := s.store.SearchIdentifiers(q, limit)
	if err != nil {
		return nil, err
	}
	now := s.now()
	hits := make([]SearchHit, 0, len(idents))
	for _, ident := range idents {
		reports, err := s.loadActive(ident, now)
		if err != nil {
			return nil, err
		}
		disputed, err := s.store.HasOpenDisputes(ident)
		if err != nil {
			return nil, err
		}
		hits = append(hits, SearchHit{Identifier: ident, Assessment: trust.Assess(trustReports(reports), disputed, now)})
	}
	return hits, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
