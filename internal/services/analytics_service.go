package services

import (
	"sort"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/trust"
)

type AnalyticsStore interface {
	ListReports(f ReportFilter) ([]*Report, error)
}

type AnalyticsService struct {
	store AnalyticsStore
	now   func() time.Time
}

type ScamTypeCount struct {
	ScamType   string  `json:"scam_type"`
	Label      string  `json:"label"`
	Reports    int     `json:"reports"`
	AmountLost float64 `json:"amount_lost"`
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyticsSummary covers active, visible reports. Histogram[i] counts
// reports at tier i+1.
type AnalyticsSummary struct {
	TotalReports    int                   `json:"total_reports"`
	Identifiers     int                   `json:"identifiers"`
	TotalAmountLost float64               `json:"total_amount_lost"`
	Histogram       []int                 `json:"tier_histogram"`
	ByScamType      []ScamTypeCount       `json:"by_scam_type"`
	Timeseries      []AnalyticsTimeseries `json:"timeseries"`
	Days            int                   `json:"days"`
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// Summary aggregates every active report; the timeseries covers the last
// days days (default 30, at most 365) and includes empty days.
func (s *AnalyticsService) Summary(days int) (*AnalyticsSummary, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}
	reports, err := s.store.ListReports(ReportFilter{})
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	out := &AnalyticsSummary{
		Histogram: make([]int, int(trust.TierVerified)),
		Days:      days,
	}
	byType := map[trust.ScamType]*ScamTypeCount{}
	idents := map[string]struct{}{}
	countsByDay := map[string]int{}
	from := now.AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	for _, r := range reports {
		if r.Hidden || r.IsExpired || trust.ShouldExpire(r.Report, now) {
			continue
		}
		out.TotalReports++
		idents[r.Identifier] = struct{}{}
		if r.AmountLost > 0 {
			out.TotalAmountLost += r.AmountLost
		}
		if r.Tier.Valid() {
			out.Histogram[r.Tier-1]++
		}
		c := byType[r.ScamType]
		if c == nil {
			c = &ScamTypeCount{ScamType: string(r.ScamType), Label: r.ScamType.Label()}
			byType[r.ScamType] = c
		}
		c.Reports++
		if r.AmountLost > 0 {
			c.AmountLost += r.AmountLost
		}
		if day := r.CreatedAt.UTC().Format("2006-01-02"); day >= from {
			countsByDay[day]++
		}
	}
	out.Identifiers = len(idents)
	out.ByScamType = buildTypeCounts(byType)
	out.Timeseries = buildTimeseries(countsByDay, now, days)
	return out, nil
}

func buildTypeCounts(m map[trust.ScamType]*ScamTypeCount) []ScamTypeCount {
	out := make([]ScamTypeCount, 0, len(m))
	for _, t := range trust.ScamTypes {
		if c, ok := m[t]; ok {
			out = append(out, *c)
			delete(m, t)
		}
	}
	// categories stored before a type was retired
	rest := make([]string, 0, len(m))
	for t := range m {
		rest = append(rest, string(t))
	}
	sort.Strings(rest)
	for _, t := range rest {
		out = append(out, *m[trust.ScamType(t)])
	}
	return out
}

func buildTimeseries(counts map[string]int, now time.Time, days int) []AnalyticsTimeseries {
	out := make([]AnalyticsTimeseries, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}
