package services

import (
	"testing"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/trust"
)

func TestAnalyticsSummary(t *testing.T) {
	store := newStubStore()
	a := seedReport(store, "a", "254712345678", 2*time.Hour, trust.TierCorroborated)
	a.ScamType = trust.ScamMpesa
	a.AmountLost = 1000
	seedReport(store, "b", "254712345678", 26*time.Hour, trust.TierUnverified)
	c := seedReport(store, "c", "400200", 3*24*time.Hour, trust.TierVerified)
	c.AmountLost = 500
	seedReport(store, "old", "400200", 40*24*time.Hour, trust.TierCorroborated)
	seedReport(store, "lapsed", "400201", 100*24*time.Hour, trust.TierUnverified)
	hidden := seedReport(store, "hidden", "400202", time.Hour, trust.TierVerified)
	hidden.Hidden = true

	svc := NewAnalyticsService(store)
	svc.now = fixedNow
	sum, err := svc.Summary(7)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalReports != 4 || sum.Identifiers != 2 {
		t.Fatalf("totals=%d identifiers=%d", sum.TotalReports, sum.Identifiers)
	}
	if sum.TotalAmountLost != 1500 {
		t.Fatalf("amount=%v", sum.TotalAmountLost)
	}
	if sum.Histogram[0] != 1 || sum.Histogram[1] != 2 || sum.Histogram[2] != 1 {
		t.Fatalf("histogram=%v", sum.Histogram)
	}
	if len(sum.ByScamType) != 2 || sum.ByScamType[0].ScamType != string(trust.ScamMpesa) || sum.ByScamType[1].Reports != 3 {
		t.Fatalf("by type=%+v", sum.ByScamType)
	}
	if len(sum.Timeseries) != 7 || sum.Timeseries[6].Date != "2025-06-01" {
		t.Fatalf("timeseries=%v", sum.Timeseries)
	}
	total := 0
	for _, p := range sum.Timeseries {
		total += p.Count
	}
	// "old" falls outside the window
	if total != 3 || sum.Timeseries[6].Count != 1 || sum.Timeseries[5].Count != 1 {
		t.Fatalf("timeseries counts=%v", sum.Timeseries)
	}
}

func TestAnalyticsSummaryClampsDays(t *testing.T) {
	svc := NewAnalyticsService(newStubStore())
	svc.now = fixedNow
	sum, err := svc.Summary(0)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Days != 30 || len(sum.Timeseries) != 30 || sum.TotalReports != 0 {
		t.Fatalf("unexpected empty summary %+v", sum)
	}
	if sum, _ := svc.Summary(1000); sum.Days != 365 {
		t.Fatalf("days=%d, want 365", sum.Days)
	}
}
