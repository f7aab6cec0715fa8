package services

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/trust"
)

func readCSV(b []byte) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(string(b)))
	return r.ReadAll()
}

func TestExportReportsCSV(t *testing.T) {
	rows := []ReportRow{
		{ID: "r1", Identifier: "254712345678", Kind: "phone", ScamType: "mpesa", Tier: 2, AmountLost: 1200.5, CreatedAt: testNow, Description: "=HYPERLINK(\"http://x\")"},
		{ID: "r2", Identifier: "400200", Kind: "paybill", ScamType: "jobs", Tier: 1, CreatedAt: testNow, Description: "fee, then \"silence\""},
	}
	b, err := ExportReportsCSV(rows)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("want 3 rows, got %d", len(recs))
	}
	if got := strings.Join(recs[0], ","); got != "id,identifier,kind,scam_type,tier,evidence_score,amount_lost,reporter_verified,hidden,expired,created_at,description" {
		t.Fatalf("bad header: %s", got)
	}
	if recs[1][6] != "1200.50" || recs[1][10] != "2025-06-01T12:00:00Z" {
		t.Fatalf("bad row: %v", recs[1])
	}
	if !strings.HasPrefix(recs[1][11], "'=") {
		t.Fatalf("formula not neutralized: %q", recs[1][11])
	}
	if recs[2][11] != "fee, then \"silence\"" {
		t.Fatalf("quoting lost: %q", recs[2][11])
	}
}

func TestExportServiceFormats(t *testing.T) {
	store := newStubStore()
	a := seedReport(store, "a", "254712345678", 2*time.Hour, trust.TierCorroborated)
	a.AmountLost = 300
	seedReport(store, "b", "254712345678", 48*time.Hour, trust.TierUnverified)
	seedReport(store, "lapsed", "400200", 100*24*time.Hour, trust.TierUnverified)
	h := seedReport(store, "h", "400201", time.Hour, trust.TierVerified)
	h.Hidden = true
	store.disputes["d1"] = &Dispute{ID: "d1", Identifier: "254712345678", Status: DisputePending}

	svc := NewExportService(store)
	svc.now = fixedNow

	res, err := svc.ExportCSV(ExportParams{})
	if err != nil {
		t.Fatalf("reports export: %v", err)
	}
	if res.Filename != "reports-20250601.csv" || !strings.HasPrefix(res.ContentType, "text/csv") {
		t.Fatalf("unexpected result %s %s", res.Filename, res.ContentType)
	}
	recs, _ := readCSV(res.Data)
	if len(recs) != 4 {
		t.Fatalf("want header + 3 visible reports, got %d", len(recs))
	}
	if recs[1][0] != "lapsed" || recs[1][9] != "true" {
		t.Fatalf("oldest report should come first and be marked expired: %v", recs[1])
	}

	res, err = svc.ExportCSV(ExportParams{Format: "summary", IncludeHidden: true})
	if err != nil {
		t.Fatalf("summary export: %v", err)
	}
	recs, _ = readCSV(res.Data)
	if len(recs) != 3 {
		t.Fatalf("want header + 2 identifiers, got %v", recs)
	}
	if recs[1][0] != "254712345678" || recs[1][3] != "2" || recs[1][6] != "true" {
		t.Fatalf("bad phone summary %v", recs[1])
	}
	if recs[2][0] != "400200" || recs[2][1] != string(trust.ConcernNoReports) {
		t.Fatalf("lapsed identifier should have no active reports: %v", recs[2])
	}

	if _, err := svc.ExportCSV(ExportParams{Format: "xml"}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := svc.ExportCSV(ExportParams{ScamType: "lottery"}); err == nil {
		t.Fatalf("expected unknown scam type error")
	}
}
