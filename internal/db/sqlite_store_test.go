package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
	"github.com/soaringjerry/Scamwatch/internal/services"
	"github.com/soaringjerry/Scamwatch/internal/trust"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "scamwatch.db"), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newReport(id, ident string, created time.Time) *services.Report {
	exp := created.Add(90 * 24 * time.Hour)
	return &services.Report{
		Report: trust.Report{
			ID:                id,
			Identifier:        ident,
			ScamType:          trust.ScamMpesa,
			Description:       "sent money for a fake refund",
			AmountLost:        1500,
			ReporterPhoneHash: "ph-" + id,
			ReporterIPHash:    "ip-" + id,
			CreatedAt:         created,
			Tier:              trust.TierUnverified,
			EvidenceScore:     20,
			ExpiresAt:         &exp,
		},
		IdentifierKind: identifier.KindPhone,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	st := openTestStore(t)
	if err := RunMigrations(st.db, ""); err != nil {
		t.Fatalf("second run: %v", err)
	}
	var n int
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("schema_migrations rows=%d, want 1", n)
	}
}

func TestReportRoundTripAndQueries(t *testing.T) {
	st := openTestStore(t)
	r1 := newReport("r1", "254712345678", testNow.Add(-2*time.Hour))
	r1.EvidenceURL = "https://example.com/shot.png"
	r1.ReporterVerified = true
	r2 := newReport("r2", "254712345678", testNow.Add(-time.Hour))
	r3 := newReport("r3", "400200", testNow)
	r3.IdentifierKind = identifier.KindPaybill
	r3.ExpiresAt = nil
	for _, r := range []*services.Report{r1, r2, r3} {
		if err := st.InsertReport(r); err != nil {
			t.Fatalf("insert %s: %v", r.ID, err)
		}
	}

	got, err := st.ListReportsByIdentifier("254712345678")
	if err != nil || len(got) != 2 {
		t.Fatalf("by identifier: %v len=%d", err, len(got))
	}
	if got[0].ID != "r1" || !got[0].ReporterVerified || got[0].EvidenceURL == "" {
		t.Fatalf("unexpected first report %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(r1.CreatedAt) || got[0].ExpiresAt == nil || !got[0].ExpiresAt.Equal(*r1.ExpiresAt) {
		t.Fatalf("timestamps not preserved: %+v", got[0])
	}
	if got[0].IdentifierKind != identifier.KindPhone {
		t.Fatalf("kind=%q", got[0].IdentifierKind)
	}

	recent, _ := st.ListRecentReports(2)
	if len(recent) != 2 || recent[0].ID != "r3" || recent[0].ExpiresAt != nil {
		t.Fatalf("recent=%v", recent)
	}

	hits, _ := st.SearchIdentifiers("7123", 10)
	if len(hits) != 1 || hits[0] != "254712345678" {
		t.Fatalf("search hits=%v", hits)
	}
	if hits, _ := st.SearchIdentifiers("%", 10); len(hits) != 0 {
		t.Fatalf("wildcard should be literal, got %v", hits)
	}

	if n, err := st.PromoteIdentifier("254712345678", trust.TierCorroborated); err != nil || n != 2 {
		t.Fatalf("promote n=%d err=%v", n, err)
	}
	if err := st.MarkReportsExpired([]string{"r1"}); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n, _ := st.PromoteIdentifier("254712345678", trust.TierVerified); n != 1 {
		t.Fatalf("expired report should not be promoted, n=%d", n)
	}
	active, _ := st.ListUnexpiredReports()
	if len(active) != 2 {
		t.Fatalf("unexpired=%d, want 2", len(active))
	}

	if ok, _ := st.SetReportHidden("r2", true); !ok {
		t.Fatalf("hide should find r2")
	}
	if ok, _ := st.SetReportHidden("missing", true); ok {
		t.Fatalf("hide of missing report reported success")
	}
	visible, _ := st.ListReports(services.ReportFilter{Identifier: "254712345678"})
	if len(visible) != 1 || visible[0].ID != "r1" {
		t.Fatalf("visible=%v", visible)
	}
	all, _ := st.ListReports(services.ReportFilter{IncludeHidden: true, Limit: 10})
	if len(all) != 3 || all[0].ID != "r3" {
		t.Fatalf("all=%d first=%s", len(all), all[0].ID)
	}
}

func TestUpdateReportTierOnlyRaises(t *testing.T) {
	st := openTestStore(t)
	r := newReport("r1", "254712345678", testNow)
	r.Tier = trust.TierVerified
	if err := st.InsertReport(r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.UpdateReportTier("r1", trust.TierCorroborated); err != nil {
		t.Fatalf("lower: %v", err)
	}
	got, _ := st.ListReportsByIdentifier("254712345678")
	if len(got) != 1 || got[0].Tier != trust.TierVerified {
		t.Fatalf("tier lowered: %+v", got)
	}

	r2 := newReport("r2", "254712345678", testNow.Add(time.Minute))
	if err := st.InsertReport(r2); err != nil {
		t.Fatalf("insert r2: %v", err)
	}
	if err := st.UpdateReportTier("r2", trust.TierCorroborated); err != nil {
		t.Fatalf("raise: %v", err)
	}
	got, _ = st.ListReportsByIdentifier("254712345678")
	if len(got) != 2 || got[1].Tier != trust.TierCorroborated {
		t.Fatalf("tier not raised: %+v", got)
	}
}

func TestDisputesAndOfficialSources(t *testing.T) {
	st := openTestStore(t)
	d := &services.Dispute{ID: "d1", Identifier: "400200", Reason: "this is our real paybill", Status: services.DisputePending, CreatedAt: testNow}
	if err := st.InsertDispute(d); err != nil {
		t.Fatalf("insert dispute: %v", err)
	}
	if open, _ := st.HasOpenDisputes("400200"); !open {
		t.Fatalf("pending dispute should count as open")
	}
	resolved := testNow.Add(time.Hour)
	d.Status = services.DisputeRejected
	d.ResolvedAt = &resolved
	d.ResolvedBy = "admin@example.com"
	if err := st.UpdateDispute(d); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := st.GetDispute("d1")
	if got == nil || got.Status != services.DisputeRejected || got.ResolvedAt == nil || !got.ResolvedAt.Equal(resolved) {
		t.Fatalf("dispute=%+v", got)
	}
	if open, _ := st.HasOpenDisputes("400200"); open {
		t.Fatalf("rejected dispute should not count as open")
	}
	if missing, err := st.GetDispute("nope"); missing != nil || err != nil {
		t.Fatalf("missing dispute=(%v,%v)", missing, err)
	}
	if err := st.UpdateDispute(&services.Dispute{ID: "nope"}); !isServiceErr(err) {
		t.Fatalf("updating a missing dispute should be a service error, got %v", err)
	}
	if list, _ := st.ListDisputes(services.DisputePending); len(list) != 0 {
		t.Fatalf("pending list=%v", list)
	}

	if has, _ := st.HasOfficialSource("400200"); has {
		t.Fatalf("no source yet")
	}
	src := &services.OfficialSource{ID: "o1", Identifier: "400200", Source: "CBK", AddedBy: "admin", CreatedAt: testNow}
	if err := st.AddOfficialSource(src); err != nil {
		t.Fatalf("add source: %v", err)
	}
	if has, _ := st.HasOfficialSource("400200"); !has {
		t.Fatalf("source not found")
	}
}

func TestAdminsOTPAndPhones(t *testing.T) {
	st := openTestStore(t)
	a := &services.Admin{ID: "a1", Email: "Root@Example.com", PassHash: []byte("hash"), CreatedAt: testNow}
	if err := st.AddAdmin(a); err != nil {
		t.Fatalf("add admin: %v", err)
	}
	if err := st.AddAdmin(&services.Admin{ID: "a2", Email: "root@example.com", PassHash: []byte("x"), CreatedAt: testNow}); !isServiceErr(err) {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}
	got, _ := st.FindAdminByEmail("ROOT@example.com")
	if got == nil || got.ID != "a1" || string(got.PassHash) != "hash" {
		t.Fatalf("admin=%+v", got)
	}
	if n, _ := st.CountAdmins(); n != 1 {
		t.Fatalf("count=%d", n)
	}

	otp := &services.OTP{PhoneHash: "p1", CodeHash: []byte("c1"), ExpiresAt: testNow.Add(10 * time.Minute)}
	if err := st.PutOTP(otp); err != nil {
		t.Fatalf("put otp: %v", err)
	}
	otp.Attempts = 2
	if err := st.PutOTP(otp); err != nil {
		t.Fatalf("overwrite otp: %v", err)
	}
	stored, _ := st.GetOTP("p1")
	if stored == nil || stored.Attempts != 2 || !stored.ExpiresAt.Equal(otp.ExpiresAt) {
		t.Fatalf("otp=%+v", stored)
	}
	_ = st.DeleteOTP("p1")
	if stored, _ := st.GetOTP("p1"); stored != nil {
		t.Fatalf("otp not deleted")
	}

	if ok, _ := st.IsPhoneVerified("p1"); ok {
		t.Fatalf("phone should not be verified yet")
	}
	if err := st.MarkPhoneVerified("p1", testNow); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := st.MarkPhoneVerified("p1", testNow.Add(time.Hour)); err != nil {
		t.Fatalf("re-mark: %v", err)
	}
	if ok, _ := st.IsPhoneVerified("p1"); !ok {
		t.Fatalf("phone should be verified")
	}
}

func TestAlertsAndAudit(t *testing.T) {
	st := openTestStore(t)
	older := &services.Alert{ID: "a1", Source: "cbk", Title: "Old", PublishedAt: testNow.Add(-time.Hour), FetchedAt: testNow}
	newer := &services.Alert{ID: "a2", Source: "cbk", Title: "New", Official: true, PublishedAt: testNow, FetchedAt: testNow}
	for _, a := range []*services.Alert{older, newer, older} {
		if err := st.InsertAlert(a); err != nil {
			t.Fatalf("insert alert: %v", err)
		}
	}
	list, _ := st.ListAlerts(10)
	if len(list) != 2 || list[0].ID != "a2" || !list[0].Official {
		t.Fatalf("alerts=%v", list)
	}
	if has, _ := st.HasAlert("a1"); !has {
		t.Fatalf("alert a1 missing")
	}

	st.AddAudit(services.AuditEntry{Time: testNow, Actor: "system", Action: "sweep"})
	st.AddAudit(services.AuditEntry{Time: testNow, Actor: "admin", Action: "hide_report", Target: "r1"})
	audit, _ := st.ListAudit(1)
	if len(audit) != 1 || audit[0].Action != "hide_report" || audit[0].Target != "r1" {
		t.Fatalf("audit=%v", audit)
	}
}

func isServiceErr(err error) bool {
	_, ok := services.AsServiceError(err)
	return ok
}
