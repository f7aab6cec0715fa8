package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"
)

// ReportRow is one line of the reports export. Reporter hashes are left out.
type ReportRow struct {
	ID               string
	Identifier       string
	Kind             string
	ScamType         string
	Tier             int
	EvidenceScore    int
	AmountLost       float64
	ReporterVerified bool
	Hidden           bool
	Expired          bool
	CreatedAt        time.Time
	Description      string
}

// SummaryRow is one line of the per-identifier export.
type SummaryRow struct {
	Identifier      string
	ConcernLevel    string
	ConcernScore    int
	TotalReports    int
	VerifiedReports int
	AmountLost      float64
	HasDisputes     bool
	OfficialSource  bool
}

// ExportReportsCSV renders one row per report.
func ExportReportsCSV(rows []ReportRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{
		"id", "identifier", "kind", "scam_type", "tier", "evidence_score", "amount_lost",
		"reporter_verified", "hidden", "expired", "created_at", "description",
	})
	for _, r := range rows {
		rec := []string{
			r.ID,
			csvCell(r.Identifier),
			r.Kind,
			r.ScamType,
			strconv.Itoa(r.Tier),
			strconv.Itoa(r.EvidenceScore),
			formatAmount(r.AmountLost),
			strconv.FormatBool(r.ReporterVerified),
			strconv.FormatBool(r.Hidden),
			strconv.FormatBool(r.Expired),
			r.CreatedAt.UTC().Format(time.RFC3339),
			csvCell(r.Description),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportSummaryCSV renders one row per identifier.
func ExportSummaryCSV(rows []SummaryRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{
		"identifier", "concern_level", "concern_score", "total_reports", "verified_reports",
		"amount_lost", "has_disputes", "official_source",
	})
	for _, r := range rows {
		rec := []string{
			csvCell(r.Identifier),
			r.ConcernLevel,
			strconv.Itoa(r.ConcernScore),
			strconv.Itoa(r.TotalReports),
			strconv.Itoa(r.VerifiedReports),
			formatAmount(r.AmountLost),
			strconv.FormatBool(r.HasDisputes),
			strconv.FormatBool(r.OfficialSource),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// csvCell neutralizes values a spreadsheet would evaluate as a formula.
// Report text is user supplied.
func csvCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
