package services

import (
	"sort"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/trust"
)

type ExportStore interface {
	ListReports(f ReportFilter) ([]*Report, error)
	HasOpenDisputes(identifier string) (bool, error)
	HasOfficialSource(identifier string) (bool, error)
}

type ExportParams struct {
	Format        string // reports (default) | summary
	ScamType      string
	IncludeHidden bool
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
	now   func() time.Time
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store, now: time.Now}
}

func (s *ExportService) ExportCSV(params ExportParams) (*ExportResult, error) {
	format := params.Format
	if format == "" {
		format = "reports"
	}
	filter := ReportFilter{IncludeHidden: params.IncludeHidden}
	if params.ScamType != "" {
		st, ok := trust.ParseScamType(params.ScamType)
		if !ok {
			return nil, NewInvalidError("unknown scam_type")
		}
		filter.ScamType = st
	}
	reports, err := s.store.ListReports(filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	stamp := now.UTC().Format("20060102")

	switch format {
	case "reports":
		b, err := ExportReportsCSV(buildReportRows(reports, now))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "reports-" + stamp + ".csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	case "summary":
		rows, err := s.buildSummaryRows(reports, now)
		if err != nil {
			return nil, err
		}
		b, err := ExportSummaryCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "summary-" + stamp + ".csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	default:
		return nil, NewInvalidError("unsupported format")
	}
}

func buildReportRows(rs []*Report, now time.Time) []ReportRow {
	rows := make([]ReportRow, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, ReportRow{
			ID:               r.ID,
			Identifier:       r.Identifier,
			Kind:             string(r.IdentifierKind),
			ScamType:         string(r.ScamType),
			Tier:             int(r.Tier),
			EvidenceScore:    r.EvidenceScore,
			AmountLost:       r.AmountLost,
			ReporterVerified: r.ReporterVerified,
			Hidden:           r.Hidden,
			Expired:          r.IsExpired || trust.ShouldExpire(r.Report, now),
			CreatedAt:        r.CreatedAt,
			Description:      r.Description,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows
}

// buildSummaryRows assesses each identifier the way a public check would:
// hidden reports never count, even when the export includes them.
func (s *ExportService) buildSummaryRows(rs []*Report, now time.Time) ([]SummaryRow, error) {
	byIdent := map[string][]trust.Report{}
	for _, r := range rs {
		if r.Hidden {
			continue
		}
		tr := r.Report
		if trust.ShouldExpire(tr, now) {
			tr.IsExpired = true
		}
		byIdent[r.Identifier] = append(byIdent[r.Identifier], tr)
	}
	idents := make([]string, 0, len(byIdent))
	for id := range byIdent {
		idents = append(idents, id)
	}
	sort.Strings(idents)

	rows := make([]SummaryRow, 0, len(idents))
	for _, id := range idents {
		disputed, err := s.store.HasOpenDisputes(id)
		if err != nil {
			return nil, err
		}
		official, err := s.store.HasOfficialSource(id)
		if err != nil {
			return nil, err
		}
		a := trust.Assess(byIdent[id], disputed, now)
		rows = append(rows, SummaryRow{
			Identifier:      id,
			ConcernLevel:    string(a.ConcernLevel),
			ConcernScore:    a.ConcernScore,
			TotalReports:    a.TotalReports,
			VerifiedReports: a.VerifiedReports,
			AmountLost:      a.TotalAmountLost,
			HasDisputes:     a.HasDisputes,
			OfficialSource:  official,
		})
	}
	return rows, nil
}
