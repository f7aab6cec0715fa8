package services

import (
	"strings"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
	"github.com/soaringjerry/Scamwatch/internal/trust"
)

type ModerationStore interface {
	ListReports(filter ReportFilter) ([]*Report, error)
	SetReportHidden(id string, hidden bool) (bool, error)
	// ListAudit returns the newest entries first.
	ListAudit(limit int) ([]AuditEntry, error)
	OfficialSourceStore
}

type ModerationService struct {
	store ModerationStore
	now   func() time.Time
	idGen func() string
}

type AddOfficialSourceRequest struct {
	Identifier string `json:"identifier"`
	Kind       string `json:"kind,omitempty"`
	Source     string `json:"source"`
	URL        string `json:"url,omitempty"`
}

type AddOfficialSourceResult struct {
	Source   *OfficialSource `json:"source"`
	Promoted int             `json:"promoted"`
}

func NewModerationService(store ModerationStore) *ModerationService {
	return &ModerationService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return "o" + shortID(11) },
	}
}

func (s *ModerationService) ListReports(filter ReportFilter) ([]AdminReportView, error) {
	if filter.ScamType != "" {
		t, ok := trust.ParseScamType(string(filter.ScamType))
		if !ok {
			return nil, NewInvalidError("unknown scam type")
		}
		filter.ScamType = t
	}
	if filter.Identifier != "" {
		if ident, err := identifier.Normalize("", filter.Identifier); err == nil {
			filter.Identifier = ident
		}
	}
	filter.Limit = clampLimit(filter.Limit, maxListLimit)
	reports, err := s.store.ListReports(filter)
	if err != nil {
		return nil, err
	}
	out := make([]AdminReportView, 0, len(reports))
	for _, r := range reports {
		out = append(out, AdminReportView{
			ReportView:       toReportView(r),
			Hidden:           r.Hidden,
			Expired:          r.IsExpired,
			ReporterVerified: r.ReporterVerified,
			HasEvidenceURL:   r.EvidenceURL != "",
			HasTransactionID: r.TransactionID != "",
		})
	}
	return out, nil
}

func (s *ModerationService) HideReport(id, actor string) error {
	ok, err := s.store.SetReportHidden(id, true)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("report not found")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "hide_report", Target: id})
	return nil
}

// AddOfficialSource records that an authority has named the identifier and
// raises every report already filed against it to verified.
func (s *ModerationService) AddOfficialSource(req AddOfficialSourceRequest, actor string) (*AddOfficialSourceResult, error) {
	kind := identifier.Kind("")
	if strings.TrimSpace(req.Kind) != "" {
		k, ok := identifier.ParseKind(req.Kind)
		if !ok {
			return nil, NewInvalidError("unknown identifier kind")
		}
		kind = k
	}
	ident, err := identifier.Normalize(kind, req.Identifier)
	if err != nil {
		return nil, NewInvalidError("identifier is not valid")
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return nil, NewInvalidError("source required")
	}
	link := strings.TrimSpace(req.URL)
	if link != "" && !isHTTPURL(link) {
		return nil, NewInvalidError("url must be http or https")
	}
	src := &OfficialSource{
		ID:         s.idGen(),
		Identifier: ident,
		Source:     source,
		URL:        link,
		AddedBy:    actor,
		CreatedAt:  s.now(),
	}
	promoted, err := RegisterOfficialSource(s.store, src)
	if err != nil {
		return nil, err
	}
	return &AddOfficialSourceResult{Source: src, Promoted: promoted}, nil
}

func (s *ModerationService) Audit(limit int) ([]AuditEntry, error) {
	return s.store.ListAudit(clampLimit(limit, maxListLimit))
}

type OfficialSourceStore interface {
	ListReportsByIdentifier(identifier string) ([]*Report, error)
	MarkReportsExpired(ids []string) error
	AddOfficialSource(src *OfficialSource) error
	PromoteIdentifier(identifier string, tier trust.Tier) (int, error)
	AddAudit(entry AuditEntry)
}

// RegisterOfficialSource stores src and promotes the identifier's live
// reports to verified. Reports that lapsed before src.CreatedAt are expired
// first and stay expired. Shared by the admin route and the alert poller.
func RegisterOfficialSource(store OfficialSourceStore, src *OfficialSource) (int, error) {
	reports, err := store.ListReportsByIdentifier(src.Identifier)
	if err != nil {
		return 0, err
	}
	if err := expireLapsed(store, reports, src.CreatedAt); err != nil {
		return 0, err
	}
	if err := store.AddOfficialSource(src); err != nil {
		return 0, err
	}
	n, err := store.PromoteIdentifier(src.Identifier, trust.TierVerified)
	if err != nil {
		return 0, err
	}
	store.AddAudit(AuditEntry{Time: src.CreatedAt, Actor: src.AddedBy, Action: "add_official_source", Target: src.Identifier, Note: src.Source})
	return n, nil
}
