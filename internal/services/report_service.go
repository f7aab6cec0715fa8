package services

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
	"github.com/soaringjerry/Scamwatch/internal/logging"
	"github.com/soaringjerry/Scamwatch/internal/trust"
)

const (
	minDescriptionLen   = 10
	maxDescriptionLen   = 5000
	maxTransactionIDLen = 64
)

type ReportStore interface {
	ListReportsByIdentifier(identifier string) ([]*Report, error)
	InsertReport(r *Report) error
	UpdateReportTier(id string, tier trust.Tier) error
	MarkReportsExpired(ids []string) error
	HasOfficialSource(identifier string) (bool, error)
	IsPhoneVerified(phoneHash string) (bool, error)
	AddAudit(entry AuditEntry)
}

type ReportService struct {
	store  ReportStore
	hasher *identifier.Hasher
	now    func() time.Time
	idGen  func() string
}

type SubmitReportRequest struct {
	Identifier     string  `json:"identifier"`
	IdentifierKind string  `json:"identifier_kind,omitempty"`
	ScamType       string  `json:"scam_type"`
	Description    string  `json:"description"`
	AmountLost     float64 `json:"amount_lost,omitempty"`
	EvidenceURL    string  `json:"evidence_url,omitempty"`
	TransactionID  string  `json:"transaction_id,omitempty"`
	ReporterPhone  string  `json:"reporter_phone,omitempty"`
	// ReporterIP is filled from the request, never from the body.
	ReporterIP string `json:"-"`
}

type SubmitReportResult struct {
	ID                   string       `json:"id"`
	Identifier           string       `json:"identifier"`
	EvidenceScore        int          `json:"evidence_score"`
	Tier                 int          `json:"tier"`
	TierLabel            string       `json:"tier_label"`
	ExpiresAt            *time.Time   `json:"expires_at,omitempty"`
	IndependentReporters int          `json:"independent_reporters"`
	Flags                []trust.Flag `json:"flags"`
	Promoted             int          `json:"promoted"`
}

func NewReportService(store ReportStore, hasher *identifier.Hasher) *ReportService {
	return &ReportService{
		store:  store,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
		idGen:  func() string { return "r" + shortID(11) },
	}
}

func (s *ReportService) Submit(req SubmitReportRequest) (*SubmitReportResult, error) {
	kind := identifier.Kind("")
	if strings.TrimSpace(req.IdentifierKind) != "" {
		k, ok := identifier.ParseKind(req.IdentifierKind)
		if !ok {
			return nil, NewInvalidError("unknown identifier kind")
		}
		kind = k
	}
	if kind == "" {
		kind = identifier.Detect(req.Identifier)
	}
	ident, err := identifier.Normalize(kind, req.Identifier)
	if err != nil {
		return nil, NewInvalidError("identifier is not valid for its kind")
	}
	scamType, ok := trust.ParseScamType(req.ScamType)
	if !ok {
		return nil, NewInvalidError("unknown scam type")
	}
	desc := strings.TrimSpace(req.Description)
	if n := utf8.RuneCountInString(desc); n < minDescriptionLen || n > maxDescriptionLen {
		return nil, NewInvalidError("description must be 10-5000 characters")
	}
	if req.AmountLost < 0 {
		return nil, NewInvalidError("amount lost cannot be negative")
	}
	evidenceURL := strings.TrimSpace(req.EvidenceURL)
	if evidenceURL != "" && !isHTTPURL(evidenceURL) {
		return nil, NewInvalidError("evidence url must be http or https")
	}
	txID := strings.TrimSpace(req.TransactionID)
	if len(txID) > maxTransactionIDLen {
		return nil, NewInvalidError("transaction id too long")
	}

	phoneHash := s.hasher.HashPhone(req.ReporterPhone)
	ipHash := s.hasher.HashIP(req.ReporterIP)
	verified := false
	if phoneHash != "" {
		if verified, err = s.store.IsPhoneVerified(phoneHash); err != nil {
			return nil, err
		}
	}

	now := s.now()
	existing, err := s.store.ListReportsByIdentifier(ident)
	if err != nil {
		return nil, err
	}
	if err := expireLapsed(s.store, existing, now); err != nil {
		return nil, err
	}
	official, err := s.store.HasOfficialSource(ident)
	if err != nil {
		return nil, err
	}

	candidate := trust.Report{
		ID:                s.idGen(),
		Identifier:        ident,
		ScamType:          scamType,
		Description:       desc,
		AmountLost:        req.AmountLost,
		EvidenceURL:       evidenceURL,
		TransactionID:     txID,
		ReporterVerified:  verified,
		ReporterPhoneHash: phoneHash,
		ReporterIPHash:    ipHash,
		CreatedAt:         now,
	}
	eval := trust.EvaluateSubmission(candidate, trustReports(existing), official, now)
	candidate.EvidenceScore = eval.EvidenceScore
	candidate.Tier = eval.Tier
	candidate.ExpiresAt = eval.ExpiresAt

	if err := s.store.InsertReport(&Report{Report: candidate, IdentifierKind: kind}); err != nil {
		return nil, err
	}
	for _, id := range eval.Promote {
		if err := s.store.UpdateReportTier(id, eval.Tier); err != nil {
			return nil, err
		}
	}

	note := eval.Tier.String()
	if len(eval.Correlation.Flags) > 0 {
		logging.Warn("correlated report", "report_id", candidate.ID, "identifier", ident, "flags", eval.Correlation.Flags)
		note += " flags=" + joinFlags(eval.Correlation.Flags)
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: "public", Action: "submit_report", Target: candidate.ID, Note: note})

	flags := eval.Correlation.Flags
	if flags == nil {
		flags = []trust.Flag{}
	}
	return &SubmitReportResult{
		ID:                   candidate.ID,
		Identifier:           ident,
		EvidenceScore:        eval.EvidenceScore,
		Tier:                 int(eval.Tier),
		TierLabel:            eval.Tier.String(),
		ExpiresAt:            eval.ExpiresAt,
		IndependentReporters: eval.IndependentReporters,
		Flags:                flags,
		Promoted:             len(eval.Promote),
	}, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func joinFlags(flags []trust.Flag) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
