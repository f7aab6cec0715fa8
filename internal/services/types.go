package services

import (
	"time"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
	"github.com/soaringjerry/Scamwatch/internal/trust"
)

// Report is a stored report: the trust engine's view plus moderation state.
type Report struct {
	trust.Report
	IdentifierKind identifier.Kind
	Hidden         bool
}

// ReportView is the public shape of a report. Reporter hashes never leave
// the service layer.
type ReportView struct {
	ID            string     `json:"id"`
	Identifier    string     `json:"identifier"`
	Kind          string     `json:"kind,omitempty"`
	ScamType      string     `json:"scam_type"`
	ScamTypeLabel string     `json:"scam_type_label"`
	Description   string     `json:"description"`
	AmountLost    float64    `json:"amount_lost,omitempty"`
	Tier          int        `json:"tier"`
	TierLabel     string     `json:"tier_label"`
	EvidenceScore int        `json:"evidence_score"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// AdminReportView adds moderation fields to ReportView.
type AdminReportView struct {
	ReportView
	Hidden           bool `json:"hidden"`
	Expired          bool `json:"expired"`
	ReporterVerified bool `json:"reporter_verified"`
	HasEvidenceURL   bool `json:"has_evidence_url"`
	HasTransactionID bool `json:"has_transaction_id"`
}

func toReportView(r *Report) ReportView {
	return ReportView{
		ID:            r.ID,
		Identifier:    r.Identifier,
		Kind:          string(r.IdentifierKind),
		ScamType:      string(r.ScamType),
		ScamTypeLabel: r.ScamType.Label(),
		Description:   r.Description,
		AmountLost:    r.AmountLost,
		Tier:          int(r.Tier),
		TierLabel:     r.Tier.String(),
		EvidenceScore: r.EvidenceScore,
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
	}
}

func trustReports(in []*Report) []trust.Report {
	out := make([]trust.Report, 0, len(in))
	for _, r := range in {
		if r == nil || r.Hidden {
			continue
		}
		out = append(out, r.Report)
	}
	return out
}

type DisputeStatus string

const (
	DisputePending  DisputeStatus = "pending"
	DisputeUpheld   DisputeStatus = "upheld"
	DisputeRejected DisputeStatus = "rejected"
)

// Dispute is a challenge filed by the owner of a reported identifier.
type Dispute struct {
	ID         string        `json:"id"`
	Identifier string        `json:"identifier"`
	Reason     string        `json:"reason"`
	Contact    string        `json:"contact,omitempty"`
	Status     DisputeStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
	ResolvedBy string        `json:"resolved_by,omitempty"`
}

// OfficialSource records that a regulator or other authority has named an
// identifier.
type OfficialSource struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Source     string    `json:"source"`
	URL        string    `json:"url,omitempty"`
	AddedBy    string    `json:"added_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type Admin struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// OTP is a pending phone verification. Only the bcrypt hash of the code is kept.
type OTP struct {
	PhoneHash string
	CodeHash  []byte
	ExpiresAt time.Time
	Attempts  int
}

// Alert is a scam warning picked up from a regulator or news feed.
type Alert struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Link        string    `json:"link"`
	Official    bool      `json:"official"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
}

type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}

// ReportFilter narrows the admin report listing. Zero values match everything.
type ReportFilter struct {
	Identifier    string
	ScamType      trust.ScamType
	IncludeHidden bool
	Limit         int
}
