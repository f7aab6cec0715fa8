// Package trust scores scam reports and aggregates them into a community
// concern summary. Every function is pure: callers pass reports and the
// current time in and persist whatever comes back.
package trust

import (
	"strings"
	"time"
)

// ScamType is the category a report is filed under.
type ScamType string

const (
	ScamMpesa      ScamType = "mpesa"
	ScamLand       ScamType = "land"
	ScamJobs       ScamType = "jobs"
	ScamInvestment ScamType = "investment"
	ScamTender     ScamType = "tender"
	ScamOnline     ScamType = "online"
	ScamRomance    ScamType = "romance"
	ScamOther      ScamType = "other"
)

// ScamTypes lists every category in display order.
var ScamTypes = []ScamType{
	ScamMpesa, ScamLand, ScamJobs, ScamInvestment, ScamTender, ScamOnline, ScamRomance, ScamOther,
}

// ParseScamType accepts a category name in any case.
func ParseScamType(s string) (ScamType, bool) {
	t := ScamType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case ScamMpesa, ScamLand, ScamJobs, ScamInvestment, ScamTender, ScamOnline, ScamRomance, ScamOther:
		return t, true
	default:
		return "", false
	}
}

// Label is the human readable category name.
func (t ScamType) Label() string {
	switch t {
	case ScamMpesa:
		return "M-Pesa fraud"
	case ScamLand:
		return "Land / property"
	case ScamJobs:
		return "Fake jobs"
	case ScamInvestment:
		return "Investment / pyramid"
	case ScamTender:
		return "Tender fraud"
	case ScamOnline:
		return "Online shopping"
	case ScamRomance:
		return "Romance"
	case ScamOther:
		return "Other"
	default:
		return string(t)
	}
}

// Tier is the verification level of a single report.
type Tier int

const (
	TierUnverified   Tier = 1
	TierCorroborated Tier = 2
	TierVerified     Tier = 3
)

func (t Tier) Valid() bool {
	return t >= TierUnverified && t <= TierVerified
}

func (t Tier) String() string {
	switch t {
	case TierUnverified:
		return "unverified"
	case TierCorroborated:
		return "corroborated"
	case TierVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// ConcernLevel is the user-facing risk summary for an identifier.
type ConcernLevel string

const (
	ConcernNoReports ConcernLevel = "no_reports"
	ConcernLow       ConcernLevel = "low"
	ConcernModerate  ConcernLevel = "moderate"
	ConcernHigh      ConcernLevel = "high"
	ConcernSevere    ConcernLevel = "severe"
)

// Report is a scam report as read from the store. Derived fields (Tier,
// EvidenceScore, IsExpired, ExpiresAt) are whatever was last persisted.
type Report struct {
	ID                string
	Identifier        string
	ScamType          ScamType
	Description       string
	AmountLost        float64 // 0 when not given
	EvidenceURL       string
	TransactionID     string
	ReporterVerified  bool
	ReporterPhoneHash string
	ReporterIPHash    string
	CreatedAt         time.Time

	Tier          Tier
	EvidenceScore int
	IsExpired     bool
	ExpiresAt     *time.Time // nil means never
}

// Evidence returns the fields the evidence scorer looks at.
func (r Report) Evidence() Evidence {
	return Evidence{
		EvidenceURL:      r.EvidenceURL,
		TransactionID:    r.TransactionID,
		Description:      r.Description,
		ReporterVerified: r.ReporterVerified,
		AmountLost:       r.AmountLost,
	}
}

// effectiveTier treats an unset tier as unverified.
func (r Report) effectiveTier() Tier {
	if !r.Tier.Valid() {
		return TierUnverified
	}
	return r.Tier
}

func sameIdentifier(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ActiveReports drops expired reports, keeping order.
func ActiveReports(reports []Report) []Report {
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if !r.IsExpired {
			out = append(out, r)
		}
	}
	return out
}
