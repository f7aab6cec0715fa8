package trust

import (
	"strings"
	"unicode/utf8"
)

const (
	pointsEvidenceURL    = 20
	pointsTransactionID  = 15
	pointsLongDesc       = 10
	pointsMediumDesc     = 5
	pointsVerifiedSender = 15
	pointsAmountLost     = 10

	// MaxEvidenceScore is the score of a report carrying every bonus.
	MaxEvidenceScore = pointsEvidenceURL + pointsTransactionID + pointsLongDesc + pointsVerifiedSender + pointsAmountLost

	// StrongEvidenceScore is the score from which a report stands on its own:
	// it is corroborated without other reporters and never expires.
	StrongEvidenceScore = 30
)

// Evidence holds the report fields that substantiate a claim.
type Evidence struct {
	EvidenceURL      string
	TransactionID    string
	Description      string
	ReporterVerified bool
	AmountLost       float64
}

// EvidenceScore computes the 0..70 evidence score of a report. Bonuses are
// additive; the two description-length bonuses are exclusive. Description
// length is counted in characters, not bytes.
func EvidenceScore(e Evidence) int {
	score := 0
	if strings.TrimSpace(e.EvidenceURL) != "" {
		score += pointsEvidenceURL
	}
	if strings.TrimSpace(e.TransactionID) != "" {
		score += pointsTransactionID
	}
	switch n := utf8.RuneCountInString(e.Description); {
	case n > 100:
		score += pointsLongDesc
	case n > 50:
		score += pointsMediumDesc
	}
	if e.ReporterVerified {
		score += pointsVerifiedSender
	}
	if e.AmountLost > 0 {
		score += pointsAmountLost
	}
	return score
}
