package trust

import "time"

// Disclaimer accompanies every assessment.
const Disclaimer = "This summary is based on community reports that have not all been independently verified. " +
	"It is not a legal finding. Always confirm through official channels before acting."

const disputePenalty = 10

// Assessment is the community concern summary for one identifier.
type Assessment struct {
	ConcernLevel    ConcernLevel `json:"concern_level"`
	ConcernScore    int          `json:"concern_score"`
	TotalReports    int          `json:"total_reports"`
	VerifiedReports int          `json:"verified_reports"`
	TotalAmountLost float64      `json:"total_amount_lost"`
	WeightedScore   float64      `json:"weighted_score"`
	HasDisputes     bool         `json:"has_disputes"`
	Disclaimer      string       `json:"disclaimer"`
}

// concernBands maps a weighted score to a level. A score at or above the
// last bound is severe.
var concernBands = []struct {
	below float64
	level ConcernLevel
	score int
}{
	{0.5, ConcernLow, 20},
	{1.5, ConcernModerate, 40},
	{3.0, ConcernHigh, 70},
}

func concernFor(weighted float64) (ConcernLevel, int) {
	for _, b := range concernBands {
		if weighted < b.below {
			return b.level, b.score
		}
	}
	return ConcernSevere, 90
}

// Assess aggregates the active reports for one identifier. Expired reports
// are ignored; any active report yields at least a low concern. An open
// dispute lowers the score by ten points but keeps the level.
func Assess(reports []Report, hasDisputes bool, now time.Time) Assessment {
	active := ActiveReports(reports)
	if len(active) == 0 {
		return Assessment{
			ConcernLevel: ConcernNoReports,
			HasDisputes:  hasDisputes,
			Disclaimer:   Disclaimer,
		}
	}

	a := Assessment{
		TotalReports: len(active),
		HasDisputes:  hasDisputes,
		Disclaimer:   Disclaimer,
	}
	for _, r := range active {
		if r.effectiveTier() >= TierCorroborated {
			a.VerifiedReports++
		}
		if r.AmountLost > 0 {
			a.TotalAmountLost += r.AmountLost
		}
		a.WeightedScore += Weight(r.CreatedAt, r.effectiveTier(), r.EvidenceScore, now)
	}
	a.ConcernLevel, a.ConcernScore = concernFor(a.WeightedScore)

	if hasDisputes && a.ConcernScore > 0 {
		a.ConcernScore -= disputePenalty
		if a.ConcernScore < 0 {
			a.ConcernScore = 0
		}
	}
	return a
}
