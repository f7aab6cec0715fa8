package trust

import "time"

const day = 24 * time.Hour

// decayBands maps report age to a weight multiplier. Ages past the last
// band use staleMultiplier.
var decayBands = []struct {
	maxAge     time.Duration
	multiplier float64
}{
	{30 * day, 1.0},
	{90 * day, 0.75},
	{180 * day, 0.5},
}

const (
	staleMultiplier   = 0.25
	evidenceBonusRate = 0.3
)

func baseWeight(t Tier) float64 {
	switch t {
	case TierVerified:
		return 1.0
	case TierCorroborated:
		return 0.75
	default:
		return 0.5
	}
}

func decayMultiplier(age time.Duration) float64 {
	for _, b := range decayBands {
		if age <= b.maxAge {
			return b.multiplier
		}
	}
	return staleMultiplier
}

// Weight is the contribution of one report to an identifier's weighted score:
// (tier base + evidenceScore/100*0.3) scaled by an age decay multiplier.
func Weight(createdAt time.Time, tier Tier, evidenceScore int, now time.Time) float64 {
	if !tier.Valid() {
		tier = TierUnverified
	}
	bonus := float64(evidenceScore) / 100 * evidenceBonusRate
	return (baseWeight(tier) + bonus) * decayMultiplier(now.Sub(createdAt))
}
