package trust

const (
	verifiedReporterThreshold     = 5
	corroboratedReporterThreshold = 2
)

// Classify maps an evidence score and the number of independent reporters to
// a verification tier. The first matching rule wins:
//
//	official source                         -> Verified
//	>= 5 reporters and strong evidence      -> Verified
//	>= 2 reporters                          -> Corroborated
//	strong evidence                         -> Corroborated
//	otherwise                               -> Unverified
func Classify(evidenceScore, independentReports int, hasOfficialSource bool) Tier {
	switch {
	case hasOfficialSource:
		return TierVerified
	case independentReports >= verifiedReporterThreshold && evidenceScore >= StrongEvidenceScore:
		return TierVerified
	case independentReports >= corroboratedReporterThreshold:
		return TierCorroborated
	case evidenceScore >= StrongEvidenceScore:
		return TierCorroborated
	default:
		return TierUnverified
	}
}

// Promotions returns the IDs of reports whose stored tier is below tier.
// Tiers only move up here; nothing is ever demoted.
func Promotions(existing []Report, tier Tier) []string {
	var ids []string
	for _, r := range existing {
		if r.effectiveTier() < tier {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
