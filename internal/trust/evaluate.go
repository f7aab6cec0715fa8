package trust

import "time"

// Evaluation carries every value derived for a new report at write time.
type Evaluation struct {
	EvidenceScore        int
	Tier                 Tier
	ExpiresAt            *time.Time
	IndependentReporters int
	Correlation          Correlation
	// Promote lists existing reports whose tier should be raised to Tier.
	Promote []string
}

// EvaluateSubmission scores a candidate report against the reports already
// filed for the same identifier. Expired reports take no part. When the
// active set looks coordinated it counts as a single reporter, so a burst
// of fabricated reports cannot corroborate itself.
func EvaluateSubmission(candidate Report, existing []Report, hasOfficialSource bool, now time.Time) Evaluation {
	score := EvidenceScore(candidate.Evidence())
	candidate.EvidenceScore = score

	active := ActiveReports(existing)
	set := make([]Report, 0, len(active)+1)
	set = append(set, active...)
	set = append(set, candidate)

	corr := DetectCorrelation(set, now)
	independent := CountIndependentReporters(set)
	if !corr.IsIndependent && independent > 1 {
		independent = 1
	}

	tier := Classify(score, independent, hasOfficialSource)
	return Evaluation{
		EvidenceScore:        score,
		Tier:                 tier,
		ExpiresAt:            ComputeExpiresAt(score, candidate.ReporterVerified, now),
		IndependentReporters: independent,
		Correlation:          corr,
		Promote:              Promotions(active, tier),
	}
}
