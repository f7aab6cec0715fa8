package trust

import "time"

// UnverifiedLifetime is how long a weak, unverified report stays active.
const UnverifiedLifetime = 90 * 24 * time.Hour

// ComputeExpiresAt returns when a new report lapses, or nil if it never does.
// Reports from verified reporters or with strong evidence are permanent.
func ComputeExpiresAt(evidenceScore int, reporterVerified bool, now time.Time) *time.Time {
	if reporterVerified || evidenceScore >= StrongEvidenceScore {
		return nil
	}
	t := now.Add(UnverifiedLifetime)
	return &t
}

// ShouldExpire reports whether r has lapsed at now. Corroborated or verified
// reports, strong evidence and verified reporters never lapse.
func ShouldExpire(r Report, now time.Time) bool {
	if r.effectiveTier() > TierUnverified || r.EvidenceScore >= StrongEvidenceScore || r.ReporterVerified {
		return false
	}
	boundary := r.CreatedAt.Add(UnverifiedLifetime)
	if r.ExpiresAt != nil {
		boundary = *r.ExpiresAt
	}
	return now.After(boundary)
}
