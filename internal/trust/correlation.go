package trust

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Flag names one sign of coordinated or fabricated reporting.
type Flag string

const (
	FlagSameReporterPhone   Flag = "same_reporter_phone"
	FlagSameIPAddress       Flag = "same_ip_address"
	FlagTimingCluster       Flag = "timing_cluster"
	FlagSimilarDescriptions Flag = "similar_descriptions"
	FlagRapidTargeting      Flag = "rapid_targeting"
)

// Penalty is the confidence deducted when the flag is raised.
func (f Flag) Penalty() float64 {
	switch f {
	case FlagSameReporterPhone:
		return 0.4
	case FlagSameIPAddress:
		return 0.3
	case FlagTimingCluster:
		return 0.2
	case FlagSimilarDescriptions:
		return 0.3
	case FlagRapidTargeting:
		return 0.25
	default:
		return 0
	}
}

const (
	timingClusterWindow   = 30 * time.Minute
	rapidTargetingWindow  = time.Hour
	rapidTargetingMinimum = 3
	similarityThreshold   = 0.7
	minSignificantWordLen = 4
)

// Correlation is the outcome of DetectCorrelation. Flags are listed in the
// order the checks run, never in input order.
type Correlation struct {
	IsIndependent bool    `json:"is_independent"`
	Confidence    float64 `json:"confidence"`
	Flags         []Flag  `json:"flags"`
}

// Has reports whether f was raised.
func (c Correlation) Has(f Flag) bool {
	for _, x := range c.Flags {
		if x == f {
			return true
		}
	}
	return false
}

// DetectCorrelation looks for signs that reports about one identifier were
// not produced independently. Fewer than two reports are trivially
// independent.
func DetectCorrelation(reports []Report, now time.Time) Correlation {
	if len(reports) < 2 {
		return Correlation{IsIndependent: true, Confidence: 1.0, Flags: []Flag{}}
	}

	checks := []struct {
		flag Flag
		hit  func([]Report, time.Time) bool
	}{
		{FlagSameReporterPhone, repeatedPhone},
		{FlagSameIPAddress, sharedIP},
		{FlagTimingCluster, timingCluster},
		{FlagSimilarDescriptions, similarDescriptions},
		{FlagRapidTargeting, rapidTargeting},
	}

	flags := []Flag{}
	penalty := 0.0
	for _, c := range checks {
		if c.hit(reports, now) {
			flags = append(flags, c.flag)
			penalty += c.flag.Penalty()
		}
	}
	confidence := math.Max(0, 1.0-penalty)
	return Correlation{
		IsIndependent: confidence > 0.5 && len(flags) <= 1,
		Confidence:    confidence,
		Flags:         flags,
	}
}

// repeatedPhone: any phone hash appears on more than one report.
func repeatedPhone(reports []Report, _ time.Time) bool {
	seen := make(map[string]bool, len(reports))
	for _, r := range reports {
		if r.ReporterPhoneHash == "" {
			continue
		}
		if seen[r.ReporterPhoneHash] {
			return true
		}
		seen[r.ReporterPhoneHash] = true
	}
	return false
}

// sharedIP: at least two reports carry an IP hash and every one of those
// hashes is the same value. A single differing hash clears the flag.
func sharedIP(reports []Report, _ time.Time) bool {
	first := ""
	n := 0
	for _, r := range reports {
		if r.ReporterIPHash == "" {
			continue
		}
		if n == 0 {
			first = r.ReporterIPHash
		} else if r.ReporterIPHash != first {
			return false
		}
		n++
	}
	return n > 1
}

func timingCluster(reports []Report, _ time.Time) bool {
	times := make([]time.Time, 0, len(reports))
	for _, r := range reports {
		times = append(times, r.CreatedAt)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i := 1; i < len(times); i++ {
		if times[i].Sub(times[i-1]) < timingClusterWindow {
			return true
		}
	}
	return false
}

func similarDescriptions(reports []Report, _ time.Time) bool {
	sets := make([]map[string]struct{}, len(reports))
	for i, r := range reports {
		sets[i] = significantWords(r.Description)
	}
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			if Jaccard(sets[i], sets[j]) > similarityThreshold {
				return true
			}
		}
	}
	return false
}

func rapidTargeting(reports []Report, now time.Time) bool {
	target := reports[0].Identifier
	cutoff := now.Add(-rapidTargetingWindow)
	recent := 0
	for _, r := range reports {
		if !sameIdentifier(r.Identifier, target) {
			return false
		}
		if !r.CreatedAt.Before(cutoff) {
			recent++
		}
	}
	return recent >= rapidTargetingMinimum
}

// significantWords lower-cases text and keeps words longer than three
// characters.
func significantWords(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) >= minSignificantWordLen {
			out[w] = struct{}{}
		}
	}
	return out
}

// Jaccard is |a∩b| / |a∪b|, and 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
