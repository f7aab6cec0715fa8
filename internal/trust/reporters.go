package trust

import "strconv"

// CountIndependentReporters estimates how many distinct people filed reports.
// Reporters are keyed by phone hash, then IP hash; a report with neither
// counts as its own reporter, so fully anonymous reports are over-counted.
func CountIndependentReporters(reports []Report) int {
	keys := make(map[string]struct{}, len(reports))
	for i, r := range reports {
		keys[reporterKey(r, i)] = struct{}{}
	}
	return len(keys)
}

func reporterKey(r Report, index int) string {
	switch {
	case r.ReporterPhoneHash != "":
		return "phone:" + r.ReporterPhoneHash
	case r.ReporterIPHash != "":
		return "ip:" + r.ReporterIPHash
	case r.ID != "":
		return "anon:" + r.ID
	default:
		return "anon#" + strconv.Itoa(index)
	}
}
