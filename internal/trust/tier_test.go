package trust

import "testing"

func TestClassifyScenarios(t *testing.T) {
	cases := []struct {
		score, independent int
		official           bool
		want               Tier
	}{
		{10, 1, false, TierUnverified},
		{10, 2, false, TierCorroborated},
		{30, 1, false, TierCorroborated},
		{30, 5, false, TierVerified},
		{0, 0, true, TierVerified},
		{29, 5, false, TierCorroborated},
		{70, 4, false, TierCorroborated},
		{0, 0, false, TierUnverified},
	}
	for _, c := range cases {
		if got := Classify(c.score, c.independent, c.official); got != c.want {
			t.Fatalf("Classify(%d,%d,%v)=%v, want %v", c.score, c.independent, c.official, got, c.want)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	for score := 0; score <= MaxEvidenceScore; score++ {
		for n := 0; n <= 8; n++ {
			got := Classify(score, n, false)
			if score < MaxEvidenceScore && Classify(score+1, n, false) < got {
				t.Fatalf("tier dropped when score rose from %d at n=%d", score, n)
			}
			if Classify(score, n+1, false) < got {
				t.Fatalf("tier dropped when reporters rose from %d at score=%d", n, score)
			}
			if Classify(score, n, true) != TierVerified {
				t.Fatalf("official source did not yield verified at (%d,%d)", score, n)
			}
		}
	}
}

func TestPromotionsOnlyRaise(t *testing.T) {
	existing := []Report{
		{ID: "a", Tier: TierUnverified},
		{ID: "b", Tier: TierCorroborated},
		{ID: "c", Tier: TierVerified},
		{ID: "d"}, // unset tier counts as unverified
	}
	got := Promotions(existing, TierCorroborated)
	if len(got) != 2 || got[0] != "a" || got[1] != "d" {
		t.Fatalf("Promotions(corroborated)=%v, want [a d]", got)
	}
	if got := Promotions(existing, TierUnverified); len(got) != 0 {
		t.Fatalf("Promotions(unverified)=%v, want none", got)
	}
	if got := Promotions(existing, TierVerified); len(got) != 3 {
		t.Fatalf("Promotions(verified)=%v, want 3 ids", got)
	}
}

func TestTierString(t *testing.T) {
	if TierVerified.String() != "verified" || Tier(9).String() != "unknown" {
		t.Fatalf("unexpected tier names")
	}
	if Tier(0).Valid() || !TierCorroborated.Valid() {
		t.Fatalf("unexpected Valid results")
	}
}

func TestParseScamType(t *testing.T) {
	if st, ok := ParseScamType(" MPESA "); !ok || st != ScamMpesa {
		t.Fatalf("ParseScamType(MPESA)=(%q,%v)", st, ok)
	}
	if _, ok := ParseScamType("crypto"); ok {
		t.Fatalf("expected unknown scam type to be rejected")
	}
	for _, st := range ScamTypes {
		if _, ok := ParseScamType(string(st)); !ok {
			t.Fatalf("listed scam type %q does not parse", st)
		}
		if st.Label() == "" {
			t.Fatalf("scam type %q has no label", st)
		}
	}
}
