package trust

import (
	"math"
	"testing"
	"time"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func daysAgo(n int) time.Time { return testNow.Add(-time.Duration(n) * 24 * time.Hour) }

func TestWeightBands(t *testing.T) {
	cases := []struct {
		age   int
		tier  Tier
		score int
		want  float64
	}{
		{0, TierUnverified, 0, 0.5},
		{0, TierCorroborated, 0, 0.75},
		{0, TierVerified, 0, 1.0},
		{0, TierVerified, 70, 1.21},
		{30, TierUnverified, 0, 0.5},
		{31, TierUnverified, 0, 0.375},
		{90, TierVerified, 50, 1.15 * 0.75},
		{120, TierCorroborated, 20, 0.81 * 0.5},
		{181, TierUnverified, 10, 0.53 * 0.25},
		{400, TierVerified, 0, 0.25},
	}
	for _, c := range cases {
		got := Weight(daysAgo(c.age), c.tier, c.score, testNow)
		if !approx(got, c.want) {
			t.Fatalf("Weight(age=%d,%v,%d)=%f, want %f", c.age, c.tier, c.score, got, c.want)
		}
	}
}

func TestWeightDecaysWithAge(t *testing.T) {
	for _, tier := range []Tier{TierUnverified, TierCorroborated, TierVerified} {
		for _, score := range []int{0, 35, 70} {
			young := Weight(daysAgo(10), tier, score, testNow)
			old := Weight(daysAgo(200), tier, score, testNow)
			if !(old < young) {
				t.Fatalf("weight at 200d (%f) not below weight at 10d (%f) for %v/%d", old, young, tier, score)
			}
			prev := math.Inf(1)
			for _, age := range []int{0, 30, 31, 90, 91, 180, 181, 365} {
				w := Weight(daysAgo(age), tier, score, testNow)
				if w > prev {
					t.Fatalf("weight rose with age at %dd: %f > %f", age, w, prev)
				}
				prev = w
			}
		}
	}
}

func TestWeightIncreasesWithTierAndEvidence(t *testing.T) {
	for _, age := range []int{5, 60, 150, 300} {
		created := daysAgo(age)
		if !(Weight(created, TierUnverified, 20, testNow) < Weight(created, TierCorroborated, 20, testNow)) {
			t.Fatalf("corroborated not above unverified at age %d", age)
		}
		if !(Weight(created, TierCorroborated, 20, testNow) < Weight(created, TierVerified, 20, testNow)) {
			t.Fatalf("verified not above corroborated at age %d", age)
		}
		if !(Weight(created, TierUnverified, 20, testNow) < Weight(created, TierUnverified, 21, testNow)) {
			t.Fatalf("evidence did not raise weight at age %d", age)
		}
	}
}

func TestWeightInvalidTierTreatedAsUnverified(t *testing.T) {
	if got := Weight(testNow, Tier(0), 0, testNow); !approx(got, 0.5) {
		t.Fatalf("Weight with unset tier=%f, want 0.5", got)
	}
}
