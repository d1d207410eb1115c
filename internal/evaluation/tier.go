package evaluation

import (
	"math"

	"github.com/jonathan/persona-engine/internal/persona"
)

// Tier names and the sentinel for missing tiers.
const (
	Tier1       = "tier_1"
	Tier2       = "tier_2"
	Tier3       = "tier_3"
	UnknownTier = "unknown"
)

// Tier recommendation strings.
const (
	TierRecommendBalanced  = "Distribution is balanced"
	TierRecommendRebalance = "Consider rebalancing tiers"
)

// tierBand is an inclusive percentage range.
type tierBand struct{ lo, hi float64 }

// Target allocation: every band must hold at once.
var tierTargets = map[string]tierBand{
	Tier1: {30, 40},
	Tier2: {40, 50},
	Tier3: {10, 20},
}

// CalculateTierDistribution counts tiers and checks them against the target allocation.
func CalculateTierDistribution(personas []persona.Record) TierDistribution {
	counts := make(map[string]int)
	for _, p := range personas {
		counts[persona.Category(p, persona.FieldTier, UnknownTier)]++
	}

	total := len(personas)
	pct := make(map[string]float64, len(counts))
	for tier, c := range counts {
		pct[tier] = percent(c, total)
	}

	balanced := isBalanced(pct)
	rec := TierRecommendRebalance
	if balanced {
		rec = TierRecommendBalanced
	}
	return TierDistribution{
		Counts:         counts,
		Percentages:    pct,
		IsBalanced:     balanced,
		Recommendation: rec,
	}
}

// percent is computed as count*100/total so whole percentages stay exact.
func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}

// isBalanced applies the target bands; tiers absent from pct count as 0%.
func isBalanced(pct map[string]float64) bool {
	for tier, band := range tierTargets {
		p := pct[tier]
		if p < band.lo || p > band.hi {
			return false
		}
	}
	return true
}

// BalancedAllocation returns tier_1/tier_2/tier_3 counts for a batch of n that satisfy
// the target allocation, preferring allocations that use every persona.
func BalancedAllocation(n int) (t1, t2, t3 int, ok bool) {
	if n <= 0 {
		return 0, 0, 0, false
	}
	best := -1
	for a := 0; a <= n; a++ {
		for b := 0; a+b <= n; b++ {
			for c := 0; a+b+c <= n; c++ {
				pct := map[string]float64{Tier1: percent(a, n), Tier2: percent(b, n), Tier3: percent(c, n)}
				if isBalanced(pct) && a+b+c > best {
					best = a + b + c
					t1, t2, t3 = a, b, c
				}
			}
		}
	}
	return t1, t2, t3, best >= 0
}

// MinBalancedBatch returns the smallest batch size for which a balanced tier allocation exists.
func MinBalancedBatch() int {
	for n := 1; ; n++ {
		if _, _, _, ok := BalancedAllocation(n); ok {
			return n
		}
	}
}

// TierTargets suggests tier counts for generating n personas: a balanced allocation
// when one exists, otherwise the nearest rounding of 35/45/20.
func TierTargets(n int) map[string]int {
	if t1, t2, t3, ok := BalancedAllocation(n); ok && t1+t2+t3 == n {
		return map[string]int{Tier1: t1, Tier2: t2, Tier3: t3}
	}
	t1 := int(math.Round(float64(n) * 0.35))
	t2 := int(math.Round(float64(n) * 0.45))
	t3 := n - t1 - t2
	if t3 < 0 {
		t2 += t3
		t3 = 0
	}
	return map[string]int{Tier1: t1, Tier2: t2, Tier3: t3}
}
