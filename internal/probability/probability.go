// Package probability computes the probability that a qualified map ranks
// before a given offset past its interval boundary, accounting for the four
// possible cross-mode queue positions and the other modes' contributions to
// the same interval.
package probability

import (
	"math"

	"github.com/osuqueue/rankdate/internal/distribution"
)

const positions = 4

// memo caches uniformSumCDF contributions by m within a single call, since
// value depends only on m and seconds.
type memo map[int]float64

// After returns the probability that this mode's next map ranks before
// secondsSinceIntervalBoundary seconds past the last interval boundary,
// averaged over queue positions 1..4. otherModeCounts holds up to three
// integer counts for how many maps the other modes contribute to the same
// interval; pass nil when that information isn't available.
func After(secondsSinceIntervalBoundary float64, otherModeCounts []int, delayMin, delayMax float64) float64 {
	m := memo{}
	total := 0.0
	for pos := 1; pos <= positions; pos++ {
		sums := permSums(pos, otherModeCounts)
		modeSum := 0.0
		for _, s := range sums {
			modeSum += value(m, pos+s, secondsSinceIntervalBoundary, delayMin, delayMax)
		}
		total += modeSum / float64(len(sums))
	}
	result := total / float64(positions)
	return math.Floor(result*100000) / 100000
}

// value returns uniformSumCDF(m, (seconds - m*delayMin)/(delayMax-delayMin)),
// memoized by m for the lifetime of a single After call. This is the
// probability that m independent per-map delays (each at least delayMin)
// have all elapsed by seconds past the interval boundary, which is what
// makes probabilityAfter(-inf) = 0 and probabilityAfter(+inf) = 1 hold.
func value(m memo, n int, seconds, delayMin, delayMax float64) float64 {
	if v, ok := m[n]; ok {
		return v
	}
	x := (seconds - float64(n)*delayMin) / (delayMax - delayMin)
	v := distribution.UniformSumCDF(n, x)
	m[n] = v
	return v
}

// permSums enumerates the distinct sums of (pos-1) selections from
// otherModeCounts, per position-dependent semantics:
//   - pos=1: {0} (no other mode contributes)
//   - pos=2: each other-mode count alone
//   - pos=3: sums over ordered pairs of distinct other modes
//   - pos=4: total of all other modes
//
// Results are deduplicated, since spec §4.2 defines permSums as the
// distinct sums (two other modes contributing equal counts must not
// double-weight that sum in the average). If otherModeCounts is empty,
// every position returns {0}.
func permSums(pos int, otherModeCounts []int) []int {
	if len(otherModeCounts) == 0 {
		return []int{0}
	}

	switch pos {
	case 1:
		return []int{0}
	case 2:
		return distinct(otherModeCounts)
	case 3:
		var sums []int
		for i := 0; i < len(otherModeCounts); i++ {
			for j := 0; j < len(otherModeCounts); j++ {
				if i == j {
					continue
				}
				sums = append(sums, otherModeCounts[i]+otherModeCounts[j])
			}
		}
		if len(sums) == 0 {
			return []int{0}
		}
		return distinct(sums)
	case 4:
		total := 0
		for _, c := range otherModeCounts {
			total += c
		}
		return []int{total}
	default:
		return []int{0}
	}
}

// distinct returns the unique values in vs, in first-seen order.
func distinct(vs []int) []int {
	seen := make(map[int]bool, len(vs))
	out := make([]int, 0, len(vs))
	for _, v := range vs {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
