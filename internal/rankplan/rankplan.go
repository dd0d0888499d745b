// Package rankplan projects rank dates and early-rank probabilities for
// qualified beatmap sets, enforcing per-mode daily and per-run caps and
// re-estimating probability across modes once every mode has a projection.
package rankplan

import (
	"time"

	"github.com/osuqueue/rankdate/internal/probability"
	"github.com/osuqueue/rankdate/internal/rankconst"
)

// BeatmapSet carries the mutable scheduling attributes the projector reads
// and writes. Callers populate QueueDate, RankDate (for already-ranked
// entries used as context) and Unresolved before calling AdjustRankDates;
// the projector fills in RankDateEarly, RankDate and Probability for
// qualified entries.
type BeatmapSet struct {
	ID            int64
	Mode          int
	QueueDate     *time.Time
	RankDate      time.Time
	RankDateEarly *time.Time
	Probability   *float64
	Unresolved    bool
}

// AdjustRankDates projects rankDateEarly, rankDate and probability onto
// every entry in qualified, for one mode's queue. ranked must be sorted
// ascending by RankDate and qualified ascending by QueueDate; start skips
// the first N qualified entries (already projected in a prior cycle).
func AdjustRankDates(qualified, ranked []*BeatmapSet, start int, tunables rankconst.Tunables) {
	combined := make([]*BeatmapSet, 0, len(ranked)+len(qualified))
	combined = append(combined, ranked...)
	combined = append(combined, qualified...)

	for i := len(ranked) + start; i < len(combined); i++ {
		q := combined[i]

		compareDate := compareDateForIndex(combined, i, len(ranked), tunables)

		early := compareDate
		queueAfterCompare := q.QueueDate != nil && q.QueueDate.After(compareDate)
		if queueAfterCompare {
			early = *q.QueueDate
		}
		q.RankDateEarly = &early

		fineWindowOpen := i < len(ranked)+tunables.RankPerDay
		if queueAfterCompare || fineWindowOpen {
			p := probability.After(
				intervalTimeDelta(early, tunables.RankInterval),
				nil,
				tunables.DelayMin.Seconds(),
				tunables.DelayMax.Seconds(),
			)
			q.Probability = &p
		} else {
			q.Probability = nil
		}

		q.RankDate = ceilToInterval(early, tunables.RankInterval)

		if i-tunables.RankPerRun >= 0 && !q.Unresolved {
			applyPerRunCap(combined[:i], q, tunables)
		}
	}
}

// AdjustAllRankDates runs AdjustRankDates for each of the four modes, then
// re-estimates probability across modes sharing an interval boundary.
func AdjustAllRankDates(qualifiedByMode, rankedByMode map[int][]*BeatmapSet, starts map[int]int, tunables rankconst.Tunables) {
	for mode := 0; mode < 4; mode++ {
		AdjustRankDates(qualifiedByMode[mode], rankedByMode[mode], starts[mode], tunables)
	}
	CalcEarlyProbability(qualifiedByMode, tunables)
}

// compareDateForIndex implements step A: the RANK_PER_DAY-th non-unresolved
// entry encountered walking combined[0..i) in reverse sets the daily-cap
// floor for entry i.
func compareDateForIndex(combined []*BeatmapSet, i, rankedLen int, tunables rankconst.Tunables) time.Time {
	count := 0
	var compareMap *BeatmapSet
	for j := i - 1; j >= 0; j-- {
		if combined[j].Unresolved {
			continue
		}
		count++
		if count == tunables.RankPerDay {
			compareMap = combined[j]
			break
		}
	}

	if compareMap == nil || compareMap.RankDate.IsZero() {
		return time.Unix(0, 0).UTC()
	}

	compareDate := compareMap.RankDate.Add(rankconst.Day)
	if i >= rankedLen+tunables.RankPerDay {
		compareDate = compareDate.Add(tunables.RankInterval)
	}
	return compareDate
}

// applyPerRunCap implements step E: the per-interval-tick release cap.
func applyPerRunCap(prior []*BeatmapSet, q *BeatmapSet, tunables rankconst.Tunables) {
	filtered := make([]*BeatmapSet, 0, len(prior))
	for _, m := range prior {
		if !m.Unresolved {
			filtered = append(filtered, m)
		}
	}
	for l, r := 0, len(filtered)-1; l < r; l, r = l+1, r-1 {
		filtered[l], filtered[r] = filtered[r], filtered[l]
	}
	if len(filtered) == 0 {
		return
	}

	interval := tunables.RankInterval

	if filtered[0].QueueDate != nil {
		floorPrior := floorToInterval(filtered[0].RankDate, interval)
		if q.RankDate.Before(floorPrior) {
			setOverflow(q, floorPrior)
		}
	}

	if len(filtered) < tunables.RankPerRun {
		return
	}

	earlyFloor := floorToInterval(*q.RankDateEarly, interval)
	saturated := true
	for k := 0; k < tunables.RankPerRun; k++ {
		if floorToInterval(filtered[k].RankDate, interval).Before(earlyFloor) {
			saturated = false
			break
		}
	}
	if !saturated {
		return
	}

	lastFloor := floorToInterval(filtered[tunables.RankPerRun-1].RankDate, interval)
	allSame := true
	for k := 0; k < tunables.RankPerRun; k++ {
		if !floorToInterval(filtered[k].RankDate, interval).Equal(lastFloor) {
			allSame = false
			break
		}
	}

	firstFloor := floorToInterval(filtered[0].RankDate, interval)
	if allSame {
		setOverflow(q, firstFloor.Add(interval))
	} else {
		setOverflow(q, firstFloor)
	}
}

func setOverflow(q *BeatmapSet, t time.Time) {
	q.RankDate = t
	q.RankDateEarly = &t
	zero := 0.0
	q.Probability = &zero
}

// CalcEarlyProbability re-estimates probability for qualified maps whose
// rounded and early rank dates differ, folding in how many maps the other
// three modes contribute to the same interval boundary.
func CalcEarlyProbability(qualifiedByMode map[int][]*BeatmapSet, tunables rankconst.Tunables) {
	buckets := map[int64]*[4]int{}

	for mode, sets := range qualifiedByMode {
		for _, q := range sets {
			if q.RankDateEarly == nil {
				continue
			}
			var key int64
			if q.Probability != nil && *q.Probability > tunables.Split {
				key = floorToInterval(*q.RankDateEarly, tunables.RankInterval).Unix()
			} else {
				key = floorToInterval(q.RankDate, tunables.RankInterval).Unix()
			}
			c, ok := buckets[key]
			if !ok {
				c = &[4]int{}
				buckets[key] = c
			}
			c[mode]++
		}
	}

	for mode, sets := range qualifiedByMode {
		for _, q := range sets {
			if q.Probability == nil || q.RankDateEarly == nil {
				continue
			}
			if q.RankDateEarly.Equal(q.RankDate) {
				continue
			}
			key := floorToInterval(*q.RankDateEarly, tunables.RankInterval).Unix()
			c, ok := buckets[key]
			if !ok {
				continue
			}
			others := make([]int, 0, 3)
			for m := 0; m < 4; m++ {
				if m == mode {
					continue
				}
				others = append(others, c[m])
			}
			p := probability.After(
				intervalTimeDelta(*q.RankDateEarly, tunables.RankInterval),
				others,
				tunables.DelayMin.Seconds(),
				tunables.DelayMax.Seconds(),
			)
			q.Probability = &p
		}
	}
}

func floorToInterval(t time.Time, interval time.Duration) time.Time {
	return t.UTC().Truncate(interval)
}

func ceilToInterval(t time.Time, interval time.Duration) time.Time {
	u := t.UTC()
	floor := floorToInterval(u, interval)
	if floor.Equal(u) {
		return floor
	}
	return floor.Add(interval)
}

// intervalTimeDelta returns seconds elapsed since the last RANK_INTERVAL
// boundary at or before t.
func intervalTimeDelta(t time.Time, interval time.Duration) float64 {
	u := t.UTC()
	intervalMinutes := int(interval / time.Minute)
	if intervalMinutes <= 0 {
		intervalMinutes = 1
	}
	m := u.Minute() % intervalMinutes
	return float64(m*60) + float64(u.Second())
}
