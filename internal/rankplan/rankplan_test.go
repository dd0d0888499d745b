package rankplan

import (
	"testing"
	"time"

	"github.com/osuqueue/rankdate/internal/rankconst"
)

func ptr(t time.Time) *time.Time { return &t }

// S1-shaped check: a single qualified map with no ranked tail projects
// rankDateEarly = queueDate and rankDate rounded up to the interval.
func TestAdjustRankDates_SingleMap(t *testing.T) {
	tunables := rankconst.Default()
	q0 := time.Date(2026, 1, 1, 0, 7, 0, 0, time.UTC)
	sets := []*BeatmapSet{{ID: 1, QueueDate: ptr(q0)}}

	AdjustRankDates(sets, nil, 0, tunables)

	if !sets[0].RankDateEarly.Equal(q0) {
		t.Errorf("rankDateEarly = %v, want %v", sets[0].RankDateEarly, q0)
	}
	want := time.Date(2026, 1, 1, 0, 20, 0, 0, time.UTC)
	if !sets[0].RankDate.Equal(want) {
		t.Errorf("rankDate = %v, want %v", sets[0].RankDate, want)
	}
}

// Property 1 & 2: queueDate <= rankDateEarly <= rankDate, and rankDate is an
// exact multiple of the rank interval.
func TestAdjustRankDates_OrderingAndAlignment(t *testing.T) {
	tunables := rankconst.Default()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var sets []*BeatmapSet
	for i := 0; i < 20; i++ {
		q := base.Add(time.Duration(i) * time.Hour)
		sets = append(sets, &BeatmapSet{ID: int64(i), QueueDate: ptr(q)})
	}

	AdjustRankDates(sets, nil, 0, tunables)

	for i, s := range sets {
		if s.QueueDate.After(*s.RankDateEarly) {
			t.Errorf("set %d: queueDate %v after rankDateEarly %v", i, s.QueueDate, s.RankDateEarly)
		}
		if s.RankDateEarly.After(s.RankDate) {
			t.Errorf("set %d: rankDateEarly %v after rankDate %v", i, s.RankDateEarly, s.RankDate)
		}
		if s.RankDate.UnixMilli()%int64(tunables.RankInterval/time.Millisecond) != 0 {
			t.Errorf("set %d: rankDate %v not aligned to interval", i, s.RankDate)
		}
		if s.Probability != nil && (*s.Probability < 0 || *s.Probability > 1) {
			t.Errorf("set %d: probability %v out of [0,1]", i, *s.Probability)
		}
	}
}

// S5 - daily cap: the 9th of 9 maps spaced an hour apart must not rank
// before the 1st map's rankDate + DAY, rounded up to the interval.
func TestAdjustRankDates_DailyCap(t *testing.T) {
	tunables := rankconst.Default() // RankPerDay = 8
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var sets []*BeatmapSet
	for i := 0; i < 9; i++ {
		q := base.Add(time.Duration(i) * time.Hour)
		sets = append(sets, &BeatmapSet{ID: int64(i), QueueDate: ptr(q)})
	}

	AdjustRankDates(sets, nil, 0, tunables)

	first := sets[0]
	ninth := sets[8]
	floorBound := first.RankDate.Add(rankconst.Day)
	if ninth.RankDate.Before(floorBound) {
		t.Errorf("9th rankDate %v is before 1st rankDate+DAY %v", ninth.RankDate, floorBound)
	}
	if ninth.RankDate.UnixMilli()%int64(tunables.RankInterval/time.Millisecond) != 0 {
		t.Errorf("9th rankDate %v not rounded to interval", ninth.RankDate)
	}
}

// S6 - per-run overflow: three maps share floor(rankDate) = T; a fourth
// whose early time also floors to T gets pushed to T + RANK_INTERVAL, with
// probability forced to 0.
func TestAdjustRankDates_PerRunOverflow(t *testing.T) {
	tunables := rankconst.Default() // RankPerRun = 3
	interval := tunables.RankInterval
	boundary := time.Date(2026, 1, 1, 0, 40, 0, 0, time.UTC) // T

	sets := []*BeatmapSet{
		{ID: 0, QueueDate: ptr(boundary.Add(-15 * time.Minute))},
		{ID: 1, QueueDate: ptr(boundary.Add(-10 * time.Minute))},
		{ID: 2, QueueDate: ptr(boundary.Add(-5 * time.Minute))},
		{ID: 3, QueueDate: ptr(boundary)},
	}

	AdjustRankDates(sets, nil, 0, tunables)

	for i := 0; i < 3; i++ {
		if !sets[i].RankDate.Equal(boundary) {
			t.Fatalf("set %d: rankDate = %v, want %v", i, sets[i].RankDate, boundary)
		}
	}

	fourth := sets[3]
	want := boundary.Add(interval)
	if !fourth.RankDate.Equal(want) {
		t.Errorf("4th rankDate = %v, want %v", fourth.RankDate, want)
	}
	if !fourth.RankDateEarly.Equal(want) {
		t.Errorf("4th rankDateEarly = %v, want %v", fourth.RankDateEarly, want)
	}
	if fourth.Probability == nil || *fourth.Probability != 0 {
		t.Errorf("4th probability = %v, want 0", fourth.Probability)
	}
}

// Property 7: no RANK_PER_RUN+1 assigned rankDates share the same interval
// bucket, under a realistic arrival rate (several maps per interval, not a
// pathological burst within the same second).
func TestAdjustRankDates_PerRunCapHolds(t *testing.T) {
	tunables := rankconst.Default()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var sets []*BeatmapSet
	for i := 0; i < 20; i++ {
		q := base.Add(time.Duration(i) * 7 * time.Minute)
		sets = append(sets, &BeatmapSet{ID: int64(i), QueueDate: ptr(q)})
	}

	AdjustRankDates(sets, nil, 0, tunables)

	buckets := map[int64]int{}
	for _, s := range sets {
		buckets[s.RankDate.Unix()]++
		if buckets[s.RankDate.Unix()] > tunables.RankPerRun {
			t.Fatalf("bucket %v has %d entries, want <= %d", s.RankDate, buckets[s.RankDate.Unix()], tunables.RankPerRun)
		}
	}
}

// Property 7 under a clustered burst: seven qualified sets share the exact
// same queueDate, so step E1's back-propagation fires repeatedly. E1 must
// fall through to E2 rather than return early, or a fourth set can land in
// an already-saturated bucket (regression for the early-return bug).
func TestAdjustRankDates_PerRunCapHolds_ClusteredQueueDate(t *testing.T) {
	tunables := rankconst.Default() // RankPerRun = 3, RankInterval = 20m
	interval := tunables.RankInterval
	q0 := time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)

	var sets []*BeatmapSet
	for i := 0; i < 7; i++ {
		sets = append(sets, &BeatmapSet{ID: int64(i), QueueDate: ptr(q0)})
	}

	AdjustRankDates(sets, nil, 0, tunables)

	buckets := map[int64]int{}
	for _, s := range sets {
		buckets[s.RankDate.Unix()]++
		if buckets[s.RankDate.Unix()] > tunables.RankPerRun {
			t.Fatalf("bucket %v has %d entries, want <= %d", s.RankDate, buckets[s.RankDate.Unix()], tunables.RankPerRun)
		}
	}

	want6 := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	if !sets[6].RankDate.Equal(want6) {
		t.Errorf("7th rankDate = %v, want %v (pushed past the saturated 00:40 bucket)", sets[6].RankDate, want6)
	}
	if sets[6].RankDate.UnixMilli()%int64(interval/time.Millisecond) != 0 {
		t.Errorf("7th rankDate %v not aligned to interval", sets[6].RankDate)
	}
}

func TestAdjustAllRankDates_CrossModeRecomputesProbability(t *testing.T) {
	tunables := rankconst.Default()
	base := time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)

	qualified := map[int][]*BeatmapSet{
		0: {{ID: 0, Mode: 0, QueueDate: ptr(base)}},
		1: {{ID: 1, Mode: 1, QueueDate: ptr(base)}},
		2: {{ID: 2, Mode: 2, QueueDate: ptr(base)}},
		3: {{ID: 3, Mode: 3, QueueDate: ptr(base)}},
	}
	ranked := map[int][]*BeatmapSet{0: nil, 1: nil, 2: nil, 3: nil}
	starts := map[int]int{0: 0, 1: 0, 2: 0, 3: 0}

	AdjustAllRankDates(qualified, ranked, starts, tunables)

	for mode, sets := range qualified {
		s := sets[0]
		if s.RankDateEarly == nil {
			t.Fatalf("mode %d: rankDateEarly is nil", mode)
		}
		if s.Probability != nil && (*s.Probability < 0 || *s.Probability > 1) {
			t.Errorf("mode %d: probability %v out of [0,1]", mode, *s.Probability)
		}
	}
}
