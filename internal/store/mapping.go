package store

import (
	"time"

	"github.com/osuqueue/rankdate/internal/rankplan"
)

// ModeForBeatmaps returns the minimum mode across beatmaps: a beatmap
// set lives in exactly one mode queue, the lowest of its difficulties'.
func ModeForBeatmaps(beatmaps []Beatmap) int {
	if len(beatmaps) == 0 {
		return 0
	}
	mode := beatmaps[0].Mode
	for _, b := range beatmaps[1:] {
		if b.Mode < mode {
			mode = b.Mode
		}
	}
	return mode
}

// ToPlan converts a persisted row into the mutable scheduling record the
// projector operates on.
func (r BeatmapSetRow) ToPlan() *rankplan.BeatmapSet {
	plan := &rankplan.BeatmapSet{
		ID:          r.ID,
		Mode:        r.Mode,
		RankDate:    time.Unix(r.RankDate, 0).UTC(),
		Unresolved:  r.Unresolved,
		Probability: r.Probability,
	}
	if r.QueueDate != nil {
		t := time.Unix(*r.QueueDate, 0).UTC()
		plan.QueueDate = &t
	}
	if r.RankDateEarly != nil {
		t := time.Unix(*r.RankDateEarly, 0).UTC()
		plan.RankDateEarly = &t
	}
	return plan
}

// ApplyPlan copies the projector's output for plan back onto a copy of r.
func (r BeatmapSetRow) ApplyPlan(plan *rankplan.BeatmapSet) BeatmapSetRow {
	out := r
	out.RankDate = plan.RankDate.Unix()
	out.Probability = truncate5(plan.Probability)
	if plan.QueueDate != nil {
		v := plan.QueueDate.Unix()
		out.QueueDate = &v
	} else {
		out.QueueDate = nil
	}
	if plan.RankDateEarly != nil {
		v := plan.RankDateEarly.Unix()
		out.RankDateEarly = &v
	} else {
		out.RankDateEarly = nil
	}
	return out
}

// truncate5 truncates a probability pointer to 5 decimal places, matching the
// projector's own truncation so snapshot comparisons are stable.
func truncate5(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := float64(int64(*p*100000)) / 100000
	return &v
}

// GetUpdatedMaps returns the rows in current whose scheduling columns
// differ from the matching row in previous (by id), for a stable
// before/after diff at the end of a refresh cycle.
func GetUpdatedMaps(previous, current []BeatmapSetRow) []BeatmapSetRow {
	byID := make(map[int64]BeatmapSetRow, len(previous))
	for _, row := range previous {
		byID[row.ID] = row
	}

	var updated []BeatmapSetRow
	for _, row := range current {
		prior, ok := byID[row.ID]
		if !ok || schedulingChanged(prior, row) {
			updated = append(updated, row)
		}
	}
	return updated
}

func schedulingChanged(a, b BeatmapSetRow) bool {
	if a.RankDate != b.RankDate {
		return true
	}
	if !int64PtrEqual(a.QueueDate, b.QueueDate) {
		return true
	}
	if !int64PtrEqual(a.RankDateEarly, b.RankDateEarly) {
		return true
	}
	if !float64PtrEqual(a.Probability, b.Probability) {
		return true
	}
	return a.Unresolved != b.Unresolved
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func float64PtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
