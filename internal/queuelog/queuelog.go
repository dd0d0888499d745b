// Package queuelog replays a beatmap set's moderation event history to
// derive its effective queue date, carrying forward previous queue
// duration credit and disqualification penalty.
package queuelog

import (
	"sort"
	"time"

	"github.com/osuqueue/rankdate/internal/rankconst"
	"github.com/osuqueue/rankdate/internal/rankerr"
)

// EventType enumerates the moderation event kinds replayed by Reduce.
type EventType string

const (
	Qualify         EventType = "qualify"
	Disqualify      EventType = "disqualify"
	Rank            EventType = "rank"
	Nominate        EventType = "nominate"
	NominationReset EventType = "nomination_reset"
)

// Event is the internal form of one moderation event.
type Event struct {
	ID           int64
	BeatmapSetID int64
	Type         EventType
	CreatedAt    time.Time
	BeatmapIDs   []int64
	Nominators   []int64
	UserID       int64
}

// Reduce replays events in chronological order and returns the derived
// queueDate. currentBeatmapIDs is the candidate's beatmap id set after any
// revisions, used to detect substantive mapset changes across a
// disqualify/qualify pair. isQualified reflects the set's current status
// as reported by the platform; if the replay leaves no open queue entry
// for a set the caller says is qualified, Reduce returns
// rankerr.EventLogInconsistent.
func Reduce(events []Event, currentBeatmapIDs []int64, isQualified bool, tunables rankconst.Tunables) (*time.Time, error) {
	var queuedAt *time.Time
	var previousQueueDuration time.Duration
	var lastDisqualify *Event
	var nominators []int64

	for i := range events {
		ev := events[i]
		switch ev.Type {
		case Qualify:
			t := ev.CreatedAt
			queuedAt = &t

			if lastDisqualify != nil {
				nominatorsDiffer := !sameIDs(nominators, lastDisqualify.Nominators)
				beatmapsChanged := hasNewID(currentBeatmapIDs, lastDisqualify.BeatmapIDs)

				if nominatorsDiffer {
					previousQueueDuration = 0
				}

				if beatmapsChanged {
					// No credit, no penalty: treated as a fresh entry.
				} else {
					credit := previousQueueDuration
					creditCap := time.Duration(tunables.MinimumDaysForRank-1) * rankconst.Day
					if credit > creditCap {
						credit = creditCap
					}
					adjusted := t.Add(-credit)

					elapsed := ev.CreatedAt.Sub(lastDisqualify.CreatedAt)
					penaltyDays := int(elapsed / (7 * rankconst.Day))
					if penaltyDays > tunables.MaximumPenaltyDays {
						penaltyDays = tunables.MaximumPenaltyDays
					}
					adjusted = adjusted.Add(time.Duration(penaltyDays) * rankconst.Day)
					queuedAt = &adjusted
				}
			}

		case Disqualify:
			evCopy := ev
			lastDisqualify = &evCopy
			if queuedAt != nil {
				previousQueueDuration = ev.CreatedAt.Sub(*queuedAt)
			}
			nominators = nil

		case Rank:
			previousQueueDuration = 0
			queuedAt = nil

		case Nominate:
			nominators = append(nominators, ev.UserID)

		case NominationReset:
			nominators = nil
		}
	}

	if queuedAt == nil {
		if isQualified {
			return nil, rankerr.EventLogInconsistent
		}
		return nil, nil
	}

	queueDate := queuedAt.Add(time.Duration(tunables.MinimumDaysForRank) * rankconst.Day)
	return &queueDate, nil
}

// sameIDs reports whether a and b contain the same ids, ignoring order.
func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]int64(nil), a...)
	bs := append([]int64(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// hasNewID reports whether any id in current is absent from prior.
func hasNewID(current, prior []int64) bool {
	priorSet := make(map[int64]bool, len(prior))
	for _, id := range prior {
		priorSet[id] = true
	}
	for _, id := range current {
		if !priorSet[id] {
			return true
		}
	}
	return false
}
