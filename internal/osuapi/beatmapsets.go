package osuapi

import (
	"context"
	"fmt"
	"sort"

	"github.com/osuqueue/rankdate/internal/queuelog"
	"github.com/osuqueue/rankdate/internal/store"
)

// BeatmapSet fetches one beatmap set by id via `beatmapsets/{id}`.
func (c *Client) BeatmapSet(ctx context.Context, id int64) (*BeatmapSetInfo, error) {
	var info BeatmapSetInfo
	if err := c.getJSON(ctx, fmt.Sprintf("/beatmapsets/%d", id), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetEvents fetches the full moderation event history for one beatmap set
// via `beatmapsets/events?...beatmapset_id={id}`, sorted chronologically
// (the endpoint returns newest first, but queuelog.Reduce requires a
// forward replay).
func (c *Client) SetEvents(ctx context.Context, beatmapsetID int64) ([]queuelog.Event, error) {
	path := fmt.Sprintf(
		"/beatmapsets/events?types[]=qualify&types[]=disqualify&types[]=rank&types[]=nominate&types[]=nomination_reset&beatmapset_id=%d&limit=50",
		beatmapsetID,
	)
	var resp eventsResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	events := make([]queuelog.Event, 0, len(resp.Events))
	for _, re := range resp.Events {
		events = append(events, toQueuelogEvent(re))
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

func toQueuelogEvent(re rawEvent) queuelog.Event {
	return queuelog.Event{
		ID:           re.ID,
		BeatmapSetID: re.beatmapsetID(),
		Type:         queuelog.EventType(re.Type),
		CreatedAt:    re.CreatedAt,
		BeatmapIDs:   re.beatmapIDs(),
		Nominators:   re.nominatorIDs(),
		UserID:       re.UserID,
	}
}

// ToBeatmaps converts a fetched set's difficulties into the persisted
// Beatmap shape, sorted by star rating ascending as the stored `beatmaps`
// column requires.
func (info *BeatmapSetInfo) ToBeatmaps() []store.Beatmap {
	out := make([]store.Beatmap, len(info.Beatmaps))
	for i, d := range info.Beatmaps {
		out[i] = store.Beatmap{
			ID:            d.ID,
			Version:       d.Version,
			SpinnerCount:  d.CountSpinners,
			StarRating:    d.DifficultyRating,
			LengthSeconds: d.TotalLength,
			Mode:          d.ModeInt,
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StarRating < out[j-1].StarRating; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// BeatmapIDs returns the ids of every difficulty in the set, used by
// queuelog.Reduce to detect a mapset revision across a
// disqualify/qualify pair.
func (info *BeatmapSetInfo) BeatmapIDs() []int64 {
	ids := make([]int64, len(info.Beatmaps))
	for i, d := range info.Beatmaps {
		ids[i] = d.ID
	}
	return ids
}

// IsQualified reports whether the set's current platform status is
// "qualified".
func (info *BeatmapSetInfo) IsQualified() bool {
	return info.Status == "qualified"
}
