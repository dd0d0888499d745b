package osuapi

import "time"

// BeatmapDifficulty is one difficulty within a beatmap set, as returned by
// `beatmapsets/{id}`.
type BeatmapDifficulty struct {
	ID               int64   `json:"id"`
	Version          string  `json:"version"`
	CountSpinners    int     `json:"count_spinners"`
	DifficultyRating float64 `json:"difficulty_rating"`
	TotalLength      int     `json:"total_length"`
	ModeInt          int     `json:"mode_int"`
}

// BeatmapSetInfo is the response shape of `beatmapsets/{id}`.
type BeatmapSetInfo struct {
	ID         int64               `json:"id"`
	Artist     string              `json:"artist"`
	Title      string              `json:"title"`
	Creator    string              `json:"creator"`
	UserID     int64               `json:"user_id"`
	RankedDate *time.Time          `json:"ranked_date"`
	Status     string              `json:"status"`
	Beatmaps   []BeatmapDifficulty `json:"beatmaps"`
}

// eventComment carries the beatmap and nominator ids attached to a
// qualify/disqualify/nominate event's comment field.
type eventComment struct {
	BeatmapIDs   []int64 `json:"beatmap_ids"`
	NominatorIDs []int64 `json:"nominator_ids"`
}

// eventBeatmapsetRef identifies the beatmap set an event belongs to, for
// the global event stream where it isn't implied by the request path.
type eventBeatmapsetRef struct {
	ID int64 `json:"id"`
}

// eventDiscussionRef carries the beatmapset id for events keyed off a
// discussion rather than the set directly.
type eventDiscussionRef struct {
	BeatmapsetID int64 `json:"beatmapset_id"`
}

// rawEvent is the wire shape of one moderation event from either the
// per-set or global events endpoint.
type rawEvent struct {
	ID         int64               `json:"id"`
	Type       string              `json:"type"`
	CreatedAt  time.Time           `json:"created_at"`
	Beatmapset *eventBeatmapsetRef `json:"beatmapset"`
	Discussion *eventDiscussionRef `json:"discussion"`
	UserID     int64               `json:"user_id"`
	Comment    *eventComment       `json:"comment"`
}

// beatmapsetID resolves which set a raw event belongs to, preferring the
// direct beatmapset reference and falling back to the discussion's.
func (e rawEvent) beatmapsetID() int64 {
	if e.Beatmapset != nil {
		return e.Beatmapset.ID
	}
	if e.Discussion != nil {
		return e.Discussion.BeatmapsetID
	}
	return 0
}

func (e rawEvent) beatmapIDs() []int64 {
	if e.Comment == nil {
		return nil
	}
	return e.Comment.BeatmapIDs
}

func (e rawEvent) nominatorIDs() []int64 {
	if e.Comment == nil {
		return nil
	}
	return e.Comment.NominatorIDs
}

// eventsResponse wraps a page or single-set listing of events.
type eventsResponse struct {
	Events []rawEvent `json:"events"`
}

// DiscussionSet is one entry from `beatmapsets/discussions`: a set with at
// least one outstanding unresolved suggestion or problem.
type DiscussionSet struct {
	ID int64 `json:"id"`
}

type discussionsResponse struct {
	Beatmapsets []DiscussionSet `json:"beatmapsets"`
}
