package osuapi

import (
	"context"
	"fmt"
	"time"

	"github.com/osuqueue/rankdate/internal/queuelog"
	"github.com/osuqueue/rankdate/internal/rankerr"
)

const (
	// pagesBeforeThrottle is how many successful page fetches the walker
	// makes before pausing: every 30 successful page fetches it blocks
	// for 60 seconds.
	pagesBeforeThrottle = 30
	// throttleDuration is how long the walker pauses after
	// pagesBeforeThrottle fetches.
	throttleDuration = 60 * time.Second
)

// EventWalker walks the global paged qualify/rank/disqualify event stream
// (`beatmapsets/events?...page={p}`) from the most recent page backward
// until it reaches lastEventID, deduplicating by event id across pages.
// maxPages bounds the walk so a deleted lastEventID can't loop forever.
type EventWalker struct {
	client   *Client
	pageSize int
	maxPages int
	sleep    func(time.Duration)
}

// NewEventWalker builds an EventWalker. pageSize and maxPages come from
// config; a maxPages of 0 disables the safety cap (not recommended in
// production, but useful in tests against a bounded fixture).
func NewEventWalker(client *Client, pageSize, maxPages int) *EventWalker {
	return &EventWalker{
		client:   client,
		pageSize: pageSize,
		maxPages: maxPages,
		sleep:    time.Sleep,
	}
}

// Walk fetches pages starting at 1 until an event with id lastEventID is
// seen (or the stream is exhausted). Pages arrive newest-first, so events
// are collected newest-first internally and then reversed before return;
// Walk returns every newly observed event oldest first (the order
// queuelog.Reduce and the ingestion caller require), and the new
// lastEventID to persist for the next cycle (the first event of the
// first page). Each returned event's BeatmapSetID identifies which set it
// belongs to, for grouping by the caller.
func (w *EventWalker) Walk(ctx context.Context, lastEventID int64) ([]queuelog.Event, int64, error) {
	var collected []queuelog.Event
	seen := map[int64]bool{}
	var newLastEventID int64
	fetched := 0

	for page := 1; ; page++ {
		if w.maxPages > 0 && page > w.maxPages {
			return nil, 0, fmt.Errorf("%w: global event walk exceeded %d pages without reaching lastEventId %d",
				rankerr.ApiFailure, w.maxPages, lastEventID)
		}

		path := fmt.Sprintf(
			"/beatmapsets/events?types[]=qualify&types[]=rank&types[]=disqualify&limit=%d&page=%d",
			w.pageSize, page,
		)
		var resp eventsResponse
		if err := w.client.getJSON(ctx, path, &resp); err != nil {
			return nil, 0, err
		}

		if len(resp.Events) == 0 {
			break
		}
		if page == 1 {
			newLastEventID = resp.Events[0].ID
		}

		reachedKnown := false
		for _, ev := range resp.Events {
			if ev.ID == lastEventID {
				reachedKnown = true
				break
			}
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			collected = append(collected, toQueuelogEvent(ev))
		}
		if reachedKnown {
			break
		}

		fetched++
		if fetched%pagesBeforeThrottle == 0 {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			default:
			}
			w.sleep(throttleDuration)
		}
	}

	if newLastEventID == 0 {
		newLastEventID = lastEventID
	}
	for l, r := 0, len(collected)-1; l < r; l, r = l+1, r-1 {
		collected[l], collected[r] = collected[r], collected[l]
	}
	return collected, newLastEventID, nil
}

// WalkEvents walks the global qualify/rank/disqualify event stream from
// lastEventID forward using the page size and page cap configured on c,
// returning newly observed events oldest first and the cursor to persist
// for the next cycle.
func (c *Client) WalkEvents(ctx context.Context, lastEventID int64) ([]queuelog.Event, int64, error) {
	return NewEventWalker(c, c.eventPageSize, c.eventMaxPages).Walk(ctx, lastEventID)
}
