package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/osuqueue/rankdate/internal/notify"
	"github.com/osuqueue/rankdate/internal/osuapi"
	"github.com/osuqueue/rankdate/internal/queuelog"
	"github.com/osuqueue/rankdate/internal/rankconst"
	"github.com/osuqueue/rankdate/internal/rankplan"
	"github.com/osuqueue/rankdate/internal/store"
	"gorm.io/gorm"
)

// platformClient is the subset of *osuapi.Client the cycle depends on,
// narrowed so tests can inject a fake.
type platformClient interface {
	BeatmapSet(ctx context.Context, id int64) (*osuapi.BeatmapSetInfo, error)
	SetEvents(ctx context.Context, beatmapsetID int64) ([]queuelog.Event, error)
	UnresolvedDiscussions(ctx context.Context) ([]int64, error)
	WalkEvents(ctx context.Context, lastEventID int64) ([]queuelog.Event, int64, error)
}

// Cycle runs one fetch-reduce-project-persist pass. It holds no state
// across calls to Run beyond the injected collaborators: all per-cycle
// state lives in a Run's local variables.
type Cycle struct {
	DB       *gorm.DB
	Platform platformClient
	Tunables rankconst.Tunables
	Notifier notify.Notifier
	Now      func() time.Time
}

// Run executes exactly one cycle: it walks the global moderation event
// stream to discover and insert any beatmap set the database doesn't yet
// track, reads the current qualified/ranked snapshot for every mode,
// re-derives each qualified set's queue date from its event history, runs
// the projector, and persists every row whose scheduling columns changed.
// If any step through projection fails, Run returns without writing
// anything new to the scheduling columns: a cycle is all-or-nothing for
// that write. A per-set EventLogInconsistent is logged and that set is
// skipped rather than aborting the whole cycle.
func (c *Cycle) Run(ctx context.Context) error {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	if err := c.ingest(ctx); err != nil {
		return err
	}

	unresolved, err := c.Platform.UnresolvedDiscussions(ctx)
	if err != nil {
		return fmt.Errorf("refresh: fetch unresolved discussions: %w", err)
	}
	unresolvedSet := make(map[int64]bool, len(unresolved))
	for _, id := range unresolved {
		unresolvedSet[id] = true
	}

	qualifiedByMode := make(map[int][]*rankplan.BeatmapSet, 4)
	rankedByMode := make(map[int][]*rankplan.BeatmapSet, 4)
	starts := make(map[int]int, 4)
	rowsByID := make(map[int64]store.BeatmapSetRow)

	for mode := 0; mode < 4; mode++ {
		qualifiedRows, err := store.Qualified(c.DB, mode)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		rankedRows, err := store.RankedTail(c.DB, mode, now())
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}

		var qualified []*rankplan.BeatmapSet
		for _, row := range qualifiedRows {
			rowsByID[row.ID] = row

			info, err := c.Platform.BeatmapSet(ctx, row.ID)
			if err != nil {
				log.Printf("refresh: beatmapset %d: %v (skipping this cycle)", row.ID, err)
				continue
			}
			events, err := c.Platform.SetEvents(ctx, row.ID)
			if err != nil {
				log.Printf("refresh: events for %d: %v (skipping this cycle)", row.ID, err)
				continue
			}
			queueDate, err := queuelog.Reduce(events, info.BeatmapIDs(), info.IsQualified(), c.Tunables)
			if err != nil {
				log.Printf("refresh: %v (beatmapset %d, skipping)", err, row.ID)
				continue
			}

			plan := row.ToPlan()
			plan.QueueDate = queueDate
			plan.Unresolved = unresolvedSet[row.ID]
			qualified = append(qualified, plan)
		}
		qualifiedByMode[mode] = qualified

		var ranked []*rankplan.BeatmapSet
		for _, row := range rankedRows {
			rowsByID[row.ID] = row
			ranked = append(ranked, row.ToPlan())
		}
		rankedByMode[mode] = ranked
		starts[mode] = 0
	}

	rankplan.AdjustAllRankDates(qualifiedByMode, rankedByMode, starts, c.Tunables)

	var current []store.BeatmapSetRow
	var previous []store.BeatmapSetRow
	for mode := 0; mode < 4; mode++ {
		for _, plan := range qualifiedByMode[mode] {
			prior := rowsByID[plan.ID]
			previous = append(previous, prior)
			current = append(current, prior.ApplyPlan(plan))
		}
	}

	updated := store.GetUpdatedMaps(previous, current)
	if len(updated) == 0 {
		return nil
	}
	if err := store.Upsert(c.DB, updated); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	if c.Notifier != nil {
		c.notifyChanges(ctx, updated)
	}
	return nil
}

// ingest walks the global qualify/rank/disqualify event stream from the
// last persisted cursor, inserts a row for every beatmap set it mentions
// that the database doesn't already track, and advances the cursor. A
// freshly-inserted row is left for the same cycle's per-mode
// store.Qualified/RankedTail reads below to pick up and project; ingest
// itself never sets RankDate/Probability beyond what the platform already
// reports.
func (c *Cycle) ingest(ctx context.Context) error {
	lastEventID, err := store.GetLastEventID(c.DB)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	events, newLastEventID, err := c.Platform.WalkEvents(ctx, lastEventID)
	if err != nil {
		return fmt.Errorf("refresh: walk global events: %w", err)
	}

	seen := make(map[int64]bool)
	for _, ev := range events {
		if ev.BeatmapSetID == 0 || seen[ev.BeatmapSetID] {
			continue
		}
		seen[ev.BeatmapSetID] = true

		var existing store.BeatmapSetRow
		err := c.DB.Select("id").Where("id = ?", ev.BeatmapSetID).Take(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("refresh: check existing row %d: %w", ev.BeatmapSetID, err)
		}

		if err := c.ingestNewSet(ctx, ev.BeatmapSetID); err != nil {
			log.Printf("refresh: ingest new beatmapset %d: %v (skipping)", ev.BeatmapSetID, err)
		}
	}

	if err := store.SetLastEventID(c.DB, newLastEventID); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// ingestNewSet fetches one newly-discovered beatmap set's full details
// and event history and inserts its initial row, deriving Mode as the
// minimum mode across its beatmaps.
func (c *Cycle) ingestNewSet(ctx context.Context, id int64) error {
	info, err := c.Platform.BeatmapSet(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch beatmapset: %w", err)
	}
	events, err := c.Platform.SetEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}
	queueDate, err := queuelog.Reduce(events, info.BeatmapIDs(), info.IsQualified(), c.Tunables)
	if err != nil {
		return fmt.Errorf("reduce event log: %w", err)
	}

	beatmaps := info.ToBeatmaps()
	encoded, err := store.EncodeBeatmaps(beatmaps)
	if err != nil {
		return fmt.Errorf("encode beatmaps: %w", err)
	}

	row := store.BeatmapSetRow{
		ID:       id,
		Mode:     store.ModeForBeatmaps(beatmaps),
		Artist:   info.Artist,
		Title:    info.Title,
		Mapper:   info.Creator,
		MapperID: info.UserID,
		Beatmaps: encoded,
	}
	if queueDate != nil {
		v := queueDate.Unix()
		row.QueueDate = &v
	}
	if info.RankedDate != nil {
		row.RankDate = info.RankedDate.Unix()
	}

	if err := store.Upsert(c.DB, []store.BeatmapSetRow{row}); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}

func (c *Cycle) notifyChanges(ctx context.Context, updated []store.BeatmapSetRow) {
	events := make([]notify.Event, 0, len(updated))
	for _, row := range updated {
		body := fmt.Sprintf("rank date %s", time.Unix(row.RankDate, 0).UTC().Format(time.RFC3339))
		fields := []notify.Field{{Name: "mode", Value: fmt.Sprintf("%d", row.Mode), Short: true}}
		if row.Probability != nil {
			fields = append(fields, notify.Field{Name: "probability", Value: fmt.Sprintf("%.5f", *row.Probability), Short: true})
		}
		events = append(events, notify.Event{
			Title:  fmt.Sprintf("%s - %s", row.Artist, row.Title),
			Body:   body,
			Fields: fields,
		})
	}
	if err := c.Notifier.Send(ctx, events); err != nil {
		log.Printf("refresh: notify: %v", err)
	}
}
