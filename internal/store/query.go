package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/osuqueue/rankdate/internal/rankconst"
	"github.com/osuqueue/rankdate/internal/rankerr"
)

// Qualified returns every row currently in the qualified pool for mode
// (queue_date IS NOT NULL), ordered by queue_date ascending as the
// projector requires.
func Qualified(db *gorm.DB, mode int) ([]BeatmapSetRow, error) {
	var rows []BeatmapSetRow
	err := db.Where("mode = ? AND queue_date IS NOT NULL", mode).
		Order("queue_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: qualified rows for mode %d: %v", rankerr.MissingDatabaseSnapshot, mode, err)
	}
	return rows, nil
}

// RankedTail returns the recently-ranked rows used as scheduling context
// for mode (queue_date IS NULL AND rank_date > now - DAY - HOUR), ordered
// by rank_date ascending.
func RankedTail(db *gorm.DB, mode int, now time.Time) ([]BeatmapSetRow, error) {
	cutoff := now.Add(-rankconst.Day - rankconst.Hour).Unix()
	var rows []BeatmapSetRow
	err := db.Where("mode = ? AND queue_date IS NULL AND rank_date > ?", mode, cutoff).
		Order("rank_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: ranked tail rows for mode %d: %v", rankerr.MissingDatabaseSnapshot, mode, err)
	}
	return rows, nil
}

// Upsert writes rows, inserting new ids and updating every mutable
// scheduling column on conflict. Used at the end of a refresh cycle to
// persist the projector's output in one batch.
func Upsert(db *gorm.DB, rows []BeatmapSetRow) error {
	if len(rows) == 0 {
		return nil
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"queue_date", "rank_date", "rank_date_early", "probability",
			"unresolved", "artist", "title", "mapper", "mapper_id",
			"mode", "beatmaps",
		}),
	}).Create(&rows)
	if result.Error != nil {
		return fmt.Errorf("store: upsert %d rows: %w", len(rows), result.Error)
	}
	return nil
}
