package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncState tracks the global moderation event stream's cursor across
// refresh cycles, so the next cycle's EventWalker resumes from where the
// previous one left off instead of re-walking the whole history.
type SyncState struct {
	ID          int64 `gorm:"column:id;primaryKey"`
	LastEventID int64 `gorm:"column:last_event_id"`
}

// TableName pins the row to the sync_state table regardless of GORM's
// pluralization conventions.
func (SyncState) TableName() string {
	return "sync_state"
}

// syncStateID is the fixed single-row key sync_state is keyed on.
const syncStateID = 1

// GetLastEventID returns the persisted global event cursor, or 0 if no
// cycle has ever run.
func GetLastEventID(db *gorm.DB) (int64, error) {
	var state SyncState
	err := db.Where("id = ?", syncStateID).Take(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("store: load sync state: %w", err)
	}
	return state.LastEventID, nil
}

// SetLastEventID persists the global event cursor for the next cycle.
func SetLastEventID(db *gorm.DB, lastEventID int64) error {
	state := SyncState{ID: syncStateID, LastEventID: lastEventID}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_event_id"}),
	}).Create(&state).Error
	if err != nil {
		return fmt.Errorf("store: persist sync state: %w", err)
	}
	return nil
}
