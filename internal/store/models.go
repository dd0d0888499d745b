// Package store persists the qualified/ranked beatmap set snapshot the
// projector reads and writes, behind a dual MySQL/SQLite GORM backend.
package store

import "encoding/json"

// Beatmap is the persisted form of one difficulty within a beatmap set.
type Beatmap struct {
	ID            int64   `json:"id"`
	Version       string  `json:"version"`
	SpinnerCount  int     `json:"spinnerCount"`
	StarRating    float64 `json:"starRating"`
	LengthSeconds int     `json:"lengthSeconds"`
	Mode          int     `json:"mode"`
}

// BeatmapSetRow is the beatmapsets table row shape: all times are integer
// epoch seconds, and Beatmaps is a JSON-encoded array of Beatmap, sorted
// by star rating ascending.
type BeatmapSetRow struct {
	ID            int64    `gorm:"column:id;primaryKey"`
	QueueDate     *int64   `gorm:"column:queue_date"`
	RankDate      int64    `gorm:"column:rank_date"`
	RankDateEarly *int64   `gorm:"column:rank_date_early"`
	Artist        string   `gorm:"column:artist"`
	Title         string   `gorm:"column:title"`
	Mapper        string   `gorm:"column:mapper"`
	MapperID      int64    `gorm:"column:mapper_id"`
	Probability   *float64 `gorm:"column:probability"`
	Unresolved    bool     `gorm:"column:unresolved"`
	Mode          int      `gorm:"column:mode"` // denormalized from Beatmaps; see DESIGN.md
	Beatmaps      string   `gorm:"column:beatmaps"`
}

// TableName pins the row to the beatmapsets table regardless of GORM's
// pluralization conventions.
func (BeatmapSetRow) TableName() string {
	return "beatmapsets"
}

// DecodeBeatmaps unmarshals the row's JSON beatmap array.
func (r BeatmapSetRow) DecodeBeatmaps() ([]Beatmap, error) {
	if r.Beatmaps == "" {
		return nil, nil
	}
	var out []Beatmap
	if err := json.Unmarshal([]byte(r.Beatmaps), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeBeatmaps marshals a beatmap slice into the row's JSON column.
func EncodeBeatmaps(beatmaps []Beatmap) (string, error) {
	if len(beatmaps) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(beatmaps)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
