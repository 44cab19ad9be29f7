package storage

import (
	"time"

	"gorm.io/gorm"
)

type Snapshot struct {
	gorm.Model
	SnapshotID string    `gorm:"uniqueIndex;size:36" json:"snapshot_id"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`

	// Resolution
	Source              string `gorm:"size:16" json:"source"`
	NightShiftAvailable bool   `json:"nightshift_available"`
	Reason              string `json:"reason,omitempty"`

	// Schedule, nil when no source answered
	Sunrise *time.Time `json:"sunrise,omitempty"`
	Sunset  *time.Time `json:"sunset,omitempty"`
	IsNight bool       `json:"is_night"`
}

type DailySummary struct {
	Date           time.Time        `json:"date"`
	SnapshotsCount int64            `json:"snapshots_count"`
	NightCount     int64            `json:"night_count"`
	NightShiftUp   int64            `json:"nightshift_available_count"`
	Sources        map[string]int64 `json:"sources"`
}
