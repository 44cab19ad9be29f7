package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nightshift-monitor/internal/daylight"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDatabase(path string) (*Database, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db, now: time.Now}, nil
}

func (d *Database) SaveDecision(dec *daylight.Decision) error {
	snap := &Snapshot{
		SnapshotID:          uuid.NewString(),
		Timestamp:           dec.At,
		Source:              string(dec.Source),
		NightShiftAvailable: dec.NightShiftAvailable,
		Reason:              dec.Reason,
		IsNight:             dec.IsNight,
	}
	if dec.HasSchedule() {
		rise, set := dec.Sunrise, dec.Sunset
		snap.Sunrise = &rise
		snap.Sunset = &set
	}

	return d.db.Create(snap).Error
}

func (d *Database) GetLatest() (*Snapshot, error) {
	var snap Snapshot
	result := d.db.Order("timestamp desc").First(&snap)
	if result.Error != nil {
		return nil, result.Error
	}
	return &snap, nil
}

func (d *Database) GetByRange(from, to time.Time) ([]Snapshot, error) {
	var snaps []Snapshot
	result := d.db.Where("timestamp BETWEEN ? AND ?", from, to).
		Order("timestamp desc").
		Find(&snaps)
	if result.Error != nil {
		return nil, result.Error
	}
	return snaps, nil
}

func (d *Database) GetWithLimit(limit int) ([]Snapshot, error) {
	var snaps []Snapshot
	result := d.db.Order("timestamp desc").Limit(limit).Find(&snaps)
	if result.Error != nil {
		return nil, result.Error
	}
	return snaps, nil
}

func (d *Database) GetDailySummary(date time.Time) (*DailySummary, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	summary := &DailySummary{Date: startOfDay, Sources: map[string]int64{}}
	day := d.db.Model(&Snapshot{}).
		Where("timestamp >= ? AND timestamp < ?", startOfDay, endOfDay).
		Session(&gorm.Session{})

	if err := day.Count(&summary.SnapshotsCount).Error; err != nil {
		return nil, err
	}
	if err := day.Where("is_night = ?", true).Count(&summary.NightCount).Error; err != nil {
		return nil, err
	}
	if err := day.Where("night_shift_available = ?", true).Count(&summary.NightShiftUp).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Source string
		Count  int64
	}
	if err := day.Select("source, COUNT(*) AS count").Group("source").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		summary.Sources[r.Source] = r.Count
	}

	return summary, nil
}

func (d *Database) CleanOld(olderThan time.Duration) (int64, error) {
	cutoff := d.now().Add(-olderThan)
	result := d.db.Unscoped().Where("timestamp < ?", cutoff).Delete(&Snapshot{})
	return result.RowsAffected, result.Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
