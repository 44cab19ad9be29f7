package storage

import (
	"path/filepath"
	"testing"
	"time"

	"nightshift-monitor/internal/daylight"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "data", "nightshift.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func decisionAt(at time.Time, source daylight.Source, night bool) *daylight.Decision {
	d := &daylight.Decision{At: at, Source: source, IsNight: night}
	if source != daylight.SourceNone {
		d.Sunrise = time.Date(at.Year(), at.Month(), at.Day(), 6, 0, 0, 0, time.UTC)
		d.Sunset = time.Date(at.Year(), at.Month(), at.Day(), 20, 0, 0, 0, time.UTC)
	}
	d.NightShiftAvailable = source == daylight.SourceNightShift
	return d
}

func TestSaveAndGetLatest(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := db.SaveDecision(decisionAt(base, daylight.SourceWeather, false)); err != nil {
		t.Fatalf("SaveDecision: %v", err)
	}
	if err := db.SaveDecision(decisionAt(base.Add(time.Hour), daylight.SourceNone, false)); err != nil {
		t.Fatalf("SaveDecision: %v", err)
	}

	latest, err := db.GetLatest()
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest.Source != string(daylight.SourceNone) {
		t.Errorf("source: got %q", latest.Source)
	}
	if latest.Sunrise != nil || latest.Sunset != nil {
		t.Error("a decision without schedule should store no times")
	}
	if len(latest.SnapshotID) != 36 {
		t.Errorf("snapshot id: %q", latest.SnapshotID)
	}
}

func TestGetByRangeAndLimit(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := db.SaveDecision(decisionAt(base.Add(time.Duration(i)*time.Hour), daylight.SourceSolar, true)); err != nil {
			t.Fatal(err)
		}
	}

	snaps, err := db.GetByRange(base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("GetByRange: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("range: got %d, want 3", len(snaps))
	}
	if !snaps[0].Timestamp.After(snaps[2].Timestamp) {
		t.Error("range should be newest first")
	}

	limited, err := db.GetWithLimit(2)
	if err != nil {
		t.Fatalf("GetWithLimit: %v", err)
	}
	if len(limited) != 2 || !limited[0].Timestamp.Equal(base.Add(4*time.Hour)) {
		t.Errorf("limit: %+v", limited)
	}
}

func TestGetDailySummary(t *testing.T) {
	db := openTestDB(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, d := range []*daylight.Decision{
		decisionAt(day.Add(2*time.Hour), daylight.SourceNightShift, true),
		decisionAt(day.Add(12*time.Hour), daylight.SourceNightShift, false),
		decisionAt(day.Add(22*time.Hour), daylight.SourceWeather, true),
		decisionAt(day.Add(26*time.Hour), daylight.SourceWeather, true),
	} {
		if err := db.SaveDecision(d); err != nil {
			t.Fatal(err)
		}
	}

	s, err := db.GetDailySummary(day.Add(9 * time.Hour))
	if err != nil {
		t.Fatalf("GetDailySummary: %v", err)
	}
	if s.SnapshotsCount != 3 || s.NightCount != 2 || s.NightShiftUp != 2 {
		t.Errorf("counts: %+v", s)
	}
	if s.Sources["nightshift"] != 2 || s.Sources["weather"] != 1 {
		t.Errorf("sources: %v", s.Sources)
	}
}

func TestCleanOld(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }

	for _, age := range []time.Duration{time.Hour, 48 * time.Hour, 72 * time.Hour} {
		if err := db.SaveDecision(decisionAt(now.Add(-age), daylight.SourceManual, false)); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := db.CleanOld(24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanOld: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed: got %d, want 2", removed)
	}
	rest, _ := db.GetWithLimit(10)
	if len(rest) != 1 {
		t.Errorf("remaining: got %d, want 1", len(rest))
	}
}
