package services

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/dentio/brushtrack/models"
)

func newEngagementService(t *testing.T) (*EngagementService, *gorm.DB) {
	t.Helper()
	db := testDB(t)
	if err := InitClassifier(); err != nil {
		t.Fatalf("init classifier: %v", err)
	}
	return NewEngagementService(db, GetClassifier(), NewMotivationGenerator()), db
}

func seedRecords(t *testing.T, db *gorm.DB, userID uint, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		record := models.BrushingRecord{UserID: userID, BrushedAt: at.Add(time.Duration(i) * time.Minute)}
		if err := db.Create(&record).Error; err != nil {
			t.Fatalf("seed record %d: %v", i, err)
		}
	}
}

func TestSnapshotUnknownUser(t *testing.T) {
	svc, _ := newEngagementService(t)

	_, err := svc.Snapshot(4242)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSnapshotFreshUser(t *testing.T) {
	svc, db := newEngagementService(t)
	user := createUser(t, db, "newbie", 0)

	snap, err := svc.Snapshot(user.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Level != 0 || snap.Points != 0 || snap.WeeklyBrushings != 0 {
		t.Errorf("expected zeroed state, got %+v", snap)
	}
	if snap.Prediction.WillStayActive {
		t.Errorf("expected inactive prediction for a fresh user, got %+v", snap.Prediction)
	}
	if !strings.Contains(snap.Message, "routine") {
		t.Errorf("expected nudge tier message, got: %s", snap.Message)
	}
}

func TestSnapshotIdempotent(t *testing.T) {
	svc, db := newEngagementService(t)
	user := createUser(t, db, "steady", 150)
	seedRecords(t, db, user.ID, 8, time.Now().Add(-2*time.Hour))

	first, err := svc.Snapshot(user.ID)
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	second, err := svc.Snapshot(user.ID)
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("snapshots differ without mutation:\n%+v\n%+v", first, second)
	}
}

func TestWeeklyCountWindow(t *testing.T) {
	svc, db := newEngagementService(t)
	user := createUser(t, db, "window", 0)

	now := time.Now()
	seedRecords(t, db, user.ID, 1, now.Add(-time.Hour))
	seedRecords(t, db, user.ID, 1, now.AddDate(0, 0, -6))
	seedRecords(t, db, user.ID, 1, now.AddDate(0, 0, -8)) // outside the window

	count, err := svc.WeeklyCount(user.ID, now)
	if err != nil {
		t.Fatalf("weekly count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 records inside the window, got %d", count)
	}
}

func TestSnapshotHighlyEngagedUser(t *testing.T) {
	svc, db := newEngagementService(t)
	user := createUser(t, db, "champion", 400)
	seedRecords(t, db, user.ID, 18, time.Now().Add(-3*time.Hour))

	snap, err := svc.Snapshot(user.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Level != 4 {
		t.Errorf("expected level 4 for 400 points, got %d", snap.Level)
	}
	if snap.WeeklyBrushings != 18 {
		t.Errorf("expected 18 weekly brushings, got %d", snap.WeeklyBrushings)
	}
	if !snap.Prediction.WillStayActive || snap.Prediction.Probability <= 0.5 {
		t.Errorf("expected confident active prediction, got %+v", snap.Prediction)
	}
	if !strings.Contains(snap.Message, "Amazing") {
		t.Errorf("expected praise tier message, got: %s", snap.Message)
	}
}
