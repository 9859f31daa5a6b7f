package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dentio/brushtrack/models"
)

func TestCreateRecordAwardsPoints(t *testing.T) {
	db := testDB(t)
	ledger := NewPointsLedger(db, 0)
	user := createUser(t, db, "alice", 0)

	record := &models.BrushingRecord{UserID: user.ID, Period: models.PeriodMorning}
	if err := ledger.CreateRecord(record); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if record.ID == 0 {
		t.Error("expected record to be assigned an ID")
	}
	if record.BrushedAt.IsZero() {
		t.Error("expected BrushedAt to default to now")
	}

	if got := reloadUser(t, db, user.ID).Points; got != DefaultBrushReward {
		t.Errorf("expected %d points, got %d", DefaultBrushReward, got)
	}
}

func TestCreateRecordUnknownUser(t *testing.T) {
	db := testDB(t)
	ledger := NewPointsLedger(db, 10)

	err := ledger.CreateRecord(&models.BrushingRecord{UserID: 999})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	var count int64
	db.Model(&models.BrushingRecord{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no records persisted, got %d", count)
	}
}

func TestDeleteRecordRefundsPoints(t *testing.T) {
	db := testDB(t)
	ledger := NewPointsLedger(db, 10)
	user := createUser(t, db, "bob", 0)

	record := &models.BrushingRecord{UserID: user.ID}
	if err := ledger.CreateRecord(record); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if got := reloadUser(t, db, user.ID).Points; got != 10 {
		t.Fatalf("expected 10 points after create, got %d", got)
	}

	if err := ledger.DeleteRecord(record.ID); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	if got := reloadUser(t, db, user.ID).Points; got != 0 {
		t.Errorf("expected 0 points after delete, got %d", got)
	}

	var count int64
	db.Model(&models.BrushingRecord{}).Count(&count)
	if count != 0 {
		t.Errorf("expected record gone, found %d", count)
	}
}

func TestDeleteRecordClampsAtZero(t *testing.T) {
	db := testDB(t)
	ledger := NewPointsLedger(db, 10)
	// Balance below one reward's worth; deletion must not push it negative.
	user := createUser(t, db, "carol", 4)

	record := &models.BrushingRecord{UserID: user.ID, BrushedAt: time.Now()}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}

	if err := ledger.DeleteRecord(record.ID); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	if got := reloadUser(t, db, user.ID).Points; got != 0 {
		t.Errorf("expected balance clamped at 0, got %d", got)
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	db := testDB(t)
	ledger := NewPointsLedger(db, 10)
	user := createUser(t, db, "dave", 30)

	err := ledger.DeleteRecord(12345)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if got := reloadUser(t, db, user.ID).Points; got != 30 {
		t.Errorf("expected balance untouched at 30, got %d", got)
	}
}

func TestCreateThenDeleteSequence(t *testing.T) {
	db := testDB(t)
	ledger := NewPointsLedger(db, 10)
	user := createUser(t, db, "erin", 0)

	var ids []uint
	for i := 0; i < 5; i++ {
		record := &models.BrushingRecord{UserID: user.ID}
		if err := ledger.CreateRecord(record); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, record.ID)
	}
	for _, id := range ids[:2] {
		if err := ledger.DeleteRecord(id); err != nil {
			t.Fatalf("delete %d: %v", id, err)
		}
	}

	// 5 creates, 2 deletes
	if got := reloadUser(t, db, user.ID).Points; got != 30 {
		t.Errorf("expected 30 points, got %d", got)
	}
}

func TestConcurrentCreatesLoseNoUpdate(t *testing.T) {
	db := testDB(t)
	ledger := NewPointsLedger(db, 10)
	user := createUser(t, db, "frank", 0)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ledger.CreateRecord(&models.BrushingRecord{UserID: user.ID})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent create: %v", err)
		}
	}

	if got := reloadUser(t, db, user.ID).Points; got != workers*10 {
		t.Errorf("expected %d points, got %d (lost update)", workers*10, got)
	}
	var count int64
	db.Model(&models.BrushingRecord{}).Where("user_id = ?", user.ID).Count(&count)
	if count != workers {
		t.Errorf("expected %d records, got %d", workers, count)
	}
}
