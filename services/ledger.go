package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dentio/brushtrack/models"
)

// DefaultBrushReward is the points delta applied per brushing record.
const DefaultBrushReward = 10

// PointsLedger keeps User.Points synchronized with brushing record lifecycle
// events. Every mutation runs as one transaction: the record write and the
// balance update commit together or not at all. The balance itself is changed
// with an atomic SQL expression, so concurrent mutations for the same user
// serialize on the row and no update is lost.
type PointsLedger struct {
	db     *gorm.DB
	reward int
}

// NewPointsLedger creates a ledger bound to the given database handle.
func NewPointsLedger(db *gorm.DB, reward int) *PointsLedger {
	if reward <= 0 {
		reward = DefaultBrushReward
	}
	return &PointsLedger{db: db, reward: reward}
}

// Reward returns the configured per-record points delta.
func (l *PointsLedger) Reward() int {
	return l.reward
}

// CreateRecord persists a new brushing record and credits the owner's balance.
// The owner must exist; otherwise ErrUserNotFound is returned and nothing is
// written. A zero BrushedAt defaults to the current time.
func (l *PointsLedger) CreateRecord(record *models.BrushingRecord) error {
	if record.BrushedAt.IsZero() {
		record.BrushedAt = time.Now()
	}

	return l.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, record.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if err := tx.Create(record).Error; err != nil {
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", record.UserID).
			UpdateColumn("points", gorm.Expr("points + ?", l.reward))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// The owner was loaded inside this transaction, so a no-op credit
			// means the ledger and the users table disagree.
			return ErrInvalidState
		}
		return nil
	})
}

// DeleteRecord removes a brushing record and debits the owner's balance,
// clamped at zero. Deleting an unknown record returns ErrRecordNotFound and
// leaves every balance untouched.
func (l *PointsLedger) DeleteRecord(recordID uint) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var record models.BrushingRecord
		if err := tx.First(&record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		if err := tx.Delete(&models.BrushingRecord{}, record.ID).Error; err != nil {
			return err
		}

		// Clamped decrement: the balance never goes negative, even when it
		// drifted below one reward's worth. RowsAffected is not checked here:
		// a 0 -> 0 clamp legitimately changes nothing.
		return tx.Model(&models.User{}).
			Where("id = ?", record.UserID).
			UpdateColumn("points", gorm.Expr(
				"CASE WHEN points >= ? THEN points - ? ELSE 0 END", l.reward, l.reward)).Error
	})
}

// FindRecord loads a single record by ID.
func (l *PointsLedger) FindRecord(recordID uint) (*models.BrushingRecord, error) {
	var record models.BrushingRecord
	if err := l.db.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}
