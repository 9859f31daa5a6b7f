package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered brusher. Passwords are stored as bcrypt hashes only.
// Level is derived from Points on read and is never persisted.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Points       int            `gorm:"default:0" json:"points"`
	Cep          string         `gorm:"size:16" json:"cep"`
	Street       string         `gorm:"size:255" json:"street"`
	District     string         `gorm:"size:255" json:"district"`
	City         string         `gorm:"size:255" json:"city"`
	State        string         `gorm:"size:8" json:"state"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Level derives the user's level from the points balance.
func (u *User) Level() int {
	return LevelForPoints(u.Points)
}

// LevelForPoints maps a points balance to a level (one level per 100 points).
// Negative balances cannot occur under the ledger invariant; clamp defensively.
func LevelForPoints(points int) int {
	if points < 0 {
		return 0
	}
	return points / 100
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
