package models

import "time"

// Brushing periods accepted by the API.
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
	PeriodNight     = "night"
)

// BrushingRecord stores a single logged brushing event. It references its owner
// by ID only; the user side never embeds records, which keeps serialization flat.
type BrushingRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	BrushedAt time.Time `gorm:"index;not null" json:"brushed_at"`
	Period    string    `gorm:"size:16" json:"period"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidPeriod reports whether p is one of the accepted brushing periods.
func ValidPeriod(p string) bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodNight:
		return true
	}
	return false
}
