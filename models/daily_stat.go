package models

import "time"

// DailyStat stores aggregated API request counts per day and path.
type DailyStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"index:idx_stat_date_path,unique;type:date;not null" json:"date"`
	Path      string    `gorm:"index;index:idx_stat_date_path,unique;size:255;not null" json:"path"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
