package controllers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dentio/brushtrack/models"
	"github.com/dentio/brushtrack/utils"
)

const statsCacheKey = "cache:stats:global"

// StatsController provides aggregate statistics about users and brushings.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate counts. The payload is cached briefly in Redis
// and invalidated by record mutations.
func (s *StatsController) GetStats(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(statsCacheKey); ok {
		var cached gin.H
		if err := json.Unmarshal(b, &cached); err == nil {
			utils.Success(ctx, cached)
			return
		}
	}

	var userCount int64
	var recordCount int64
	var todayBrushings int64
	var todayRequests int64

	// Fall back to 0 on individual failures instead of failing the endpoint
	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := s.db.Model(&models.BrushingRecord{}).Count(&recordCount).Error; err != nil {
		recordCount = 0
	}

	now := time.Now().In(time.Local)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if err := s.db.Model(&models.BrushingRecord{}).
		Where("brushed_at >= ?", midnight).
		Count(&todayBrushings).Error; err != nil {
		todayBrushings = 0
	}

	if err := s.db.Model(&models.DailyStat{}).
		Where("date = ?", midnight.Format("2006-01-02")).
		Select("COALESCE(SUM(count),0)").
		Scan(&todayRequests).Error; err != nil {
		todayRequests = 0
	}

	payload := gin.H{
		"user_count":      userCount,
		"record_count":    recordCount,
		"today_brushings": todayBrushings,
		"today_requests":  todayRequests,
	}

	utils.CacheSetJSON(statsCacheKey, payload, 30*time.Second)
	utils.Success(ctx, payload)
}
