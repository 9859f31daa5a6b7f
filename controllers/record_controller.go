package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dentio/brushtrack/models"
	"github.com/dentio/brushtrack/services"
	"github.com/dentio/brushtrack/utils"
)

// RecordController exposes brushing record CRUD. All mutations go through the
// points ledger so record writes and balance updates stay consistent.
type RecordController struct {
	db     *gorm.DB
	ledger *services.PointsLedger
}

// NewRecordController creates a new controller instance.
func NewRecordController(db *gorm.DB, ledger *services.PointsLedger) *RecordController {
	return &RecordController{db: db, ledger: ledger}
}

// ListRecords returns paginated brushing records, optionally filtered by user.
func (r *RecordController) ListRecords(ctx *gin.Context) {
	page, pageSize := pagination(ctx)

	query := r.db.Model(&models.BrushingRecord{})
	if v := strings.TrimSpace(ctx.Query("user_id")); v != "" {
		userID, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40020, "invalid user_id filter")
			return
		}
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to count records")
		return
	}

	var records []models.BrushingRecord
	if err := query.Order("brushed_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&records).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to retrieve records")
		return
	}

	utils.Success(ctx, gin.H{
		"records":   records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetRecord returns a single brushing record by ID.
func (r *RecordController) GetRecord(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	record, err := r.ledger.FindRecord(id)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "record not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load record")
		return
	}

	utils.Success(ctx, record)
}

// CreateRecord logs a brushing event for the authenticated user and credits
// their points balance.
func (r *RecordController) CreateRecord(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		BrushedAt *time.Time `json:"brushed_at"`
		Period    string     `json:"period"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}

	period := strings.ToLower(strings.TrimSpace(req.Period))
	if period != "" && !models.ValidPeriod(period) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "period must be morning, afternoon or night")
		return
	}

	record := models.BrushingRecord{
		UserID: userID,
		Period: period,
	}
	if req.BrushedAt != nil {
		record.BrushedAt = *req.BrushedAt
	}

	if err := r.ledger.CreateRecord(&record); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to create record")
		return
	}

	utils.InvalidateByPrefix("cache:stats")
	utils.Respond(ctx, http.StatusCreated, 0, "success", record)
}

// DeleteRecord removes a brushing record owned by the authenticated user and
// debits the points balance.
func (r *RecordController) DeleteRecord(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	record, err := r.ledger.FindRecord(id)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "record not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load record")
		return
	}
	if record.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40303, "cannot delete another user's record")
		return
	}

	if err := r.ledger.DeleteRecord(id); err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "record not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to delete record")
		return
	}

	utils.InvalidateByPrefix("cache:stats")
	utils.Success(ctx, gin.H{"message": "record deleted"})
}
