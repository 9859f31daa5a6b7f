package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dentio/brushtrack/models"
	"github.com/dentio/brushtrack/services"
	"github.com/dentio/brushtrack/utils"
)

// UserController exposes user profiles, levels and engagement snapshots.
type UserController struct {
	db         *gorm.DB
	engagement *services.EngagementService
}

// NewUserController creates a new controller instance.
func NewUserController(db *gorm.DB, engagement *services.EngagementService) *UserController {
	return &UserController{db: db, engagement: engagement}
}

// userView is the serialized user shape. Level is always recomputed from the
// points balance, never read from storage.
type userView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Level    int    `json:"level"`
	Cep      string `json:"cep,omitempty"`
	Street   string `json:"street,omitempty"`
	District string `json:"district,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
}

func userResponse(u *models.User) userView {
	return userView{
		ID:       u.ID,
		Name:     u.Name,
		Points:   u.Points,
		Level:    u.Level(),
		Cep:      u.Cep,
		Street:   u.Street,
		District: u.District,
		City:     u.City,
		State:    u.State,
	}
}

// ListUsers returns paginated users.
func (u *UserController) ListUsers(ctx *gin.Context) {
	page, pageSize := pagination(ctx)

	var total int64
	if err := u.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to count users")
		return
	}

	var users []models.User
	if err := u.db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to retrieve users")
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, userResponse(&users[i]))
	}

	utils.Success(ctx, gin.H{
		"users":     views,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetUser returns one user together with their brushing records.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load user")
		return
	}

	var records []models.BrushingRecord
	if err := u.db.Where("user_id = ?", user.ID).Order("brushed_at DESC").Limit(100).Find(&records).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to load brushing records")
		return
	}

	utils.Success(ctx, gin.H{
		"user":    userResponse(&user),
		"records": records,
	})
}

// UpdateUser lets the authenticated user change their own profile. A new
// postal code triggers a fresh address lookup.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	authID, ok := getUserID(ctx)
	if !ok || authID != id {
		utils.Error(ctx, http.StatusForbidden, 40301, "cannot modify another user")
		return
	}

	var req struct {
		Name string `json:"name"`
		Cep  string `json:"cep"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	if name := utils.SanitizeName(req.Name); name != "" {
		if l := len([]rune(name)); l < 2 || l > 100 {
			utils.Error(ctx, http.StatusBadRequest, 40002, "name must be 2-100 characters")
			return
		}
		user.Name = name
	}

	if strings.TrimSpace(req.Cep) != "" {
		addr, err := utils.LookupCep(ctx.Request.Context(), req.Cep)
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrInvalidCep):
				utils.Error(ctx, http.StatusBadRequest, 40004, "invalid cep")
			case errors.Is(err, utils.ErrCepNotFound):
				utils.Error(ctx, http.StatusBadRequest, 40005, "cep not found")
			default:
				utils.Error(ctx, http.StatusBadGateway, 50201, "cep lookup failed")
			}
			return
		}
		user.Cep = addr.Cep
		user.Street = addr.Street
		user.District = addr.District
		user.City = addr.City
		user.State = addr.State
	}

	if err := u.db.Save(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to update user")
		return
	}

	utils.Success(ctx, userResponse(&user))
}

// DeleteUser removes the authenticated user and all their brushing records in
// one transaction.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	authID, ok := getUserID(ctx)
	if !ok || authID != id {
		utils.Error(ctx, http.StatusForbidden, 40302, "cannot delete another user")
		return
	}

	err := u.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.BrushingRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to delete user")
		return
	}

	utils.InvalidateByPrefix("cache:stats")
	utils.Success(ctx, gin.H{"message": "user deleted"})
}

// GetUserLevel returns the user's derived level.
func (u *UserController) GetUserLevel(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load user")
		return
	}

	utils.Success(ctx, gin.H{"level": user.Level()})
}

// GetEngagement returns the engagement snapshot: level, weekly brushing count,
// the model's prediction and a motivational message.
func (u *UserController) GetEngagement(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	snapshot, err := u.engagement.Snapshot(id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to build engagement snapshot")
		return
	}

	utils.Success(ctx, snapshot)
}

// paramID parses a numeric path parameter, writing a 400 envelope on failure.
func paramID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid id")
		return 0, false
	}
	return uint(n), true
}

func pagination(ctx *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 10
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}
