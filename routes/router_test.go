package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dentio/brushtrack/models"
	"github.com/dentio/brushtrack/services"
	"github.com/dentio/brushtrack/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GIN_MODE", "test")

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=10000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.BrushingRecord{}, &models.DailyStat{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := services.InitClassifier(); err != nil {
		t.Fatalf("init classifier: %v", err)
	}
	return SetupRouter(db), db
}

func authedUser(t *testing.T, db *gorm.DB, name string, points int) (*models.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{Name: name, PasswordHash: hash, Points: points}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := utils.GenerateToken(user.ID, user.Name, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return user, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %q: %v", w.Body.String(), err)
	}
	return w, env
}

func userPoints(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return user.Points
}

func TestHealth(t *testing.T) {
	r, _ := setupTest(t)
	w, _ := doJSON(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestBrushingRecordFlow(t *testing.T) {
	r, db := setupTest(t)
	user, token := authedUser(t, db, "alice", 0)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/records", token, gin.H{"period": "morning"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create record: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	if got := userPoints(t, db, user.ID); got != 10 {
		t.Errorf("expected 10 points after create, got %d", got)
	}

	var record models.BrushingRecord
	if err := json.Unmarshal(env.Data, &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/records/%d", record.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete record: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if got := userPoints(t, db, user.ID); got != 0 {
		t.Errorf("expected 0 points after delete, got %d", got)
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	r, db := setupTest(t)
	user, token := authedUser(t, db, "bob", 50)

	w, _ := doJSON(t, r, http.MethodDelete, "/api/v1/records/99999", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if got := userPoints(t, db, user.ID); got != 50 {
		t.Errorf("expected balance untouched at 50, got %d", got)
	}
}

func TestCreateRecordRequiresAuth(t *testing.T) {
	r, _ := setupTest(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/records", "", gin.H{"period": "night"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCreateRecordRejectsBadPeriod(t *testing.T) {
	r, db := setupTest(t)
	_, token := authedUser(t, db, "carol", 0)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/records", token, gin.H{"period": "noon"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUserLevelEndpoint(t *testing.T) {
	r, db := setupTest(t)
	user, _ := authedUser(t, db, "dave", 250)

	w, env := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/level", user.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var data struct {
		Level int `json:"level"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode level: %v", err)
	}
	if data.Level != 2 {
		t.Errorf("expected level 2 for 250 points, got %d", data.Level)
	}
}

func TestEngagementEndpoint(t *testing.T) {
	r, db := setupTest(t)
	user, _ := authedUser(t, db, "erin", 0)

	w, env := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/engagement", user.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var snap services.EngagementSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.UserID != user.ID || snap.Level != 0 || snap.WeeklyBrushings != 0 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.Message == "" {
		t.Error("expected a motivational message")
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/users/424242/engagement", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", w.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	r, db := setupTest(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "frank",
		"password": "secret123",
		"confirm":  "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var reg struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if reg.Token == "" {
		t.Error("expected a token from register")
	}

	var user models.User
	if err := db.Where("name = ?", "frank").First(&user).Error; err != nil {
		t.Fatalf("registered user not persisted: %v", err)
	}
	if user.Points != 0 {
		t.Errorf("expected new user to start at 0 points, got %d", user.Points)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"name":     "frank",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"name":     "frank",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", w.Code)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	r, _ := setupTest(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "x",
		"password": "secret123",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("one-character name: expected 400, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "valid name",
		"password": "short",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("short password: expected 400, got %d", w.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	r, db := setupTest(t)
	_, token := authedUser(t, db, "henry", 0)

	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me before logout: expected 200, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", w.Code)
	}
}

func TestDeleteUserCascadesRecords(t *testing.T) {
	r, db := setupTest(t)
	user, token := authedUser(t, db, "grace", 0)

	for i := 0; i < 3; i++ {
		w, _ := doJSON(t, r, http.MethodPost, "/api/v1/records", token, gin.H{"period": "night"})
		if w.Code != http.StatusCreated {
			t.Fatalf("create record %d: got %d", i, w.Code)
		}
	}

	w, _ := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", user.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete user: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.BrushingRecord{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected records cascade-deleted, found %d", count)
	}
}
