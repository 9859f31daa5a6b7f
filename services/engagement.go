package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dentio/brushtrack/models"
)

// weeklyWindow is the trailing window used for the frequency feature.
const weeklyWindow = 7 * 24 * time.Hour

// EngagementSnapshot is the composite read-only view returned to callers:
// derived level, weekly brushing count, the classifier's verdict and a
// motivational message. It is never persisted.
type EngagementSnapshot struct {
	UserID          uint             `json:"user_id"`
	Name            string           `json:"name"`
	Level           int              `json:"level"`
	Points          int              `json:"points"`
	WeeklyBrushings int              `json:"weekly_brushings"`
	Prediction      PredictionResult `json:"prediction"`
	Message         string           `json:"message"`
}

// EngagementService orchestrates the classifier and the message generator over
// a user's recent brushing history.
type EngagementService struct {
	db         *gorm.DB
	classifier *Classifier
	motivator  *MotivationGenerator
}

// NewEngagementService wires the service with its collaborators. The
// classifier must already be fitted (see InitClassifier).
func NewEngagementService(db *gorm.DB, classifier *Classifier, motivator *MotivationGenerator) *EngagementService {
	return &EngagementService{db: db, classifier: classifier, motivator: motivator}
}

// Snapshot builds the engagement view for one user. Read-only and idempotent:
// repeated calls without intervening mutations return identical output.
func (s *EngagementService) Snapshot(userID uint) (*EngagementSnapshot, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	weekly, err := s.WeeklyCount(userID, time.Now())
	if err != nil {
		return nil, err
	}

	prediction := s.classifier.Predict(float64(user.Points), float64(weekly))
	message := s.motivator.Generate(user.Level(), weekly, user.Points)

	return &EngagementSnapshot{
		UserID:          user.ID,
		Name:            user.Name,
		Level:           user.Level(),
		Points:          user.Points,
		WeeklyBrushings: weekly,
		Prediction:      prediction,
		Message:         message,
	}, nil
}

// WeeklyCount counts the user's brushing records inside the trailing 7-day
// window ending at now.
func (s *EngagementService) WeeklyCount(userID uint, now time.Time) (int, error) {
	var count int64
	err := s.db.Model(&models.BrushingRecord{}).
		Where("user_id = ? AND brushed_at >= ?", userID, now.Add(-weeklyWindow)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
