package repository

import (
	"time"

	"github.com/yukikurage/secure-task-api/internal/models"
	"gorm.io/gorm"
)

// GormSessionRepository is a GORM implementation of SessionRepository
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

// Create persists a new session
func (r *GormSessionRepository) Create(session *models.Session) error {
	return r.db.Create(session).Error
}

// Exists reports whether a session with id exists in any status
func (r *GormSessionRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Session{}).Where("session_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindActive finds a logged in session by ID
func (r *GormSessionRepository) FindActive(id string) (*models.Session, error) {
	var session models.Session
	err := r.db.Where("session_id = ? AND status = ?", id, models.SessionLoggedIn).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkLoggedOff sets the session status to logged off and stamps the logout time.
// Sessions that are already logged off get a fresh logout time.
func (r *GormSessionRepository) MarkLoggedOff(id string, at time.Time) error {
	return r.db.Model(&models.Session{}).
		Where("session_id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.SessionLoggedOff,
			"logout_time": at,
		}).Error
}
