package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/secure-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrChallengeNotFound is returned when no challenge is pending for a subject.
var ErrChallengeNotFound = errors.New("challenge repository: challenge not found")

// GormChallengeStore keeps one otp_challenges row per subject.
type GormChallengeStore struct {
	db *gorm.DB
}

// NewChallengeStore creates a database backed ChallengeStore
func NewChallengeStore(db *gorm.DB) ChallengeStore {
	return &GormChallengeStore{db: db}
}

// Save upserts the challenge keyed by its subject.
func (s *GormChallengeStore) Save(ctx context.Context, challenge *models.OTPChallenge) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "password", "code", "purpose", "issued_at"}),
		}).
		Create(challenge).Error
}

func (s *GormChallengeStore) Find(ctx context.Context, subject string) (*models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	err := s.db.WithContext(ctx).Where("subject = ?", subject).First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

func (s *GormChallengeStore) Delete(ctx context.Context, subject string) error {
	return s.db.WithContext(ctx).Where("subject = ?", subject).Delete(&models.OTPChallenge{}).Error
}
