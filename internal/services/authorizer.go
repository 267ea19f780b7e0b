package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"gorm.io/gorm"
)

// Authorizer answers capability and power questions about users.
type Authorizer struct {
	userRepo repository.UserRepository
}

func NewAuthorizer(userRepo repository.UserRepository) *Authorizer {
	return &Authorizer{userRepo: userRepo}
}

// RequireCapability fails with ErrPermissionDenied unless userID has a
// permission row with capability set.
func (a *Authorizer) RequireCapability(userID string, capability models.Capability) error {
	permission, err := a.userRepo.FindPermission(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPermissionDenied
		}
		return fmt.Errorf("failed to load permissions: %w", err)
	}
	if !permission.Has(capability) {
		return ErrPermissionDenied
	}
	return nil
}

// RequireManage fails unless actor holds at least as much authority as target.
func (a *Authorizer) RequireManage(actor, target *models.User) error {
	if !actor.CanManage(*target) {
		return ErrPowerTooLow
	}
	return nil
}

// RequireGrant fails if actor would hand out more authority than it holds.
func (a *Authorizer) RequireGrant(actor *models.User, power int) error {
	if !actor.CanGrantPower(power) {
		return ErrPowerEscalation
	}
	return nil
}
