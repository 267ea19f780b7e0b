package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/secure-task-api/internal/database"
	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/utils"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the registration transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreatePermission is returned when creating the permission row fails inside the registration transaction.
	ErrCreatePermission = errors.New("user repository: create permission failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithPermission creates a user and its permission row atomically.
func (r *GormUserRepository) CreateWithPermission(user *models.User, permission *models.Permission) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Permission").Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		permission.UserID = user.UserID
		if err := tx.Create(permission).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreatePermission, err)
		}

		user.Permission = *permission
		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("user_id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDWithPermission finds a user by ID with its permission row
func (r *GormUserRepository) FindByIDWithPermission(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Permission").Where("user_id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindPermission finds the permission row of a user
func (r *GormUserRepository) FindPermission(userID string) (*models.Permission, error) {
	var permission models.Permission
	if err := r.db.Where("user_id = ?", userID).First(&permission).Error; err != nil {
		return nil, err
	}
	return &permission, nil
}

// ExistingIDs returns the subset of ids that belong to existing users
func (r *GormUserRepository) ExistingIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	err := r.db.Model(&models.User{}).
		Where("user_id IN ?", ids).
		Pluck("user_id", &found).Error
	return found, err
}

func (r *GormUserRepository) UpdateName(id, name string) error {
	return r.updateColumn(id, "name", name)
}

func (r *GormUserRepository) UpdateEmail(id, email string) error {
	return r.updateColumn(id, "email", email)
}

func (r *GormUserRepository) UpdatePasswordHash(id, hash string) error {
	return r.updateColumn(id, "password_hash", hash)
}

func (r *GormUserRepository) updateColumn(id, column string, value interface{}) error {
	return r.db.Model(&models.User{}).Where("user_id = ?", id).Update(column, value).Error
}

// UpdateWithPermission updates the administrative fields of a user and replaces its permissions.
func (r *GormUserRepository) UpdateWithPermission(user *models.User, permission *models.Permission) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.User{}).
			Where("user_id = ?", user.UserID).
			Updates(map[string]interface{}{
				"name":  user.Name,
				"role":  user.Role,
				"power": user.Power,
			}).Error
		if err != nil {
			return err
		}

		permission.UserID = user.UserID
		return tx.Model(&models.Permission{}).
			Where("user_id = ?", user.UserID).
			Select("edit_user", "delete_user", "create_task", "edit_task", "delete_task", "edit_task_state").
			Updates(permission).Error
	})
}

// Delete removes a user together with its permissions and sessions.
func (r *GormUserRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Permission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}

		result := tx.Where("user_id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Search lists users whose id or name contains term
func (r *GormUserRepository) Search(term string, params utils.PaginationParams) ([]models.User, int64, error) {
	matching := database.Contains(term, "user_id", "name")

	var total int64
	if err := r.db.Model(&models.User{}).Scopes(matching).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := r.db.Scopes(matching).
		Order("user_id ASC").
		Scopes(database.Paginate(params)).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
