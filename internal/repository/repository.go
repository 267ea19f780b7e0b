package repository

import (
	"context"
	"time"

	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithPermission creates a user and its permission row in a single transaction.
	CreateWithPermission(user *models.User, permission *models.Permission) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByIDWithPermission finds a user by ID with its permission row preloaded
	FindByIDWithPermission(id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindPermission finds the permission row of a user
	FindPermission(userID string) (*models.Permission, error)

	// ExistingIDs returns the subset of ids that belong to existing users
	ExistingIDs(ids []string) ([]string, error)

	// UpdateName sets the display name of a user
	UpdateName(id, name string) error

	// UpdateEmail sets the email of a user
	UpdateEmail(id, email string) error

	// UpdatePasswordHash sets the password digest of a user
	UpdatePasswordHash(id, hash string) error

	// UpdateWithPermission updates name, role, power and permissions in a single transaction.
	UpdateWithPermission(user *models.User, permission *models.Permission) error

	// Delete removes a user with its permissions and sessions in a single transaction.
	Delete(id string) error

	// Search lists users whose id or name contains term
	Search(term string, params utils.PaginationParams) ([]models.User, int64, error)
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// Create persists a new session
	Create(session *models.Session) error

	// Exists reports whether a session with id exists in any status
	Exists(id string) (bool, error)

	// FindActive finds a session by ID that is still logged in
	FindActive(id string) (*models.Session, error)

	// MarkLoggedOff sets the session status to logged off and stamps the logout time
	MarkLoggedOff(id string, at time.Time) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Exists reports whether a task with id exists
	Exists(id string) (bool, error)

	// CreateWithActivity creates a task, its first activity and one assignment per
	// assignee in a single transaction.
	CreateWithActivity(task *models.Task, activity *models.TaskActivity, assigneeIDs []string) error

	// FindByID finds a task by ID
	FindByID(id string) (*models.Task, error)

	// Update updates the editable fields of a task
	Update(task *models.Task) error

	// Delete removes a task with its activities and assignments in a single transaction.
	Delete(id string) error

	// AddActivity appends an activity to a task
	AddActivity(activity *models.TaskActivity) error

	// ListActivities lists the activities of a task, newest first
	ListActivities(taskID string) ([]models.TaskActivity, error)

	// ListAssignedTo lists tasks assigned to a user with their latest activity
	ListAssignedTo(userID string) ([]TaskWithActivity, error)

	// ListCreatedBy lists tasks created by a user with their latest activity
	ListCreatedBy(userID string) ([]TaskWithActivity, error)
}

// TaskWithActivity pairs a task with its most recent activity, if any.
type TaskWithActivity struct {
	Task   models.Task
	Recent *models.TaskActivity
}

// ChallengeStore holds at most one pending OTP challenge per subject.
type ChallengeStore interface {
	// Save inserts the challenge or replaces the one already stored for its subject
	Save(ctx context.Context, challenge *models.OTPChallenge) error

	// Find returns the challenge of subject or ErrChallengeNotFound
	Find(ctx context.Context, subject string) (*models.OTPChallenge, error)

	// Delete removes the challenge of subject; deleting a missing challenge is not an error
	Delete(ctx context.Context, subject string) error
}
