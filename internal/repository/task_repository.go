package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/secure-task-api/internal/database"
	"github.com/yukikurage/secure-task-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateTask is returned when inserting the task row fails inside the creation transaction.
	ErrCreateTask = errors.New("task repository: create task failed")
	// ErrCreateActivity is returned when inserting the initial activity fails inside the creation transaction.
	ErrCreateActivity = errors.New("task repository: create activity failed")
	// ErrCreateAssignment is returned when inserting an assignment fails inside the creation transaction.
	ErrCreateAssignment = errors.New("task repository: create assignment failed")
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Exists reports whether a task with id exists
func (r *GormTaskRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Task{}).Where("task_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateWithActivity writes the task, its first activity and its assignments atomically.
func (r *GormTaskRepository) CreateWithActivity(task *models.Task, activity *models.TaskActivity, assigneeIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Activities", "Assignments").Create(task).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateTask, err)
		}

		activity.TaskID = task.TaskID
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateActivity, err)
		}

		for _, userID := range assigneeIDs {
			assignment := models.TaskAssignment{TaskID: task.TaskID, UserID: userID}
			if err := tx.Create(&assignment).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrCreateAssignment, err)
			}
		}

		return nil
	})
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("task_id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update updates title, description, priority and due date of a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Model(&models.Task{}).
		Where("task_id = ?", task.TaskID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"priority":    task.Priority,
			"due_date":    task.DueDate,
		}).Error
}

// Delete removes the task together with its activity log and assignments.
func (r *GormTaskRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskActivity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		result := tx.Where("task_id = ?", id).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddActivity appends an activity to a task
func (r *GormTaskRepository) AddActivity(activity *models.TaskActivity) error {
	return r.db.Create(activity).Error
}

// ListActivities lists the activities of a task, newest first
func (r *GormTaskRepository) ListActivities(taskID string) ([]models.TaskActivity, error) {
	var activities []models.TaskActivity
	err := r.db.Where("task_id = ?", taskID).
		Scopes(database.NewestActivityFirst).
		Find(&activities).Error
	return activities, err
}

// ListAssignedTo lists tasks assigned to a user with their latest activity
func (r *GormTaskRepository) ListAssignedTo(userID string) ([]TaskWithActivity, error) {
	assigned := r.db.Model(&models.TaskAssignment{}).
		Select("task_id").
		Where("user_id = ?", userID)

	var tasks []models.Task
	err := r.db.Where("task_id IN (?)", assigned).
		Order("assigned_date DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return r.withRecentActivity(tasks)
}

// ListCreatedBy lists tasks created by a user with their latest activity
func (r *GormTaskRepository) ListCreatedBy(userID string) ([]TaskWithActivity, error) {
	var tasks []models.Task
	err := r.db.Where("assigned_by_user_id = ?", userID).
		Order("assigned_date DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return r.withRecentActivity(tasks)
}

func (r *GormTaskRepository) withRecentActivity(tasks []models.Task) ([]TaskWithActivity, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.TaskID
	}

	var activities []models.TaskActivity
	err := r.db.Where("task_id IN ?", ids).
		Scopes(database.NewestActivityFirst).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}

	recent := make(map[string]*models.TaskActivity, len(tasks))
	for i := range activities {
		if _, ok := recent[activities[i].TaskID]; !ok {
			recent[activities[i].TaskID] = &activities[i]
		}
	}

	result := make([]TaskWithActivity, len(tasks))
	for i, task := range tasks {
		result[i] = TaskWithActivity{Task: task, Recent: recent[task.TaskID]}
	}
	return result, nil
}
