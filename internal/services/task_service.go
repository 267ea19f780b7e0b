package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"gorm.io/gorm"
)

const initialActivityComment = "Assigned"

// TaskService handles task business logic. Capability checks happen in the
// route middleware before any of these methods run.
type TaskService struct {
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	maxAttempts int
	generateID  idGenerator
	now         func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, maxAttempts int) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		maxAttempts: maxAttempts,
		generateID:  randomID,
		now:         time.Now,
	}
}

// CreateTaskInput represents input for creating a task. Assignees is a comma
// separated list of user ids.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     string
	Assignees   string
	CreatorID   string
}

// CreateTask stores a task with its "Created" activity and assignments and
// returns the new task id.
func (s *TaskService) CreateTask(input CreateTaskInput) (string, error) {
	if input.Title == "" || input.Description == "" || input.Priority == "" || input.DueDate == "" || input.Assignees == "" {
		return "", invalid("Missing required fields")
	}

	assignees := parseAssignees(input.Assignees)
	if len(assignees) == 0 {
		return "", invalid("Missing required fields")
	}

	dueDate, err := parseDueDate(input.DueDate)
	if err != nil {
		return "", err
	}

	if err := s.validateAssignees(assignees); err != nil {
		return "", err
	}

	taskID, err := uniqueID(s.generateID, s.taskRepo.Exists, s.maxAttempts)
	if err != nil {
		return "", err
	}

	now := s.now()
	task := &models.Task{
		TaskID:           taskID,
		Title:            input.Title,
		Description:      input.Description,
		AssignedDate:     now,
		DueDate:          dueDate,
		Priority:         input.Priority,
		AssignedByUserID: input.CreatorID,
	}
	activity := &models.TaskActivity{
		MarkedStatus:      models.TaskStatusCreated,
		ActivityTimeStamp: now,
		UserID:            input.CreatorID,
		Comments:          initialActivityComment,
	}

	if err := s.taskRepo.CreateWithActivity(task, activity, assignees); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	return taskID, nil
}

func (s *TaskService) validateAssignees(assignees []string) error {
	existing, err := s.userRepo.ExistingIDs(assignees)
	if err != nil {
		return fmt.Errorf("failed to check assignees: %w", err)
	}

	found := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}

	var missing []string
	for _, id := range assignees {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return invalid("Invalid users: " + strings.Join(missing, ", "))
	}
	return nil
}

// ListAssigned returns the tasks assigned to userID.
func (s *TaskService) ListAssigned(userID string) ([]repository.TaskWithActivity, error) {
	tasks, err := s.taskRepo.ListAssignedTo(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

// ListCreated returns the tasks created by userID.
func (s *TaskService) ListCreated(userID string) ([]repository.TaskWithActivity, error) {
	tasks, err := s.taskRepo.ListCreatedBy(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

// GetTask returns a task with its activity log, newest first.
func (s *TaskService) GetTask(taskID string) (*models.Task, []models.TaskActivity, error) {
	if taskID == "" {
		return nil, nil, invalid("Task ID is required")
	}

	task, err := s.findTask(taskID)
	if err != nil {
		return nil, nil, err
	}

	activities, err := s.taskRepo.ListActivities(taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return task, activities, nil
}

// UpdateStateInput represents a task state change.
type UpdateStateInput struct {
	TaskID       string
	UserID       string
	MarkedStatus string
	Comment      string
}

// UpdateState appends an activity entry; earlier entries are kept.
func (s *TaskService) UpdateState(input UpdateStateInput) error {
	if input.TaskID == "" {
		return invalid("Task ID is required")
	}
	if _, err := s.findTask(input.TaskID); err != nil {
		return err
	}
	if strings.TrimSpace(input.MarkedStatus) == "" {
		return invalid("Status is required")
	}

	activity := &models.TaskActivity{
		TaskID:            input.TaskID,
		MarkedStatus:      input.MarkedStatus,
		ActivityTimeStamp: s.now(),
		UserID:            input.UserID,
		Comments:          input.Comment,
	}
	if err := s.taskRepo.AddActivity(activity); err != nil {
		return fmt.Errorf("failed to add activity: %w", err)
	}
	return nil
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	TaskID      string
	Title       string
	Description string
	Priority    string
	DueDate     string
}

// UpdateTask replaces the editable fields of a task.
func (s *TaskService) UpdateTask(input UpdateTaskInput) error {
	if input.TaskID == "" {
		return invalid("Task ID is required")
	}

	task, err := s.findTask(input.TaskID)
	if err != nil {
		return err
	}

	if input.Title == "" || input.Description == "" || input.Priority == "" || input.DueDate == "" {
		return invalid("All fields are required")
	}
	dueDate, err := parseDueDate(input.DueDate)
	if err != nil {
		return err
	}

	task.Title = input.Title
	task.Description = input.Description
	task.Priority = input.Priority
	task.DueDate = dueDate

	if err := s.taskRepo.Update(task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// DeleteTask removes a task with its activity log and assignments.
func (s *TaskService) DeleteTask(taskID string) error {
	if taskID == "" {
		return invalid("Task ID is required")
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) findTask(taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// parseAssignees splits a comma separated id list, dropping blanks and duplicates.
func parseAssignees(raw string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func parseDueDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("Invalid due date format. Use YYYY-MM-DD or RFC 3339.")
}
