package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/secure-task-api/internal/dto"
	apierrors "github.com/yukikurage/secure-task-api/internal/errors"
	"github.com/yukikurage/secure-task-api/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// taskRequest carries the task id most task endpoints take from the body.
type taskRequest struct {
	TaskID string `json:"task_id"`
}

// CreateTask creates a task assigned to the comma-separated user ids in userId.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		DueDate     string `json:"due_date"`
		UserID      string `json:"userId"`
	}

	creatorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if !bindBody(c, &req) {
		return
	}

	taskID, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Assignees:   req.UserID,
		CreatorID:   creatorID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	respondSuccess(c, "Task created successfully", gin.H{"taskId": taskID})
}

// GetTasks lists the tasks assigned to the current user with their latest activity.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListAssigned(userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	respondSuccess(c, "", gin.H{"tasks": dto.ToTaskListItemDTOs(tasks)})
}

// GetCreatedTasks lists the tasks the current user created.
func (h *TaskHandler) GetCreatedTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListCreated(userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	respondSuccess(c, "", gin.H{"tasks": dto.ToTaskListItemDTOs(tasks)})
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	var req taskRequest
	if !bindBody(c, &req) {
		return
	}

	task, activities, err := h.taskService.GetTask(req.TaskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	respondSuccess(c, "", gin.H{"task": dto.ToTaskDetailDTO(*task, activities)})
}

// UpdateTaskState appends an activity entry to the task log.
func (h *TaskHandler) UpdateTaskState(c *gin.Context) {
	type UpdateStateRequest struct {
		TaskID       string `json:"task_id"`
		MarkedStatus string `json:"marked_status"`
		Comment      string `json:"comment"`
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req UpdateStateRequest
	if !bindBody(c, &req) {
		return
	}

	err := h.taskService.UpdateState(services.UpdateStateInput{
		TaskID:       req.TaskID,
		UserID:       userID,
		MarkedStatus: req.MarkedStatus,
		Comment:      req.Comment,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	respondSuccess(c, "Task state updated successfully.", nil)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		TaskID      string `json:"task_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		DueDate     string `json:"due_date"`
	}

	var req UpdateTaskRequest
	if !bindBody(c, &req) {
		return
	}

	err := h.taskService.UpdateTask(services.UpdateTaskInput{
		TaskID:      req.TaskID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	respondSuccess(c, "Task updated successfully", nil)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	var req taskRequest
	if !bindBody(c, &req) {
		return
	}

	if err := h.taskService.DeleteTask(req.TaskID); err != nil {
		respondTaskError(c, err)
		return
	}

	respondSuccess(c, "Task deleted successfully", nil)
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrNoTasks):
		apierrors.NotFound(c, err.Error())
	default:
		respondCommonError(c, err)
	}
}
