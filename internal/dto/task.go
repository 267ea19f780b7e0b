package dto

import (
	"time"

	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
)

// ActivityDTO represents one entry of a task's activity log
type ActivityDTO struct {
	MarkedStatus      string    `json:"marked_status"`
	ActivityTimeStamp time.Time `json:"activity_time_stamp"`
	UserID            string    `json:"user_id"`
	Comments          string    `json:"comments"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	TaskID           string    `json:"task_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	AssignedDate     time.Time `json:"assigned_date"`
	DueDate          time.Time `json:"due_date"`
	Priority         string    `json:"priority"`
	AssignedByUserID string    `json:"assigned_by_user_id"`
}

// TaskListItemDTO represents a task in list responses with its latest activity
type TaskListItemDTO struct {
	TaskDTO
	RecentLog *ActivityDTO `json:"recent_log"`
}

// TaskDetailDTO represents a task with its full activity log, newest first
type TaskDetailDTO struct {
	TaskDTO
	Logs []ActivityDTO `json:"logs"`
}

func ToActivityDTO(activity models.TaskActivity) ActivityDTO {
	return ActivityDTO{
		MarkedStatus:      activity.MarkedStatus,
		ActivityTimeStamp: activity.ActivityTimeStamp,
		UserID:            activity.UserID,
		Comments:          activity.Comments,
	}
}

func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		TaskID:           task.TaskID,
		Title:            task.Title,
		Description:      task.Description,
		AssignedDate:     task.AssignedDate,
		DueDate:          task.DueDate,
		Priority:         task.Priority,
		AssignedByUserID: task.AssignedByUserID,
	}
}

func ToTaskListItemDTOs(tasks []repository.TaskWithActivity) []TaskListItemDTO {
	items := make([]TaskListItemDTO, len(tasks))
	for i, t := range tasks {
		items[i] = TaskListItemDTO{TaskDTO: ToTaskDTO(t.Task)}
		if t.Recent != nil {
			recent := ToActivityDTO(*t.Recent)
			items[i].RecentLog = &recent
		}
	}
	return items
}

func ToTaskDetailDTO(task models.Task, activities []models.TaskActivity) TaskDetailDTO {
	logs := make([]ActivityDTO, len(activities))
	for i, activity := range activities {
		logs[i] = ToActivityDTO(activity)
	}
	return TaskDetailDTO{TaskDTO: ToTaskDTO(task), Logs: logs}
}
