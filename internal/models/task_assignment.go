package models

// TaskAssignment maps a task to one of its assignees.
type TaskAssignment struct {
	TaskID string `gorm:"primarykey;type:varchar(32)" json:"task_id"`
	UserID string `gorm:"primarykey;type:varchar(50)" json:"user_id"`
}
