package models

import "time"

const TaskStatusCreated = "Created"

// TaskActivity is an append-only log entry of a task.
type TaskActivity struct {
	ID                uint64    `gorm:"primarykey" json:"-"`
	TaskID            string    `gorm:"type:varchar(32);index;not null" json:"task_id"`
	MarkedStatus      string    `gorm:"type:varchar(50);not null" json:"marked_status"`
	ActivityTimeStamp time.Time `gorm:"not null" json:"activity_time_stamp"`
	UserID            string    `gorm:"type:varchar(50);not null" json:"user_id"`
	Comments          string    `gorm:"type:text" json:"comments"`
}
