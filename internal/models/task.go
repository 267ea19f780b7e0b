package models

import "time"

type Task struct {
	TaskID           string    `gorm:"primaryKey;type:varchar(32)" json:"task_id"`
	Title            string    `gorm:"not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	AssignedDate     time.Time `gorm:"not null" json:"assigned_date"`
	DueDate          time.Time `json:"due_date"`
	Priority         string    `gorm:"type:varchar(20)" json:"priority"`
	AssignedByUserID string    `gorm:"type:varchar(50);index;not null" json:"assigned_by_user_id"`

	// Relations
	Activities  []TaskActivity   `gorm:"foreignKey:TaskID" json:"-"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"-"`
}
