package models

import "time"

type SessionStatus string

const (
	SessionLoggedIn  SessionStatus = "Logged In"
	SessionLoggedOff SessionStatus = "Logged Off"
)

type Session struct {
	SessionID  string        `gorm:"primaryKey;type:varchar(64)" json:"session_id"`
	UserID     string        `gorm:"type:varchar(50);index;not null" json:"user_id"`
	LoginTime  time.Time     `gorm:"not null" json:"login_time"`
	LogoutTime *time.Time    `json:"logout_time"`
	Status     SessionStatus `gorm:"type:varchar(20);not null" json:"status"`
}
