package models

import "time"

// User is keyed by the handle chosen at registration.
type User struct {
	UserID       string    `gorm:"primaryKey;type:varchar(50)" json:"user_id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(36);not null" json:"-"`
	Name         string    `gorm:"type:varchar(45)" json:"name"`
	Type         string    `gorm:"type:varchar(20);not null" json:"type"`
	Role         string    `gorm:"type:varchar(50)" json:"role"`
	Power        int       `gorm:"not null" json:"power"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Permission Permission `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Sessions   []Session  `gorm:"foreignKey:UserID" json:"-"`
}

// CanManage reports whether u holds enough power to modify target.
// A lower power value means more authority.
func (u User) CanManage(target User) bool {
	return u.Power <= target.Power
}

// CanGrantPower reports whether u may set another user's power to power.
func (u User) CanGrantPower(power int) bool {
	return power >= u.Power
}
