package models

import "time"

type ChallengePurpose string

const (
	PurposeRegister       ChallengePurpose = "register"
	PurposeLogin          ChallengePurpose = "login"
	PurposeEmailChange    ChallengePurpose = "Email Change"
	PurposePasswordChange ChallengePurpose = "Password Change"
)

// OTPChallenge is the single pending action of a subject. Saving a new
// challenge for the same subject replaces the previous one.
type OTPChallenge struct {
	Subject  string           `gorm:"primaryKey;type:varchar(50)" json:"subject"`
	Email    string           `gorm:"type:varchar(255)" json:"email"`
	Password string           `gorm:"type:varchar(255)" json:"-"`
	Code     string           `gorm:"type:varchar(6);not null" json:"-"`
	Purpose  ChallengePurpose `gorm:"type:varchar(20);not null" json:"purpose"`
	IssuedAt time.Time        `gorm:"not null" json:"issued_at"`
}
