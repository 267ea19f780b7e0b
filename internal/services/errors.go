package services

import "errors"

// ValidationError reports malformed or missing input. The message is safe to
// show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// PermissionError reports a missing capability or insufficient power.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

var (
	ErrUserNotFound        = errors.New("User not found")
	ErrUsernameTaken       = errors.New("The provided username is already in use. Please choose another username.")
	ErrEmailTaken          = errors.New("The email address is already registered. Please try another email.")
	ErrEmailInUse          = errors.New("The email address is already in use by another account.")
	ErrInvalidCredentials  = errors.New("Invalid credentials")
	ErrWrongPassword       = errors.New("Current password is incorrect.")
	ErrInvalidOTP          = errors.New("Invalid OTP or OTP has expired")
	ErrInvalidChangeOTP    = errors.New("Invalid or expired OTP.")
	ErrOTPDelivery         = errors.New("Error sending OTP. Please try again later.")
	ErrInvalidSessionToken = errors.New("Invalid session ID.")
	ErrSessionNotFound     = errors.New("Invalid session or session has expired.")
	ErrIDSpaceExhausted    = errors.New("could not generate a unique identifier")
	ErrTaskNotFound        = errors.New("Task not found")
	ErrNoTasks             = errors.New("No tasks found for this user")

	ErrPermissionDenied = &PermissionError{Message: "Access denied"}
	ErrCannotEditSelf   = &PermissionError{Message: "You are not allowed to change your own permissions or role details"}
	ErrCannotDeleteSelf = &PermissionError{Message: "You are not allowed to delete your self"}
	ErrEditUserDenied   = &PermissionError{Message: "You do not have permission to edit user details."}
	ErrDeleteUserDenied = &PermissionError{Message: "You do not have permission to delete users."}
	ErrPowerTooLow      = &PermissionError{Message: "You do not have enough power to manage this user."}
	ErrPowerEscalation  = &PermissionError{Message: "You are not allowed to assign a power lower than your own."}
)
