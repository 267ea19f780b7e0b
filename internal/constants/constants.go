package constants

import "time"

// Context keys set by the authentication middleware.
const (
	ContextKeyUserID    = "user_id"
	ContextKeySessionID = "session_id"
	ContextKeyRequestID = "request_id"
)

// Login cookie managed through gin-contrib/sessions.
const (
	SessionCookieName = "session_id"
	SessionKeyToken   = "token"
	SessionCookieTTL  = time.Hour
)

const (
	MaxNameLength     = 45
	MinPasswordLength = 8
	MaxPasswordLength = 36

	// New accounts start with the weakest authority.
	DefaultUserPower = 100000
	DefaultUserRole  = "New User"
	DefaultUserType  = "User"

	DefaultIDMaxAttempts = 5
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
