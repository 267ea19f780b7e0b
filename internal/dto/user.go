package dto

import (
	"bytes"
	"fmt"

	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/utils"
)

// Flag is a capability flag. Requests may send it as a JSON boolean or as
// the integers 1 and 0; responses always carry a boolean.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("invalid permission flag %s", data)
	}
	return nil
}

// PermissionsDTO represents the capability flags of a user
type PermissionsDTO struct {
	EditUser      Flag `json:"edit_user"`
	DeleteUser    Flag `json:"delete_user"`
	CreateTask    Flag `json:"create_task"`
	EditTask      Flag `json:"edit_task"`
	DeleteTask    Flag `json:"delete_task"`
	EditTaskState Flag `json:"edit_task_state"`
}

// UserDetailsDTO represents a user with its permissions
type UserDetailsDTO struct {
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Power       int            `json:"power"`
	Role        string         `json:"role"`
	Type        string         `json:"type"`
	Permissions PermissionsDTO `json:"permissions"`
}

// UserSummaryDTO represents a user in search results
type UserSummaryDTO struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// UserSearchResponse represents a page of search results
type UserSearchResponse struct {
	Users      []UserSummaryDTO         `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

func ToPermissionsDTO(p models.Permission) PermissionsDTO {
	return PermissionsDTO{
		EditUser:      Flag(p.EditUser),
		DeleteUser:    Flag(p.DeleteUser),
		CreateTask:    Flag(p.CreateTask),
		EditTask:      Flag(p.EditTask),
		DeleteTask:    Flag(p.DeleteTask),
		EditTaskState: Flag(p.EditTaskState),
	}
}

// ToModel converts the flags back to a permission row
func (p PermissionsDTO) ToModel() models.Permission {
	return models.Permission{
		EditUser:      bool(p.EditUser),
		DeleteUser:    bool(p.DeleteUser),
		CreateTask:    bool(p.CreateTask),
		EditTask:      bool(p.EditTask),
		DeleteTask:    bool(p.DeleteTask),
		EditTaskState: bool(p.EditTaskState),
	}
}

func ToUserDetailsDTO(user models.User) UserDetailsDTO {
	return UserDetailsDTO{
		UserID:      user.UserID,
		Name:        user.Name,
		Email:       user.Email,
		Power:       user.Power,
		Role:        user.Role,
		Type:        user.Type,
		Permissions: ToPermissionsDTO(user.Permission),
	}
}

func ToUserSearchResponse(users []models.User, params utils.PaginationParams, total int64) UserSearchResponse {
	summaries := make([]UserSummaryDTO, len(users))
	for i, user := range users {
		summaries[i] = UserSummaryDTO{UserID: user.UserID, Name: user.Name}
	}
	return UserSearchResponse{
		Users: summaries,
		Pagination: params.Response(total),
	}
}
