package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/secure-task-api/internal/dto"
	apierrors "github.com/yukikurage/secure-task-api/internal/errors"
	"github.com/yukikurage/secure-task-api/internal/middleware"
	"github.com/yukikurage/secure-task-api/internal/services"
	"github.com/yukikurage/secure-task-api/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUser returns the profile of the current user.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	respondSuccess(c, "", gin.H{"user": dto.ToUserDetailsDTO(*user)})
}

func (h *UserHandler) RenameUser(c *gin.Context) {
	type RenameRequest struct {
		NewName string `json:"newName"`
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req RenameRequest
	if !bindBody(c, &req) {
		return
	}

	if err := h.userService.Rename(userID, req.NewName); err != nil {
		respondUserError(c, err)
		return
	}

	respondSuccess(c, "Name updated successfully.", nil)
}

// EmailChange mails a code to the requested address.
func (h *UserHandler) EmailChange(c *gin.Context) {
	type EmailChangeRequest struct {
		NewEmail string `json:"newEmail"`
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req EmailChangeRequest
	if !bindBody(c, &req) {
		return
	}

	if err := h.userService.RequestEmailChange(c.Request.Context(), userID, req.NewEmail); err != nil {
		respondUserError(c, err)
		return
	}

	respondSuccess(c, "OTP has been sent to "+req.NewEmail, nil)
}

func (h *UserHandler) VerifyEmailOTP(c *gin.Context) {
	type VerifyRequest struct {
		OTP string `json:"otp"`
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req VerifyRequest
	if !bindBody(c, &req) {
		return
	}

	if err := h.userService.VerifyEmailChange(c.Request.Context(), userID, req.OTP); err != nil {
		respondUserError(c, err)
		return
	}

	respondSuccess(c, "Email changed successfully.", nil)
}

// PasswordChange checks the current password and mails a code to the
// account address.
func (h *UserHandler) PasswordChange(c *gin.Context) {
	type PasswordChangeRequest struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req PasswordChangeRequest
	if !bindBody(c, &req) {
		return
	}

	masked, err := h.userService.RequestPasswordChange(c.Request.Context(), userID, services.PasswordChangeInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	respondSuccess(c, "An OTP has been sent to "+masked, nil)
}

func (h *UserHandler) VerifyPasswordOTP(c *gin.Context) {
	type VerifyRequest struct {
		OTP string `json:"otp"`
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req VerifyRequest
	if !bindBody(c, &req) {
		return
	}

	if err := h.userService.VerifyPasswordChange(c.Request.Context(), userID, req.OTP); err != nil {
		respondUserError(c, err)
		return
	}

	respondSuccess(c, "Password updated successfully.", nil)
}

// SearchUsers matches the term against user id and name. Paging comes
// from the page and limit query parameters.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	type SearchRequest struct {
		Search string `json:"search"`
	}

	var req SearchRequest
	if !bindBody(c, &req) {
		return
	}

	params := utils.GetPaginationParams(c)
	users, total, err := h.userService.Search(req.Search, params)
	if err != nil {
		respondUserError(c, err)
		return
	}

	response := dto.ToUserSearchResponse(users, params, total)
	respondSuccess(c, "", gin.H{
		"users":      response.Users,
		"pagination": response.Pagination,
	})
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	type GetUserRequest struct {
		UserID string `json:"user_id"`
	}

	var req GetUserRequest
	if !bindBody(c, &req) {
		return
	}
	user, err := h.userService.GetByID(req.UserID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	respondSuccess(c, "", gin.H{"user": dto.ToUserDetailsDTO(*user)})
}

// UpdateUser edits another user's profile, power and permissions.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	type TargetUser struct {
		UserID      string              `json:"user_id"`
		Name        *string             `json:"name"`
		Role        *string             `json:"role"`
		Power       *int                `json:"power"`
		Permissions *dto.PermissionsDTO `json:"permissions"`
	}
	type UpdateUserRequest struct {
		TargetUser *TargetUser `json:"targetUser"`
	}

	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !bindBody(c, &req) {
		return
	}
	var input services.UpdateUserInput
	if target := req.TargetUser; target != nil {
		input = services.UpdateUserInput{
			UserID: target.UserID,
			Name:   target.Name,
			Role:   target.Role,
			Power:  target.Power,
		}
		if target.Permissions != nil {
			permission := target.Permissions.ToModel()
			input.Permissions = &permission
		}
	}

	if err := h.userService.UpdateUser(actorID, input); err != nil {
		respondUserError(c, err)
		return
	}

	respondSuccess(c, "User details and permissions updated successfully.", nil)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	type DeleteUserRequest struct {
		TargetUser string `json:"targetUser"`
	}

	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req DeleteUserRequest
	if !bindBody(c, &req) {
		return
	}
	if err := h.userService.DeleteUser(actorID, req.TargetUser); err != nil {
		respondUserError(c, err)
		return
	}

	respondSuccess(c, fmt.Sprintf("User with ID %s deleted successfully.", req.TargetUser), nil)
}

// currentUser reads the id set by the authentication middleware.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return "", false
	}
	return userID, true
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrEmailInUse):
		apierrors.RespondWithCode(c, http.StatusBadRequest, apierrors.ErrCodeAlreadyExists, err.Error())
	case errors.Is(err, services.ErrWrongPassword):
		apierrors.RespondWithCode(c, http.StatusBadRequest, apierrors.ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, services.ErrInvalidChangeOTP):
		apierrors.RespondWithCode(c, http.StatusBadRequest, apierrors.ErrCodeInvalidOTP, err.Error())
	default:
		respondCommonError(c, err)
	}
}

