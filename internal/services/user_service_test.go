package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/utils"
	"gorm.io/gorm"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func adminPermission() models.Permission {
	return models.Permission{EditUser: true, DeleteUser: true}
}

func TestUserService_PowerHierarchy(t *testing.T) {
	env := setupServiceEnv(t)
	env.seedUser(t, "a", "Passw0rd!", 10, adminPermission())
	env.seedUser(t, "b", "Passw0rd!", 20, models.Permission{})
	env.seedUser(t, "c", "Passw0rd!", 5, models.Permission{})

	// A may manage B.
	err := env.users.UpdateUser("a", UpdateUserInput{
		UserID:      "b",
		Name:        strPtr("Bee"),
		Role:        strPtr("Lead"),
		Power:       intPtr(15),
		Permissions: &models.Permission{EditTask: true},
	})
	require.NoError(t, err)

	b, err := env.userRepo.FindByIDWithPermission("b")
	require.NoError(t, err)
	assert.Equal(t, "Bee", b.Name)
	assert.Equal(t, "Lead", b.Role)
	assert.Equal(t, 15, b.Power)
	assert.True(t, b.Permission.EditTask)

	// A cannot manage C, who outranks A.
	err = env.users.UpdateUser("a", UpdateUserInput{UserID: "c", Power: intPtr(50)})
	assert.ErrorIs(t, err, ErrPowerTooLow)
	assert.ErrorIs(t, env.users.DeleteUser("a", "c"), ErrPowerTooLow)

	// A cannot lift B above itself.
	err = env.users.UpdateUser("a", UpdateUserInput{UserID: "b", Power: intPtr(9)})
	assert.ErrorIs(t, err, ErrPowerEscalation)

	// Equal power is allowed.
	require.NoError(t, env.users.UpdateUser("a", UpdateUserInput{UserID: "b", Power: intPtr(10)}))

	require.NoError(t, env.users.DeleteUser("a", "b"))
	_, err = env.userRepo.FindByID("b")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserService_SelfTargetingForbidden(t *testing.T) {
	env := setupServiceEnv(t)
	env.seedUser(t, "a", "Passw0rd!", 10, adminPermission())

	assert.ErrorIs(t, env.users.UpdateUser("a", UpdateUserInput{UserID: "a", Power: intPtr(1)}), ErrCannotEditSelf)
	assert.ErrorIs(t, env.users.DeleteUser("a", "a"), ErrCannotDeleteSelf)
}

func TestUserService_AdminRequiresCapability(t *testing.T) {
	env := setupServiceEnv(t)
	env.seedUser(t, "a", "Passw0rd!", 1, models.Permission{})
	env.seedUser(t, "b", "Passw0rd!", 20, models.Permission{})

	assert.ErrorIs(t, env.users.UpdateUser("a", UpdateUserInput{UserID: "b"}), ErrEditUserDenied)
	assert.ErrorIs(t, env.users.DeleteUser("a", "b"), ErrDeleteUserDenied)

	var perr *PermissionError
	assert.ErrorAs(t, env.users.DeleteUser("a", "b"), &perr)
}

func TestUserService_AdminMissingTarget(t *testing.T) {
	env := setupServiceEnv(t)
	env.seedUser(t, "a", "Passw0rd!", 1, adminPermission())

	assert.ErrorIs(t, env.users.UpdateUser("a", UpdateUserInput{UserID: "ghost"}), ErrUserNotFound)
	assert.ErrorIs(t, env.users.DeleteUser("a", "ghost"), ErrUserNotFound)
}

func TestUserService_Rename(t *testing.T) {
	env := setupServiceEnv(t)
	env.seedUser(t, "alice", "Passw0rd!", 100, models.Permission{})

	require.NoError(t, env.users.Rename("alice", "  Alice Liddell "))
	user, err := env.users.GetProfile("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", user.Name)

	var verr *ValidationError
	assert.ErrorAs(t, env.users.Rename("alice", "   "), &verr)
	assert.ErrorAs(t, env.users.Rename("alice", string(make([]byte, 46))), &verr)
}

func TestUserService_EmailChange(t *testing.T) {
	env := setupServiceEnv(t, fixedCode("246810"))
	ctx := context.Background()
	env.seedUser(t, "alice", "Passw0rd!", 100, models.Permission{})
	env.seedUser(t, "bob", "Passw0rd!", 100, models.Permission{})

	var verr *ValidationError
	assert.ErrorAs(t, env.users.RequestEmailChange(ctx, "alice", "bad address"), &verr)
	assert.ErrorIs(t, env.users.RequestEmailChange(ctx, "alice", "bob@example.com"), ErrEmailInUse)

	require.NoError(t, env.users.RequestEmailChange(ctx, "alice", "alice+new@x.com"))
	assert.Equal(t, "alice+new@x.com", env.mailer.last().to)
	assert.Equal(t, "Your OTP for Email Change", env.mailer.last().subject)

	assert.ErrorIs(t, env.users.VerifyEmailChange(ctx, "alice", "000000"), ErrInvalidChangeOTP)
	require.NoError(t, env.users.VerifyEmailChange(ctx, "alice", "246810"))

	user, err := env.users.GetProfile("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice+new@x.com", user.Email)
	assert.Zero(t, env.challengeCount(t))
}

func TestUserService_PasswordChange(t *testing.T) {
	env := setupServiceEnv(t, fixedCode("135790"))
	ctx := context.Background()
	env.seedUser(t, "alice", "Passw0rd!", 100, models.Permission{})

	var verr *ValidationError
	_, err := env.users.RequestPasswordChange(ctx, "alice", PasswordChangeInput{CurrentPassword: "Passw0rd!", NewPassword: "short", ConfirmPassword: "short"})
	assert.ErrorAs(t, err, &verr)
	_, err = env.users.RequestPasswordChange(ctx, "alice", PasswordChangeInput{CurrentPassword: "Passw0rd!", NewPassword: "LongEnough1", ConfirmPassword: "LongEnough2"})
	assert.ErrorAs(t, err, &verr)
	_, err = env.users.RequestPasswordChange(ctx, "alice", PasswordChangeInput{CurrentPassword: "nope", NewPassword: "LongEnough1", ConfirmPassword: "LongEnough1"})
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Zero(t, env.challengeCount(t))

	masked, err := env.users.RequestPasswordChange(ctx, "alice", PasswordChangeInput{CurrentPassword: "Passw0rd!", NewPassword: "LongEnough1", ConfirmPassword: "LongEnough1"})
	require.NoError(t, err)
	assert.Equal(t, "al****@example.com", masked)
	assert.Equal(t, "alice@example.com", env.mailer.last().to)

	// The digest is only replaced after verification.
	user, err := env.userRepo.FindByID("alice")
	require.NoError(t, err)
	assert.True(t, env.hasher.Verify("Passw0rd!", user.PasswordHash))

	require.NoError(t, env.users.VerifyPasswordChange(ctx, "alice", "135790"))

	user, err = env.userRepo.FindByID("alice")
	require.NoError(t, err)
	assert.True(t, env.hasher.Verify("LongEnough1", user.PasswordHash))
	assert.Zero(t, env.challengeCount(t))
}

func TestUserService_SearchAndGet(t *testing.T) {
	env := setupServiceEnv(t)
	env.seedUser(t, "alice", "Passw0rd!", 100, models.Permission{CreateTask: true})
	env.seedUser(t, "bob", "Passw0rd!", 100, models.Permission{})

	users, total, err := env.users.Search("ali", utils.PaginationParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].UserID)

	_, _, err = env.users.Search(" ", utils.PaginationParams{Page: 1, Limit: 20})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	user, err := env.users.GetByID("alice")
	require.NoError(t, err)
	assert.True(t, user.Permission.CreateTask)

	_, err = env.users.GetByID("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
