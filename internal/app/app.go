package app

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/secure-task-api/internal/config"
	"github.com/yukikurage/secure-task-api/internal/constants"
	"github.com/yukikurage/secure-task-api/internal/handlers"
	"github.com/yukikurage/secure-task-api/internal/mail"
	"github.com/yukikurage/secure-task-api/internal/middleware"
	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"github.com/yukikurage/secure-task-api/internal/security"
	"github.com/yukikurage/secure-task-api/internal/services"
	"gorm.io/gorm"
)

// Dependencies are the external resources the router is built from.
type Dependencies struct {
	Config       *config.Config
	DB           *gorm.DB
	Challenges   repository.ChallengeStore
	Mailer       mail.Mailer
	SessionStore sessions.Store
	Hasher       *security.PasswordHasher
	Cipher       *security.SessionCipher
	Logger       *slog.Logger

	// ChallengeOptions are passed to the OTP engine. Tests use them to fix codes.
	ChallengeOptions []services.ChallengeOption
}

// New wires repositories, services and handlers and returns the router.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userRepo := repository.NewUserRepository(deps.DB)
	taskRepo := repository.NewTaskRepository(deps.DB)
	sessionRepo := repository.NewSessionRepository(deps.DB)

	challengeService := services.NewChallengeService(deps.Challenges, cfg.OTPTTL, deps.ChallengeOptions...)
	sessionService := services.NewSessionService(sessionRepo, deps.Cipher, cfg.SessionIDMaxAttempts)
	authorizer := services.NewAuthorizer(userRepo)
	authService := services.NewAuthService(userRepo, deps.Hasher, challengeService, sessionService, deps.Mailer)
	userService := services.NewUserService(userRepo, deps.Hasher, challengeService, authorizer, deps.Mailer)
	taskService := services.NewTaskService(taskRepo, userRepo, cfg.SessionIDMaxAttempts)

	authHandler := handlers.NewAuthHandler(authService, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.Authenticate(sessionService)
	requireCap := func(capability models.Capability, message string) gin.HandlerFunc {
		return middleware.RequireCapability(authorizer, capability, message)
	}

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/verifyOTP", authHandler.VerifyOTP)
			auth.POST("/login", authHandler.Login)
			auth.POST("/verifyLoginOTP", authHandler.VerifyLoginOTP)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/", requireAuth, authHandler.Check)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.POST("/getUser", userHandler.GetUser)
			users.POST("/renameUser", userHandler.RenameUser)
			users.POST("/emailChange", userHandler.EmailChange)
			users.POST("/verifyEmailOTP", userHandler.VerifyEmailOTP)
			users.POST("/passwordChange", userHandler.PasswordChange)
			users.POST("/verifyPasswordOTP", userHandler.VerifyPasswordOTP)
			users.POST("/searchUsers", userHandler.SearchUsers)
			users.POST("/getUserbyId", userHandler.GetUserByID)
			users.POST("/updateUser", userHandler.UpdateUser)
			users.POST("/deleteUser", userHandler.DeleteUser)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.POST("/createTask", requireCap(models.CapEditTaskState, "You do not have permission to create tasks."), taskHandler.CreateTask)
			tasks.POST("/getTasks", taskHandler.GetTasks)
			tasks.POST("/getTaskById", taskHandler.GetTaskByID)
			tasks.POST("/updateTaskState", requireCap(models.CapEditTaskState, "You do not have permission to update task state."), taskHandler.UpdateTaskState)
			tasks.POST("/getCreatedTasks", taskHandler.GetCreatedTasks)
			tasks.POST("/updateTask", requireCap(models.CapEditTask, "You do not have permission to edit tasks."), taskHandler.UpdateTask)
			tasks.POST("/deleteTask", requireCap(models.CapDeleteTask, "You do not have permission to delete tasks."), taskHandler.DeleteTask)
		}
	}

	return r
}
