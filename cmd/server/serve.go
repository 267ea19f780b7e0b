package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/yukikurage/secure-task-api/internal/app"
	"github.com/yukikurage/secure-task-api/internal/config"
	"github.com/yukikurage/secure-task-api/internal/constants"
	"github.com/yukikurage/secure-task-api/internal/database"
	"github.com/yukikurage/secure-task-api/internal/mail"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"github.com/yukikurage/secure-task-api/internal/security"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(config.Load())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config) error {
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	gin.SetMode(cfg.GinMode)

	if err := database.Connect(cfg); err != nil {
		return err
	}
	if err := database.Migrate(); err != nil {
		return err
	}

	hasher, err := security.NewPasswordHasher(cfg.PasswordSalt)
	if err != nil {
		return fmt.Errorf("invalid PASSWORD_SALT: %w", err)
	}
	cipher, err := security.NewSessionCipher(cfg.EncryptionKey, cfg.SessionCipherRandomIV)
	if err != nil {
		return fmt.Errorf("invalid ENCRYPTION_KEY: %w", err)
	}

	challenges, err := newChallengeStore(cfg)
	if err != nil {
		return err
	}

	mailer, err := mail.New(cfg.Mail)
	if err != nil {
		return err
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		return err
	}

	router := app.New(app.Dependencies{
		Config:       cfg,
		DB:           database.GetDB(),
		Challenges:   challenges,
		Mailer:       mailer,
		SessionStore: store,
		Hasher:       hasher,
		Cipher:       cipher,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withCORS(cfg, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newChallengeStore returns the OTP challenge store selected by OTP_STORE.
func newChallengeStore(cfg *config.Config) (repository.ChallengeStore, error) {
	switch cfg.OTPStore {
	case "database", "":
		return repository.NewChallengeStore(database.GetDB()), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return repository.NewRedisChallengeStore(client, cfg.OTPTTL), nil
	default:
		return nil, fmt.Errorf("unsupported OTP_STORE %q", cfg.OTPStore)
	}
}

// newSessionStore returns the store backing the login cookie.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "cookie", "":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	case "redis":
		rs, err := redisStore.NewStore(
			10,
			"tcp",
			cfg.RedisAddr(),
			"",
			cfg.RedisPassword,
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis session store: %w", err)
		}
		store = rs
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(constants.SessionCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
	return store, nil
}

// withCORS allows the configured comma separated origins to call the API
// with credentials.
func withCORS(cfg *config.Config, next http.Handler) http.Handler {
	var origins []string
	for _, p := range strings.Split(cfg.CORSOrigin, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})(next)
}
