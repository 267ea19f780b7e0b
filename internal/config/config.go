package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	SessionStore          string
	SessionSecret         string
	EncryptionKey         string
	SessionCipherRandomIV bool
	SessionIDMaxAttempts  int
	CookieSecure          bool

	PasswordSalt string

	OTPStore string
	OTPTTL   time.Duration

	CORSOrigin string

	Mail MailConfig
}

type MailConfig struct {
	Driver       string
	From         string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	ResendAPIKey string
}

func Load() *Config {
	ginMode := getEnv("GIN_MODE", "debug")

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: ginMode,

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "taskuser"),
		DBPassword: getEnv("DB_PASSWORD", "taskpassword"),
		DBName:     getEnv("DB_NAME", "task_management"),
		DBPath:     getEnv("DB_PATH", "task_management.db"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		SessionStore:          strings.ToLower(getEnv("SESSION_STORE", "cookie")),
		SessionSecret:         getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		EncryptionKey:         getEnv("ENCRYPTION_KEY", "default-encryption-key-change-me"),
		SessionCipherRandomIV: getEnvBool("SESSION_CIPHER_RANDOM_IV", false),
		SessionIDMaxAttempts:  getEnvInt("SESSION_ID_MAX_ATTEMPTS", 5),
		CookieSecure:          getEnvBool("COOKIE_SECURE", ginMode == "release"),

		// bcrypt salt string: $2a$<cost>$<22 chars>
		PasswordSalt: getEnv("PASSWORD_SALT", "$2a$10$CwTycUXWue0Thq9StjUM0u"),

		OTPStore: strings.ToLower(getEnv("OTP_STORE", "database")),
		OTPTTL:   getEnvDuration("OTP_TTL", 0),

		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),

		Mail: MailConfig{
			Driver:       strings.ToLower(getEnv("MAIL_DRIVER", "log")),
			From:         getEnv("MAIL_FROM", "Task Manager <no-reply@example.com>"),
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPass:     getEnv("SMTP_PASS", ""),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
	}
}

// RedisAddr returns host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}
