package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yukikurage/secure-task-api/internal/config"
)

// Mailer delivers a plain text message to a single address.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns the Mailer selected by cfg.Driver.
func New(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Driver {
	case "smtp":
		return NewSMTPMailer(cfg), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("mail: RESEND_API_KEY is required for the resend driver")
		}
		return NewResendMailer(cfg.From, cfg.ResendAPIKey), nil
	case "log", "":
		return NewLogMailer(slog.Default()), nil
	default:
		return nil, fmt.Errorf("mail: unsupported driver %q", cfg.Driver)
	}
}

// OTPMessage builds the subject and body of a one-time code email.
// action is a lower case description such as "registration".
func OTPMessage(title, action, code string) (string, string) {
	return "Your OTP for " + title, fmt.Sprintf("Your OTP for %s is: %s", action, code)
}
