package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const defaultResetTTL = time.Hour

const resetSubject = "Redefinição de senha FlowFix"

// Mailer delivers a single HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PasswordReset configures the forgot-password flow. URL is the front-end
// page the emailed link points at; the token is appended as the last path
// segment.
type PasswordReset struct {
	Mailer Mailer
	URL    string
	TTL    time.Duration
}

// ForgotPassword emails a time-limited reset link to the owner of email.
// Unknown and disabled accounts get no mail and no error, so the response
// does not reveal which addresses are registered.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validationError("O email é obrigatório.")
	}

	user, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return failure(s.log, "forgot password", err)
	}
	if user == nil || !user.IsActive {
		s.log.WithField("operation", "forgot password").Info("reset requested for unknown or disabled account")
		return nil
	}

	token, err := newResetToken()
	if err != nil {
		return failure(s.log, "forgot password", err)
	}
	expires := s.now().Add(s.reset.TTL)
	if err := s.repos.Users.SetResetToken(ctx, user.ID, hashResetToken(token), expires); err != nil {
		return failure(s.log, "forgot password", err)
	}

	if s.reset.Mailer == nil {
		s.log.WithField("user_id", user.ID).Warn("no mailer configured, reset link not sent")
		return &Error{Kind: ErrDelivery, Message: msgResetMailFailed}
	}
	link := strings.TrimRight(s.reset.URL, "/") + "/" + token
	if err := s.reset.Mailer.Send(ctx, user.Email, resetSubject, resetBody(user.Name, link, s.reset.TTL)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"operation": "forgot password",
			"user_id":   user.ID,
		}).Error("failed to send reset email")
		return &Error{Kind: ErrDelivery, Message: msgResetMailFailed, Err: err}
	}

	s.log.WithFields(logrus.Fields{"operation": "forgot password", "user_id": user.ID}).Info("reset email sent")
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token
// and consumes the token.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLength {
		return validationError(msgPasswordTooShort)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return validationError(msgResetTokenInvalid)
	}

	user, err := s.repos.Users.FindByResetToken(ctx, hashResetToken(token))
	if err != nil {
		return failure(s.log, "reset password", err)
	}
	if user == nil || user.ResetExpiresAt == nil || !s.now().Before(*user.ResetExpiresAt) {
		return validationError(msgResetTokenInvalid)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return failure(s.log, "reset password", err)
	}
	if err := s.repos.Users.CompleteReset(ctx, user.ID, string(hash)); err != nil {
		return failure(s.log, "reset password", err)
	}

	s.log.WithFields(logrus.Fields{"operation": "reset password", "user_id": user.ID}).Info("password reset")
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func resetBody(name, link string, ttl time.Duration) string {
	return fmt.Sprintf(`<p>Olá, %s.</p>
<p>Recebemos um pedido para redefinir a sua senha no FlowFix.</p>
<p><a href="%s">Clique aqui para criar uma nova senha</a>. O link expira em %d minutos.</p>
<p>Se você não fez este pedido, ignore este email.</p>`,
		html.EscapeString(name), html.EscapeString(link), int(ttl.Minutes()))
}
