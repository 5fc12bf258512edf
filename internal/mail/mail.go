// Package mail delivers the password reset emails.
package mail

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends HTML mail through an SMTP relay with PLAIN auth.
type SMTPSender struct {
	host     string
	port     string
	user     string
	password string
	from     string
	log      *logrus.Logger

	send sendFunc
	now  func() time.Time
}

func NewSMTPSender(host, port, user, password, from string, log *logrus.Logger) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		log:      log,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}

	msg := compose(s.from, to, subject, body, s.now())
	if err := s.send(net.JoinHostPort(s.host, s.port), auth, s.from, []string{to}, msg); err != nil {
		s.log.WithError(err).WithField("to", to).Error("smtp delivery failed")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.WithField("to", to).Debug("email sent")
	return nil
}

// compose builds an RFC 5322 message with an encoded subject and an HTML body.
func compose(from, to, subject, body string, date time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogSender writes messages to the log instead of delivering them. It is used
// when no SMTP relay is configured.
type LogSender struct {
	log *logrus.Logger
}

func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info(body)
	return nil
}
