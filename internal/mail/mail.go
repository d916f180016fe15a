// Package mail delivers account emails: verification codes and temporary
// passwords.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/dohyunkim/moneytree/internal/domain"
)

// Sender delivers account emails. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendTemporaryPassword(ctx context.Context, email, password string) error
}

// SMTP sends through an authenticated SMTP relay with STARTTLS.
type SMTP struct {
	host     string
	port     int
	account  string
	password string
}

// NewSMTP constructs a sender for the given relay and account.
func NewSMTP(host string, port int, account, password string) *SMTP {
	return &SMTP{host: host, port: port, account: account, password: password}
}

func (s *SMTP) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.account, to, subject, body)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.account, s.password, s.host)

	if err := smtp.SendMail(addr, auth, s.account, []string{to}, []byte(msg)); err != nil {
		return domain.DependencyErr("send mail", err)
	}
	return nil
}

func (s *SMTP) SendVerificationCode(ctx context.Context, email, code string) error {
	return s.send(email, "Verification Code", fmt.Sprintf("Your verification code is: %s", code))
}

func (s *SMTP) SendTemporaryPassword(ctx context.Context, email, password string) error {
	return s.send(email, "Temporary Password", fmt.Sprintf("Your temporary password is: %q", password))
}
