package mail

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"stayhub/internal/adapters/observability"
)

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

func (m *Mailer) SendOTP(ctx context.Context, to, name, otp string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour password reset code is %s. It expires in 10 minutes.\n\nIf you did not request a reset, you can ignore this email.",
		name, otp)
	return m.Send(ctx, to, "Your password reset code", body)
}

func (m *Mailer) Send(_ context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	start := time.Now()
	err := m.dialer.DialAndSend(msg)
	status := 0
	if err == nil {
		status = 250
	}
	observability.ObserveExternal("smtp", "send", status, time.Since(start))
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
