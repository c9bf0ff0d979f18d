package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/infra/config"
	"github.com/stanokariz/peaceverse/internal/infra/logger"
)

// SMTPMailer delivers one-time codes over plain SMTP with AUTH.
type SMTPMailer struct {
	cfg    config.SMTPSettings
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.SMTPSettings, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: log, send: smtp.SendMail}
}

// SendEmailOTP sends the verification code to the given address.
func (m *SMTPMailer) SendEmailOTP(ctx context.Context, address, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"From: Peace-Verse <%s>\r\nTo: %s\r\nSubject: Your Peace-Verse verification code\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\nYour verification code is %s. It expires in 5 minutes.\r\n",
		m.cfg.From, address, code,
	)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{address}, []byte(body)); err != nil {
		m.logger.Warn("email otp dispatch failed",
			zap.String("email", logger.MaskEmail(address)),
			zap.Error(err),
		)
		return fmt.Errorf("send email otp: %w", err)
	}

	m.logger.Info("email otp dispatched", zap.String("email", logger.MaskEmail(address)))
	return nil
}
