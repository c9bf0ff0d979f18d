package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/infra/logger"
)

// DevLogDispatcher logs codes instead of sending them. Used when no SMTP
// host or SMS gateway is configured.
type DevLogDispatcher struct {
	logger *zap.Logger
}

func NewDevLogDispatcher(log *zap.Logger) *DevLogDispatcher {
	return &DevLogDispatcher{logger: log}
}

func (d *DevLogDispatcher) SendEmailOTP(_ context.Context, address, code string) error {
	d.logger.Info("dev email otp",
		zap.String("email", logger.MaskEmail(address)),
		zap.String("code", code),
	)
	return nil
}

func (d *DevLogDispatcher) SendSMSOTP(_ context.Context, phoneNumber, code string) error {
	d.logger.Info("dev sms otp",
		zap.String("phone", logger.MaskPhone(phoneNumber)),
		zap.String("code", code),
	)
	return nil
}
