package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/infra/config"
	"github.com/stanokariz/peaceverse/internal/infra/logger"
)

// SMSClient delivers one-time codes through an HTTP SMS gateway. Calls go
// through a circuit breaker so a flapping gateway fails fast instead of
// holding signup requests open.
type SMSClient struct {
	cfg     config.SMSSettings
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewSMSClient(cfg config.SMSSettings, log *zap.Logger) *SMSClient {
	settings := gobreaker.Settings{
		Name:    "sms-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("sms gateway breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &SMSClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  log,
	}
}

type smsRequest struct {
	APIKey    string `json:"apikey"`
	PartnerID string `json:"partnerID"`
	Message   string `json:"message"`
	ShortCode string `json:"shortcode"`
	Mobile    string `json:"mobile"`
}

// SendSMSOTP sends the verification code to the given phone number.
func (c *SMSClient) SendSMSOTP(ctx context.Context, phoneNumber, code string) error {
	payload := smsRequest{
		APIKey:    c.cfg.APIKey,
		PartnerID: c.cfg.PartnerID,
		Message:   fmt.Sprintf("Your Peace-Verse verification code is %s. It expires in 5 minutes.", code),
		ShortCode: c.cfg.ShortCode,
		Mobile:    phoneNumber,
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal sms payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build sms request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call sms gateway: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("sms gateway responded %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		c.logger.Warn("sms otp dispatch failed",
			zap.String("phone", logger.MaskPhone(phoneNumber)),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("sms otp dispatched", zap.String("phone", logger.MaskPhone(phoneNumber)))
	return nil
}
