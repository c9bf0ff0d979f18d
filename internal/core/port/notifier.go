package port

import "context"

// OTPMailer delivers one-time codes over email.
type OTPMailer interface {
	SendEmailOTP(ctx context.Context, address, code string) error
}

// OTPSMSSender delivers one-time codes over SMS.
type OTPSMSSender interface {
	SendSMSOTP(ctx context.Context, phoneNumber, code string) error
}
