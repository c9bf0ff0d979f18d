package security

import (
	"testing"
	"time"
)

func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}

func TestVerifyOTP(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	code := "123456"
	expiry := now.Add(5 * time.Minute)

	if !VerifyOTP("123456", &code, &expiry, now) {
		t.Fatalf("matching code within expiry must verify")
	}
	if VerifyOTP("654321", &code, &expiry, now) {
		t.Fatalf("wrong code must not verify")
	}
	if VerifyOTP("123456", &code, &expiry, now.Add(6*time.Minute)) {
		t.Fatalf("expired code must not verify")
	}
	if VerifyOTP("123456", nil, &expiry, now) {
		t.Fatalf("absent stored code must not verify")
	}
	if VerifyOTP("123456", &code, nil, now) {
		t.Fatalf("absent expiry must not verify")
	}
	if VerifyOTP("12345", &code, &expiry, now) {
		t.Fatalf("length mismatch must not verify")
	}
}
