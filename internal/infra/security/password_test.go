package security

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "pw123456" {
		t.Fatalf("hash must not equal the password")
	}

	ok, err := VerifyPassword("pw123456", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatalf("correct password must verify")
	}

	ok, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Fatalf("wrong password must not verify")
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("pw123456", "not-a-hash"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}

	ok, err := VerifyPassword("", "")
	if err != nil || ok {
		t.Fatalf("empty inputs must fail closed, got %v %v", ok, err)
	}
}

func TestPasswordValidatorRules(t *testing.T) {
	v := NewPasswordValidator(MinLengthRule(6))

	if err := v.Validate("pw123456"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := v.Validate("pw1"); err == nil {
		t.Fatalf("short password must be rejected")
	}
}
