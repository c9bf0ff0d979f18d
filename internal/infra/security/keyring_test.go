package security

import "testing"

func TestKeyringSeedIsDeterministic(t *testing.T) {
	a, err := NewKeyring("shared-secret", 5)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	b, err := NewKeyring("shared-secret", 5)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}

	if a.Current().KID != b.Current().KID {
		t.Fatalf("replicas seeded from the same secret must agree on the kid")
	}
}

func TestKeyringRejectsEmptySecret(t *testing.T) {
	if _, err := NewKeyring("", 5); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestKeyringRotateRetainsHistory(t *testing.T) {
	ring, err := NewKeyring("seed-secret", 3)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	seedKID := ring.Current().KID

	first, err := ring.Rotate()
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if ring.Current().KID != first.KID {
		t.Fatalf("rotated key must become current")
	}
	if _, ok := ring.ByKID(seedKID); !ok {
		t.Fatalf("seed key must remain resolvable after one rotation")
	}

	// Push the seed key off the end of the ring.
	if _, err := ring.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if _, err := ring.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	if ring.Len() != 3 {
		t.Fatalf("expected ring capped at 3 keys, got %d", ring.Len())
	}
	if _, ok := ring.ByKID(seedKID); ok {
		t.Fatalf("seed key must fall off after exceeding retention")
	}
	if _, ok := ring.ByKID(first.KID); !ok {
		t.Fatalf("key inside retention window must resolve")
	}
}
