package jwt

import (
	"testing"
	"time"
)

func TestInspectorExpired(t *testing.T) {
	m := newHSManager(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	tok, err := m.Issue("u", "u", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	in := NewInspector(5 * time.Second)
	exp, ok := in.Expiry(tok)
	if !ok || !exp.Equal(base.Add(time.Minute)) {
		t.Fatalf("expiry = %v, %v", exp, ok)
	}

	in.now = func() time.Time { return base.Add(30 * time.Second) }
	if in.Expired(tok) {
		t.Fatal("token must be live before exp")
	}
	in.now = func() time.Time { return base.Add(time.Minute + 3*time.Second) }
	if in.Expired(tok) {
		t.Fatal("leeway must tolerate small skew")
	}
	in.now = func() time.Time { return base.Add(2 * time.Minute) }
	if !in.Expired(tok) {
		t.Fatal("token must be expired after exp plus leeway")
	}
}

func TestInspectorOpaqueTokensNeverExpire(t *testing.T) {
	in := NewInspector(0)
	for _, tok := range []string{"", "opaque-session-token", "a.b.c"} {
		if in.Expired(tok) {
			t.Fatalf("opaque token %q reported expired", tok)
		}
	}
}

func TestInspectorIgnoresSignature(t *testing.T) {
	m := newHSManager(t)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _ := m.Issue("u", "u", nil)

	in := NewInspector(0)
	if !in.Expired(tok + "tampered") {
		t.Fatal("inspector reads exp regardless of signature")
	}
}

func FuzzInspectorNeverPanics(f *testing.F) {
	f.Add("eyJhbGciOiJIUzI1NiJ9.eyJleHAiOjF9.sig")
	f.Add("not-a-token")
	f.Fuzz(func(t *testing.T, tok string) {
		_ = NewInspector(time.Second).Expired(tok)
	})
}
