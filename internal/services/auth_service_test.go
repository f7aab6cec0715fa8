package services

import (
	"testing"
	"time"
)

func TestAuthRegisterAndLogin(t *testing.T) {
	store := newStubStore()
	svc := NewAuthService(store, func(uid, email string, ttl time.Duration) (string, error) {
		return "token:" + uid + ":" + email, nil
	})
	svc.now = fixedNow
	svc.idGen = func(prefix string, n int) string { return prefix + "1234567" }

	a, err := svc.Register(" Mod@Example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if a.ID != "a1234567" || a.Email != "mod@example.com" {
		t.Fatalf("unexpected admin %+v", a)
	}
	if _, err = svc.Register("mod@example.com", "correct-horse"); err == nil {
		t.Fatalf("expected conflict error on duplicate registration")
	}
	if ok, _ := svc.HasAdmins(); !ok {
		t.Fatalf("HasAdmins should be true")
	}

	res, err := svc.Login("MOD@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Token != "token:a1234567:mod@example.com" {
		t.Fatalf("unexpected token %q", res.Token)
	}
	if _, err := svc.Login("mod@example.com", "wrong-password"); err == nil {
		t.Fatalf("expected error for wrong password")
	}
	if _, err := svc.Login("missing@example.com", "correct-horse"); err == nil {
		t.Fatalf("expected error for missing admin")
	}
}

func TestAuthValidation(t *testing.T) {
	svc := NewAuthService(newStubStore(), nil)
	cases := []struct{ email, pass string }{
		{"", "correct-horse"},
		{"not-an-email", "correct-horse"},
		{"mod@example.com", "short"},
	}
	for _, c := range cases {
		_, err := svc.Register(c.email, c.pass)
		if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
			t.Fatalf("Register(%q) expected invalid, got %v", c.email, err)
		}
	}
	if _, err := svc.Login("", ""); err == nil {
		t.Fatalf("expected validation error")
	}
}
