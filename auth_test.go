package main

import (
	"strings"
	"testing"
)

func newTestAuth(t *testing.T) (*Auth, *DB) {
	t.Helper()
	db := openTestDB(t)
	return NewAuth(db), db
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	a, _ := newTestAuth(t)

	id, token, err := a.Register("frank", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 || token == "" {
		t.Fatal("register should return id and token")
	}

	loginID, loginToken, err := a.Login("frank", "hunter22", "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if loginID != id || loginToken == "" {
		t.Errorf("login id %d, want %d", loginID, id)
	}

	pid, usr, err := a.ValidateToken(loginToken)
	if err != nil {
		t.Fatal(err)
	}
	if pid != id || usr != "frank" {
		t.Errorf("token claims pid=%d usr=%q", pid, usr)
	}
}

func TestRegisterValidation(t *testing.T) {
	a, _ := newTestAuth(t)

	if _, _, err := a.Register("x", "hunter22"); err == nil {
		t.Error("one-char username should fail")
	}
	if _, _, err := a.Register(strings.Repeat("z", maxUsernameLen+1), "hunter22"); err == nil {
		t.Error("overlong username should fail")
	}
	if _, _, err := a.Register("grace", "short"); err == nil {
		t.Error("short password should fail")
	}
	if _, _, err := a.Register("grace", "hunter22"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.Register("grace", "different8"); err == nil {
		t.Error("taken username should fail")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	a, _ := newTestAuth(t)
	a.Register("heidi", "hunter22")

	if _, _, err := a.Login("heidi", "wrongpass", "1.2.3.4"); err == nil {
		t.Error("wrong password should fail")
	}
	if _, _, err := a.Login("nobody", "hunter22", "1.2.3.4"); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestLoginRateLimit(t *testing.T) {
	a, _ := newTestAuth(t)
	a.Register("ivan", "hunter22")

	for i := 0; i < maxLoginAttempts; i++ {
		a.Login("ivan", "wrongpass", "9.9.9.9")
	}
	if _, _, err := a.Login("ivan", "hunter22", "9.9.9.9"); err == nil {
		t.Error("attempts past the window limit should be refused")
	}
	// Other IPs are unaffected
	if _, _, err := a.Login("ivan", "hunter22", "8.8.8.8"); err != nil {
		t.Errorf("unrelated ip should still log in: %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	a, _ := newTestAuth(t)
	if _, _, err := a.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token should fail")
	}

	// A token signed with a different secret must not validate.
	other := NewAuth(nil)
	tok, err := other.generateToken(1, "mallory")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.ValidateToken(tok); err == nil {
		t.Error("foreign-signed token should fail")
	}
}

func TestSecretPersistsAcrossRestarts(t *testing.T) {
	db := openTestDB(t)
	a1 := NewAuth(db)
	_, token, err := a1.Register("judy", "hunter22")
	if err != nil {
		t.Fatal(err)
	}

	// Second Auth over the same database loads the same secret, so tokens
	// survive a server restart.
	a2 := NewAuth(db)
	pid, usr, err := a2.ValidateToken(token)
	if err != nil {
		t.Fatalf("token should survive restart: %v", err)
	}
	if usr != "judy" || pid == 0 {
		t.Errorf("claims pid=%d usr=%q", pid, usr)
	}
}
