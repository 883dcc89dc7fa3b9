package service

import (
	"errors"
	"testing"
)

func TestEnsureAdminAndAuthenticate(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb)

	if err := svc.EnsureAdmin("admin@example.com", "hunter22"); err != nil {
		t.Fatalf("ensure admin failed: %v", err)
	}

	// 重复引导不应新建账号
	if err := svc.EnsureAdmin("admin@example.com", "other"); err != nil {
		t.Fatalf("repeat ensure failed: %v", err)
	}

	user, err := svc.Authenticate("Admin@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if user.Email != "admin@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}

	if _, err := svc.Authenticate("admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password accepted: %v", err)
	}
	if _, err := svc.Authenticate("ghost@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user accepted: %v", err)
	}
}

func TestEnsureAdminSkipsWhenUnconfigured(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb)
	if err := svc.EnsureAdmin("", ""); err != nil {
		t.Fatalf("unconfigured bootstrap should be a no-op: %v", err)
	}
}
