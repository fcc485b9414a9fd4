package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mindmaster/mindmapd/internal/common"
	"github.com/mindmaster/mindmapd/internal/server/auth"
	"github.com/mindmaster/mindmapd/internal/server/config"
)

func pinClock(t *testing.T, at int64) {
	t.Helper()
	old := timeNow
	timeNow = func() int64 { return at }
	t.Cleanup(func() { timeNow = old })
}

func newUserService(rm *fakeRepoManager) *UserService {
	cfg := &config.Config{
		SecretKey:             "test-secret",
		TokenValidityDuration: time.Hour,
		AdminUsername:         "admin",
		AdminPassword:         "password",
	}
	return NewUserService(nil, rm, cfg)
}

func TestRegister_IssuesWorkingToken(t *testing.T) {
	pinClock(t, 1700000000)
	rm := newFakeRepoManager()
	svc := newUserService(rm)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID == 0 || user.IsAdmin {
		t.Fatalf("unexpected user: %+v", user)
	}

	resolved, err := svc.ResolveToken(ctx, token)
	if err != nil {
		t.Fatalf("ResolveToken error: %v", err)
	}
	if resolved.ID != user.ID || resolved.Username != "alice" {
		t.Fatalf("token resolved to wrong user: %+v", resolved)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	pinClock(t, 1700000000)
	rm := newFakeRepoManager()
	svc := newUserService(rm)
	ctx := context.Background()

	first, _, err := svc.Register(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	firstHash := rm.users.byID[first.ID].PasswordHash

	_, _, err = svc.Register(ctx, "alice", "other-password")
	if !errors.Is(err, common.ErrorUsernameTaken) {
		t.Fatalf("expected ErrorUsernameTaken, got %v", err)
	}
	if rm.users.byID[first.ID].PasswordHash != firstHash {
		t.Fatalf("first account's verifier must stay unchanged")
	}
}

func TestLogin_RightAndWrongPassword(t *testing.T) {
	pinClock(t, 1700000000)
	rm := newFakeRepoManager()
	svc := newUserService(rm)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("Login with right password error: %v", err)
	}

	_, _, err := svc.Login(ctx, "alice", "wrong")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized for wrong password, got %v", err)
	}

	// unknown user fails with the same error, no enumeration signal
	_, _, err = svc.Login(ctx, "ghost", "hunter22")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized for unknown user, got %v", err)
	}
}

func TestResolveToken_DeletedUser(t *testing.T) {
	pinClock(t, 1700000000)
	rm := newFakeRepoManager()
	svc := newUserService(rm)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// the token is a claim, not a cache: once the row is gone it must stop
	// working even though the signature is still valid
	delete(rm.users.byID, user.ID)

	_, err = svc.ResolveToken(ctx, token)
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	pinClock(t, 1700000000)
	rm := newFakeRepoManager()
	svc := newUserService(rm)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	err = svc.ChangePassword(ctx, user.ID, "nope", "new-password")
	if !errors.Is(err, common.ErrorWrongPassword) {
		t.Fatalf("expected ErrorWrongPassword, got %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "hunter22", "new-password"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice", "new-password"); err != nil {
		t.Fatalf("Login with new password error: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice", "hunter22"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestResetPassword_MissingUser(t *testing.T) {
	rm := newFakeRepoManager()
	svc := newUserService(rm)

	err := svc.ResetPassword(context.Background(), 99, "new-password")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	pinClock(t, 1700000000)
	rm := newFakeRepoManager()
	svc := newUserService(rm)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx); err != nil {
		t.Fatalf("EnsureAdmin error: %v", err)
	}
	if err := svc.EnsureAdmin(ctx); err != nil {
		t.Fatalf("second EnsureAdmin error: %v", err)
	}

	admins := 0
	for _, u := range rm.users.byID {
		if u.Username == "admin" {
			admins++
			if !u.IsAdmin {
				t.Fatalf("admin account must carry the privilege flag")
			}
			if !auth.VerifyPassword("password", u.PasswordHash) {
				t.Fatalf("admin account must use the configured bootstrap password")
			}
		}
	}
	if admins != 1 {
		t.Fatalf("expected exactly one admin account, got %d", admins)
	}
}

func TestEnsureAdmin_LostCreateRaceIsSuccess(t *testing.T) {
	pinClock(t, 1700000000)
	rm := newFakeRepoManager()
	// the lookup sees nothing, then the create collides with a parallel
	// starter that bootstrapped first
	rm.users.createErr = common.ErrorUsernameTaken
	svc := newUserService(rm)

	if err := svc.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("losing the bootstrap race must not fail startup, got %v", err)
	}
}

func TestChangePassword_StorageFailure(t *testing.T) {
	pinClock(t, 1700000000)
	rm := newFakeRepoManager()
	svc := newUserService(rm)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	rm.users.updateErr = errors.New("db down")
	err = svc.ChangePassword(ctx, user.ID, "hunter22", "new-password")
	if !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("expected ErrorInternal, got %v", err)
	}
}

func TestEnsureAdmin_UpgradesExistingAccount(t *testing.T) {
	pinClock(t, 1700000000)
	rm := newFakeRepoManager()
	svc := newUserService(rm)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "admin", "custom-password")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := svc.EnsureAdmin(ctx); err != nil {
		t.Fatalf("EnsureAdmin error: %v", err)
	}

	upgraded := rm.users.byID[user.ID]
	if !upgraded.IsAdmin {
		t.Fatalf("existing account must be upgraded in place")
	}
	if !auth.VerifyPassword("custom-password", upgraded.PasswordHash) {
		t.Fatalf("upgrade must not touch the existing password")
	}
}
