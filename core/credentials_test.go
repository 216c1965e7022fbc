package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterUserDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creds := env.svc.Credentials

	for _, email := range []string{"alice@x.com", "Bob.Smith+tag@example.org"} {
		if _, err := creds.RegisterUser(ctx, UserSignup{Name: "first", Email: email, Password: "pw1"}); err != nil {
			t.Fatalf("first register %s: %v", email, err)
		}
		_, err := creds.RegisterUser(ctx, UserSignup{Name: "second", Email: email, Password: "pw2"})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("second register %s: want ErrDuplicateEmail, got %v", email, err)
		}
		// The worker namespace is independent.
		if _, err := creds.RegisterWorker(ctx, WorkerSignup{Name: "w", Email: email, Password: "pw3", HourlyCharge: "10"}); err != nil {
			t.Fatalf("worker with user email %s: %v", email, err)
		}
		_, err = creds.RegisterWorker(ctx, WorkerSignup{Name: "w2", Email: email, Password: "pw4", HourlyCharge: "10"})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("second worker %s: want ErrDuplicateEmail, got %v", email, err)
		}
	}
	if got := len(env.creds.users); got != 2 {
		t.Fatalf("expected 2 users stored, got %d", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creds := env.svc.Credentials

	userCases := []struct {
		name string
		in   UserSignup
	}{
		{"missing name", UserSignup{Email: "a@x.com", Password: "pw"}},
		{"blank name", UserSignup{Name: "   ", Email: "a@x.com", Password: "pw"}},
		{"missing email", UserSignup{Name: "A", Password: "pw"}},
		{"malformed email", UserSignup{Name: "A", Email: "not-an-email", Password: "pw"}},
		{"missing password", UserSignup{Name: "A", Email: "a@x.com"}},
		// 72 characters but 144 bytes: past what bcrypt accepts.
		{"multibyte password over 72 bytes", UserSignup{Name: "A", Email: "a@x.com", Password: strings.Repeat("é", 72)}},
	}
	for _, tc := range userCases {
		t.Run("user/"+tc.name, func(t *testing.T) {
			_, err := creds.RegisterUser(ctx, tc.in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}

	chargeCases := []struct {
		charge string
		ok     bool
		stored string
	}{
		{"25", true, "25.00"},
		{"0", true, "0.00"},
		{" 12.5 ", true, "12.50"},
		{"abc", false, ""},
		{"", false, ""},
		{"-1", false, ""},
		{"1e3", false, ""},
		{"NaN", false, ""},
		{"Inf", false, ""},
		{"99999999.99", true, "99999999.99"},
		{"99999999.999", false, ""}, // rounds to 100000000.00
		{"100000000", false, ""},
		{"-0", true, "0.00"},
	}
	for i, tc := range chargeCases {
		t.Run("worker/charge="+tc.charge, func(t *testing.T) {
			email := "w" + string(rune('a'+i)) + "@x.com"
			id, err := creds.RegisterWorker(ctx, WorkerSignup{Name: "W", Email: email, Password: "pw", HourlyCharge: tc.charge})
			if !tc.ok {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("want ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("register: %v", err)
			}
			if got := env.creds.workers[id].HourlyCharge; got != tc.stored {
				t.Fatalf("stored charge = %q, want %q", got, tc.stored)
			}
		})
	}
	_, err := creds.RegisterWorker(ctx, WorkerSignup{
		Name: "W", Email: "long@x.com", Password: strings.Repeat("ü", 40), HourlyCharge: "10",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("worker password over 72 bytes: want ErrValidation, got %v", err)
	}
	if _, err := creds.RegisterUser(ctx, UserSignup{Name: "A", Email: "max@x.com", Password: strings.Repeat("p", 72)}); err != nil {
		t.Fatalf("72-byte password should be accepted: %v", err)
	}

	if len(env.creds.users) != 1 {
		t.Fatalf("failed registrations must not persist rows")
	}
}

func TestRegisterUserAddressComposition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.Credentials.RegisterUser(ctx, UserSignup{
		Name: "Alice", Email: "alice@x.com", Password: "pw",
		DoorNo: "12B", Street: " Baker Street ", City: "London",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got, want := env.creds.users[id].Address, "12B, Baker Street, London"; got != want {
		t.Fatalf("address = %q, want %q", got, want)
	}

	id, err = env.svc.Credentials.RegisterUser(ctx, UserSignup{
		Name: "Carol", Email: "carol@x.com", Password: "pw", Address: "Flat 3", City: "ignored",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := env.creds.users[id].Address; got != "Flat 3" {
		t.Fatalf("explicit address should win, got %q", got)
	}
}

func TestPasswordsAreHashed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creds := env.svc.Credentials

	env.mustRegisterUser(t, "Alice", "alice@x.com", "s3cret")
	rec, err := creds.FindByEmail(ctx, RoleUser, "alice@x.com")
	if err != nil || rec == nil {
		t.Fatalf("find: %v %v", rec, err)
	}
	if rec.PasswordHash == "s3cret" || rec.PasswordHash == "" {
		t.Fatalf("password stored in plaintext or empty: %q", rec.PasswordHash)
	}
	if !creds.VerifyPassword(rec.PasswordHash, "s3cret") {
		t.Fatalf("verify should accept the right password")
	}
	if creds.VerifyPassword(rec.PasswordHash, "wrong") {
		t.Fatalf("verify should reject a wrong password")
	}
	if creds.VerifyPassword("", "s3cret") {
		t.Fatalf("empty hash must never verify")
	}
}

func TestFindByEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creds := env.svc.Credentials

	uid := env.mustRegisterUser(t, "Alice", "alice@x.com", "pw")
	wid := env.mustRegisterWorker(t, "Bob", "bob@x.com", "pw")

	rec, err := creds.FindByEmail(ctx, RoleUser, "alice@x.com")
	if err != nil || rec == nil || rec.ID != uid || rec.Role != RoleUser {
		t.Fatalf("user lookup: %+v %v", rec, err)
	}
	rec, err = creds.FindByEmail(ctx, RoleWorker, "bob@x.com")
	if err != nil || rec == nil || rec.ID != wid || rec.Role != RoleWorker {
		t.Fatalf("worker lookup: %+v %v", rec, err)
	}
	rec, err = creds.FindByEmail(ctx, RoleWorker, "alice@x.com")
	if err != nil || rec != nil {
		t.Fatalf("user email must not be found among workers: %+v %v", rec, err)
	}
	if _, err := creds.FindByEmail(ctx, Role("admin"), "alice@x.com"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown role: want ErrValidation, got %v", err)
	}
}

func TestRegisterStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.creds.failErr = errors.New("connection refused")

	_, err := env.svc.Credentials.RegisterUser(context.Background(), UserSignup{Name: "A", Email: "a@x.com", Password: "pw"})
	if KindOf(err) != KindStorageUnavailable {
		t.Fatalf("want storage kind, got %v", err)
	}
}
