package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session binds a principal to an opaque token for subsequent requests.
type Session struct {
	Token     string
	Principal Principal
	CreatedAt time.Time
}

// SessionStore is the session table keyed by token.
type SessionStore interface {
	Put(ctx context.Context, sess Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// SessionAuthority turns verified credentials into sessions and gates protected operations.
type SessionAuthority struct {
	creds    *CredentialService
	sessions SessionStore
	log      *logrus.Logger
	now      func() time.Time
}

func NewSessionAuthority(creds *CredentialService, sessions SessionStore, log *logrus.Logger) *SessionAuthority {
	return &SessionAuthority{creds: creds, sessions: sessions, log: log, now: time.Now}
}

// Login checks users first, then workers. An email present in both relations
// resolves to the user when the password matches the user's hash.
func (a *SessionAuthority) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	known := false
	for _, role := range []Role{RoleUser, RoleWorker} {
		rec, err := a.creds.FindByEmail(ctx, role, email)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		known = true
		if !a.creds.VerifyPassword(rec.PasswordHash, password) {
			continue
		}
		p, err := NewPrincipal(rec.Role, rec.ID)
		if err != nil {
			return nil, err
		}
		sess := Session{Token: newSessionToken(), Principal: p, CreatedAt: a.now()}
		if err := a.sessions.Put(ctx, sess); err != nil {
			return nil, storageError("create session", err)
		}
		a.log.WithFields(logrus.Fields{"role": p.Role(), "principal_id": p.PrincipalID()}).Info("login")
		return &sess, nil
	}
	if !known {
		// Same hashing cost as a wrong password, so latency does not reveal the email.
		a.creds.VerifyNoAccount(password)
	}
	return nil, ErrInvalidCredentials
}

// Lookup resolves a token to its session. Missing or expired tokens are Unauthenticated.
func (a *SessionAuthority) Lookup(ctx context.Context, token string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := a.sessions.Get(ctx, token)
	if err != nil {
		return nil, storageError("load session", err)
	}
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

// Logout removes the binding. Unknown or empty tokens are not an error.
func (a *SessionAuthority) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if err := a.sessions.Delete(ctx, token); err != nil {
		return storageError("delete session", err)
	}
	return nil
}

// RequireRole is the gate every protected operation passes through.
func RequireRole(sess *Session, role Role) (*Session, error) {
	if sess == nil || sess.Principal == nil {
		return nil, ErrUnauthenticated
	}
	switch sess.Principal.(type) {
	case UserPrincipal:
		if role != RoleUser {
			return nil, ErrWrongRole
		}
	case WorkerPrincipal:
		if role != RoleWorker {
			return nil, ErrWrongRole
		}
	}
	return sess, nil
}

func newSessionToken() string {
	return uuid.NewString()
}
