package core

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UserSignup is the registration input for a customer account.
// Address may be given whole or as DoorNo/Street/City parts.
type UserSignup struct {
	Name     string `json:"name" yaml:"name" validate:"required,max=255"`
	Email    string `json:"email" yaml:"email" validate:"required,email,max=255"`
	Password string `json:"password" yaml:"password" validate:"required,max=72"`
	Address  string `json:"address" yaml:"address"`
	DoorNo   string `json:"door_no" yaml:"door_no"`
	Street   string `json:"street" yaml:"street"`
	City     string `json:"city" yaml:"city"`
}

// WorkerSignup is the registration input for a service provider account.
type WorkerSignup struct {
	Name         string `json:"name" yaml:"name" validate:"required,max=255"`
	Email        string `json:"email" yaml:"email" validate:"required,email,max=255"`
	Password     string `json:"password" yaml:"password" validate:"required,max=72"`
	Profession   string `json:"profession" yaml:"profession" validate:"max=255"`
	HourlyCharge string `json:"hourly_charge" yaml:"hourly_charge" validate:"required"`
	City         string `json:"city" yaml:"city" validate:"max=255"`
}

// bcrypt hashes at most this many bytes of a password.
const maxPasswordBytes = 72

// CredentialRecord is the role-neutral view of a stored principal used for login.
type CredentialRecord struct {
	ID           int64
	Role         Role
	Name         string
	Email        string
	PasswordHash string
}

// CredentialService owns registration, lookup and password verification.
type CredentialService struct {
	repo      CredentialRepository
	hasher    PasswordHasher
	validate  *validator.Validate
	dummyHash string
}

func NewCredentialService(repo CredentialRepository, hasher PasswordHasher) *CredentialService {
	// A failed dummy hash only means VerifyNoAccount returns early.
	dummy, _ := hasher.Hash("workerbook-no-such-account")
	return &CredentialService{repo: repo, hasher: hasher, validate: validator.New(), dummyHash: dummy}
}

// RegisterUser stores a new user. The same email may already exist as a worker.
func (s *CredentialService) RegisterUser(ctx context.Context, in UserSignup) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.check(in); err != nil {
		return 0, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return 0, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return 0, storageError("hash password", err)
	}
	return s.repo.CreateUser(ctx, UserRecord{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Address:      composeAddress(in),
	})
}

// RegisterWorker stores a new worker. The same email may already exist as a user.
func (s *CredentialService) RegisterWorker(ctx context.Context, in WorkerSignup) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.check(in); err != nil {
		return 0, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return 0, err
	}
	charge, err := parseHourlyCharge(in.HourlyCharge)
	if err != nil {
		return 0, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return 0, storageError("hash password", err)
	}
	return s.repo.CreateWorker(ctx, WorkerRecord{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Profession:   strings.TrimSpace(in.Profession),
		HourlyCharge: charge,
		City:         strings.TrimSpace(in.City),
	})
}

// FindByEmail looks the email up in the relation named by role. It returns nil, nil when absent.
func (s *CredentialService) FindByEmail(ctx context.Context, role Role, email string) (*CredentialRecord, error) {
	switch role {
	case RoleUser:
		u, err := s.repo.FindUserByEmail(ctx, email)
		if err != nil || u == nil {
			return nil, err
		}
		return &CredentialRecord{ID: u.ID, Role: RoleUser, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash}, nil
	case RoleWorker:
		w, err := s.repo.FindWorkerByEmail(ctx, email)
		if err != nil || w == nil {
			return nil, err
		}
		return &CredentialRecord{ID: w.ID, Role: RoleWorker, Name: w.Name, Email: w.Email, PasswordHash: w.PasswordHash}, nil
	default:
		return nil, validationError("unknown role %q", role)
	}
}

// VerifyPassword checks raw against a stored hash; plaintext is never compared.
func (s *CredentialService) VerifyPassword(storedHash, raw string) bool {
	return s.hasher.Verify(storedHash, raw)
}

// VerifyNoAccount runs a verification against a throwaway hash. Login calls it when
// no relation holds the email.
func (s *CredentialService) VerifyNoAccount(raw string) {
	s.hasher.Verify(s.dummyHash, raw)
}

func (s *CredentialService) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return validationError("%s is invalid (%s)", strings.ToLower(fe.Field()), fe.Tag())
	}
	return validationError("invalid input")
}

// The validator's max counts runes; bcrypt's limit is in bytes.
func checkPasswordLength(pw string) error {
	if len(pw) > maxPasswordBytes {
		return validationError("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// composeAddress joins door number, street and city when no whole address was given.
func composeAddress(in UserSignup) string {
	if addr := strings.TrimSpace(in.Address); addr != "" {
		return addr
	}
	var parts []string
	for _, p := range []string{in.DoorNo, in.Street, in.City} {
		if t := strings.TrimSpace(p); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ", ")
}

// parseHourlyCharge accepts a non-negative decimal that fits NUMERIC(10,2)
// and returns it with two fraction digits.
func parseHourlyCharge(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || raw == "" || strings.ContainsAny(raw, "eEnNxX") {
		return "", validationError("hourly_charge must be a number")
	}
	if v < 0 {
		return "", validationError("hourly_charge must not be negative")
	}
	if v == 0 {
		v = 0 // drops the sign of "-0"
	}
	// Bound the rounded value: 99999999.995 becomes 100000000.00.
	formatted := strconv.FormatFloat(v, 'f', 2, 64)
	if intPart, _, _ := strings.Cut(formatted, "."); len(intPart) > 8 {
		return "", validationError("hourly_charge is too large")
	}
	return formatted, nil
}
