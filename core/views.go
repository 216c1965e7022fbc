package core

import (
	"context"
)

// UserProfile is a user without the password hash.
type UserProfile struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// WorkerProfile is a worker without the password hash.
type WorkerProfile struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Profession   string `json:"profession"`
	HourlyCharge string `json:"hourly_charge"`
	City         string `json:"city"`
}

// BookingStats is derived from a worker's bookings on every read; it is never stored.
type BookingStats struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted_count"`
	Rejected int `json:"rejected_count"`
}

type UserDashboard struct {
	Role     Role            `json:"role"`
	User     UserProfile     `json:"user"`
	Bookings []UserBooking   `json:"bookings"`
	Workers  []WorkerProfile `json:"workers"`
}

type WorkerDashboard struct {
	Role     Role            `json:"role"`
	Worker   WorkerProfile   `json:"worker"`
	Bookings []WorkerBooking `json:"bookings"`
	Stats    BookingStats    `json:"stats"`
}

// ViewAssembler builds the read-side aggregates. It holds no state of its own.
type ViewAssembler struct {
	creds  CredentialRepository
	ledger *BookingLedger
}

func NewViewAssembler(creds CredentialRepository, ledger *BookingLedger) *ViewAssembler {
	return &ViewAssembler{creds: creds, ledger: ledger}
}

// WorkerRoster lists all workers ordered by name.
func (v *ViewAssembler) WorkerRoster(ctx context.Context) ([]WorkerProfile, error) {
	records, err := v.creds.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]WorkerProfile, 0, len(records))
	for _, w := range records {
		out = append(out, workerProfile(w))
	}
	return out, nil
}

// Dashboard returns the aggregate matching the session's principal:
// *UserDashboard for users, *WorkerDashboard for workers.
func (v *ViewAssembler) Dashboard(ctx context.Context, sess *Session) (any, error) {
	if sess == nil || sess.Principal == nil {
		return nil, ErrUnauthenticated
	}
	switch sess.Principal.(type) {
	case UserPrincipal:
		return v.UserDashboard(ctx, sess)
	case WorkerPrincipal:
		return v.WorkerDashboard(ctx, sess)
	}
	return nil, ErrUnauthenticated
}

func (v *ViewAssembler) UserDashboard(ctx context.Context, sess *Session) (*UserDashboard, error) {
	sess, err := RequireRole(sess, RoleUser)
	if err != nil {
		return nil, err
	}
	id := sess.Principal.PrincipalID()
	u, err := v.creds.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	bookings, err := v.ledger.ListForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	roster, err := v.WorkerRoster(ctx)
	if err != nil {
		return nil, err
	}
	return &UserDashboard{
		Role:     RoleUser,
		User:     UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, Address: u.Address},
		Bookings: nonNil(bookings),
		Workers:  roster,
	}, nil
}

func (v *ViewAssembler) WorkerDashboard(ctx context.Context, sess *Session) (*WorkerDashboard, error) {
	sess, err := RequireRole(sess, RoleWorker)
	if err != nil {
		return nil, err
	}
	id := sess.Principal.PrincipalID()
	w, err := v.creds.WorkerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	bookings, err := v.ledger.ListForWorker(ctx, id)
	if err != nil {
		return nil, err
	}
	return &WorkerDashboard{
		Role:     RoleWorker,
		Worker:   workerProfile(*w),
		Bookings: nonNil(bookings),
		Stats:    Stats(bookings),
	}, nil
}

// History returns the session principal's bookings without the rest of the dashboard.
func (v *ViewAssembler) History(ctx context.Context, sess *Session) (any, error) {
	if sess == nil || sess.Principal == nil {
		return nil, ErrUnauthenticated
	}
	switch p := sess.Principal.(type) {
	case UserPrincipal:
		items, err := v.ledger.ListForUser(ctx, p.ID)
		return nonNil(items), err
	case WorkerPrincipal:
		items, err := v.ledger.ListForWorker(ctx, p.ID)
		return nonNil(items), err
	}
	return nil, ErrUnauthenticated
}

// Stats counts a worker's bookings by outcome.
func Stats(bookings []WorkerBooking) BookingStats {
	st := BookingStats{Total: len(bookings)}
	for _, b := range bookings {
		switch b.Status {
		case StatusAccepted:
			st.Accepted++
		case StatusRejected:
			st.Rejected++
		}
	}
	return st
}

func workerProfile(w WorkerRecord) WorkerProfile {
	return WorkerProfile{
		ID:           w.ID,
		Name:         w.Name,
		Email:        w.Email,
		Profession:   w.Profession,
		HourlyCharge: w.HourlyCharge,
		City:         w.City,
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
