package core

import (
	"context"

	"github.com/sirupsen/logrus"
)

// BookingLedger creates bookings for users and lets the owning worker decide on them.
type BookingLedger struct {
	bookings BookingRepository
	log      *logrus.Logger
}

func NewBookingLedger(bookings BookingRepository, log *logrus.Logger) *BookingLedger {
	return &BookingLedger{bookings: bookings, log: log}
}

// CreateBooking records a Pending booking from the session's user to workerID.
// Overlapping or repeated slots are accepted; each call yields its own booking.
func (l *BookingLedger) CreateBooking(ctx context.Context, sess *Session, workerID int64, date, clock string) (*Booking, error) {
	sess, err := RequireRole(sess, RoleUser)
	if err != nil {
		return nil, err
	}
	if workerID <= 0 {
		return nil, validationError("worker_id is required")
	}
	date, clock, err = normalizeSlot(date, clock)
	if err != nil {
		return nil, err
	}
	b, err := l.bookings.Create(ctx, sess.Principal.PrincipalID(), workerID, date, clock)
	if err != nil {
		return nil, err
	}
	l.log.WithFields(logrus.Fields{"booking_id": b.ID, "user_id": b.UserID, "worker_id": b.WorkerID}).Info("booking created")
	return b, nil
}

// TransitionBooking moves a Pending booking owned by the session's worker to target.
// A booking that is already terminal, or that another request decided first, yields
// ErrInvalidTransition and stays as it is.
func (l *BookingLedger) TransitionBooking(ctx context.Context, sess *Session, bookingID int64, target BookingStatus) (*Booking, error) {
	sess, err := RequireRole(sess, RoleWorker)
	if err != nil {
		return nil, err
	}
	if !target.Terminal() {
		return nil, validationError("target status must be %s or %s", StatusAccepted, StatusRejected)
	}
	workerID := sess.Principal.PrincipalID()

	current, err := l.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.WorkerID != workerID {
		return nil, ErrForbidden
	}
	if !CanTransition(current.Status, target) {
		return nil, newError(KindInvalidTransition, "booking is already "+string(current.Status))
	}

	updated, ok, err := l.bookings.UpdateStatusIfPending(ctx, bookingID, workerID, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(KindInvalidTransition, "booking was already decided")
	}
	l.log.WithFields(logrus.Fields{"booking_id": updated.ID, "worker_id": workerID, "status": updated.Status}).Info("booking decided")
	return updated, nil
}

func (l *BookingLedger) ListForUser(ctx context.Context, userID int64) ([]UserBooking, error) {
	return l.bookings.ListForUser(ctx, userID)
}

func (l *BookingLedger) ListForWorker(ctx context.Context, workerID int64) ([]WorkerBooking, error) {
	return l.bookings.ListForWorker(ctx, workerID)
}
