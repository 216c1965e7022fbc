package core

import (
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending  BookingStatus = "Pending"
	StatusAccepted BookingStatus = "Accepted"
	StatusRejected BookingStatus = "Rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s BookingStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanTransition reports whether from -> to is an edge of the state machine.
// The only edges are Pending -> Accepted and Pending -> Rejected.
func CanTransition(from, to BookingStatus) bool {
	return from == StatusPending && to.Terminal()
}

// ParseDecision maps a worker's decision ("accept"/"reject" or a status name) to a target status.
func ParseDecision(s string) (BookingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accept", "accepted":
		return StatusAccepted, nil
	case "reject", "rejected":
		return StatusRejected, nil
	default:
		return "", validationError("decision must be accept or reject")
	}
}

// Booking is a bookings row. Date is YYYY-MM-DD and Time is HH:MM.
type Booking struct {
	ID       int64         `json:"id"`
	UserID   int64         `json:"user_id"`
	WorkerID int64         `json:"worker_id"`
	Date     string        `json:"booking_date"`
	Time     string        `json:"booking_time"`
	Status   BookingStatus `json:"status"`
}

// UserBooking is a booking joined with the worker's display fields.
type UserBooking struct {
	Booking
	WorkerName string `json:"worker_name"`
	Profession string `json:"profession"`
}

// WorkerBooking is a booking joined with the user's display fields.
type WorkerBooking struct {
	Booking
	UserName    string `json:"user_name"`
	UserAddress string `json:"user_address"`
}

const (
	bookingDateLayout = "2006-01-02"
	bookingTimeLayout = "15:04"
)

// normalizeSlot type-checks a booking date and time and returns their canonical forms.
// Times may carry seconds; they are truncated to minutes like the stored TIME display.
func normalizeSlot(date, clock string) (string, string, error) {
	d, err := time.Parse(bookingDateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", "", validationError("date must be YYYY-MM-DD")
	}
	clock = strings.TrimSpace(clock)
	t, err := time.Parse(bookingTimeLayout, clock)
	if err != nil {
		t, err = time.Parse("15:04:05", clock)
		if err != nil {
			return "", "", validationError("time must be HH:MM")
		}
	}
	return d.Format(bookingDateLayout), t.Format(bookingTimeLayout), nil
}
