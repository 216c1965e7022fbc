package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestCanTransition(t *testing.T) {
	all := []BookingStatus{StatusPending, StatusAccepted, StatusRejected}
	for _, from := range all {
		for _, to := range all {
			want := from == StatusPending && to != StatusPending
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestParseDecision(t *testing.T) {
	cases := map[string]BookingStatus{
		"accept":    StatusAccepted,
		" Accepted": StatusAccepted,
		"REJECT":    StatusRejected,
		"rejected":  StatusRejected,
	}
	for in, want := range cases {
		if got, err := ParseDecision(in); err != nil || got != want {
			t.Fatalf("ParseDecision(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseDecision("pending"); !errors.Is(err, ErrValidation) {
		t.Fatalf("pending is not a decision: %v", err)
	}
}

func TestKindErrors(t *testing.T) {
	err := fmt.Errorf("booking 3: %w", newError(KindInvalidTransition, "booking is already Accepted"))
	if !errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrForbidden) {
		t.Fatalf("kind matching broken for %v", err)
	}
	if KindOf(err) != KindInvalidTransition {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if KindOf(errors.New("boom")) != KindStorageUnavailable {
		t.Fatalf("plain errors must classify as storage failures")
	}

	cause := errors.New("dial tcp: connection refused")
	se := storageError("insert booking", cause)
	if !errors.Is(se, cause) {
		t.Fatalf("storage error must unwrap to its cause")
	}
	if se.Msg != "insert booking failed" {
		t.Fatalf("client-facing message leaks detail: %q", se.Msg)
	}
}
