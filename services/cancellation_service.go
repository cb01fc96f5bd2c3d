package services

import (
	"errors"
	"time"

	"github.com/courtsidehq/padel_community/models"
)

// Fallback only; the session record is the source of truth for the window.
const DefaultFreeCancellationHours = 24

const CancellationStatusPendingReplacement = "pending_replacement"

var (
	ErrSessionAlreadyStarted    = errors.New("this session has already started and can no longer be cancelled")
	ErrCancellationWindowClosed = errors.New("the free cancellation window has passed and this session does not allow conditional cancellation")
	ErrBookingNotCancellable    = errors.New("this booking has already been cancelled")
)

type CancellationKind string

const (
	CancellationImmediate CancellationKind = "immediate"
	CancellationPending   CancellationKind = "pending"
)

type CancellationOutcome struct {
	Kind              CancellationKind
	RefundAmount      float64
	HoursUntilSession float64
}

func HoursUntilSession(session *models.Session, now time.Time) float64 {
	return session.Datetime.Sub(now).Hours()
}

func freeWindowHours(session *models.Session) int {
	if session.FreeCancellationHours < 0 {
		return DefaultFreeCancellationHours
	}
	return session.FreeCancellationHours
}

// EvaluateCancellation decides what a member's cancellation request yields,
// without touching any state. A booking already pending replacement may be
// re-evaluated; a booking with cancelled_at set is terminal.
//
// Exactly at the window boundary the free path wins: a request made
// free_cancellation_hours before the session is still fully refunded.
func EvaluateCancellation(booking *models.Booking, session *models.Session, now time.Time) (*CancellationOutcome, error) {
	if booking.IsCancelled() {
		return nil, ErrBookingNotCancellable
	}

	hoursUntil := HoursUntilSession(session, now)
	if hoursUntil < 0 {
		return nil, ErrSessionAlreadyStarted
	}

	if hoursUntil >= float64(freeWindowHours(session)) {
		return &CancellationOutcome{
			Kind:              CancellationImmediate,
			RefundAmount:      session.Price,
			HoursUntilSession: hoursUntil,
		}, nil
	}

	if !session.AllowConditionalCancellation {
		return nil, ErrCancellationWindowClosed
	}

	// Refund is contingent on a replacement booking filling the spot.
	return &CancellationOutcome{
		Kind:              CancellationPending,
		HoursUntilSession: hoursUntil,
	}, nil
}
