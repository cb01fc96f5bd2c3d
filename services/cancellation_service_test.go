package services

import (
	"testing"
	"time"

	"github.com/courtsidehq/padel_community/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func sundaySession(t *testing.T) *models.Session {
	return &models.Session{
		Datetime:              mustParse(t, "2025-06-01T18:00:00Z"),
		Price:                 120,
		FreeCancellationHours: 24,
	}
}

func TestEvaluateCancellation_InsideFreeWindow(t *testing.T) {
	session := sundaySession(t)
	now := mustParse(t, "2025-05-31T17:59:00Z")

	outcome, err := EvaluateCancellation(&models.Booking{}, session, now)
	require.NoError(t, err)

	assert.Equal(t, CancellationImmediate, outcome.Kind)
	assert.Equal(t, 120.0, outcome.RefundAmount)
	assert.Greater(t, outcome.HoursUntilSession, 24.0)
}

func TestEvaluateCancellation_ExactlyAtBoundaryIsFree(t *testing.T) {
	session := sundaySession(t)
	now := mustParse(t, "2025-05-31T18:00:00Z")

	outcome, err := EvaluateCancellation(&models.Booking{}, session, now)
	require.NoError(t, err)

	assert.Equal(t, CancellationImmediate, outcome.Kind)
	assert.Equal(t, 120.0, outcome.RefundAmount)
	assert.Equal(t, 24.0, outcome.HoursUntilSession)
}

func TestEvaluateCancellation_AfterWindowBecomesPending(t *testing.T) {
	session := sundaySession(t)
	session.AllowConditionalCancellation = true
	now := mustParse(t, "2025-05-31T19:00:00Z")

	outcome, err := EvaluateCancellation(&models.Booking{}, session, now)
	require.NoError(t, err)

	assert.Equal(t, CancellationPending, outcome.Kind)
	assert.Zero(t, outcome.RefundAmount)
	assert.InDelta(t, 23.0, outcome.HoursUntilSession, 0.001)
}

func TestEvaluateCancellation_AfterWindowWithoutConditional(t *testing.T) {
	session := sundaySession(t)
	session.AllowConditionalCancellation = false
	now := mustParse(t, "2025-05-31T19:00:00Z")

	outcome, err := EvaluateCancellation(&models.Booking{}, session, now)
	assert.ErrorIs(t, err, ErrCancellationWindowClosed)
	assert.Nil(t, outcome)
}

func TestEvaluateCancellation_SessionAlreadyStarted(t *testing.T) {
	session := sundaySession(t)
	session.AllowConditionalCancellation = true
	now := mustParse(t, "2025-06-01T19:00:00Z")

	outcome, err := EvaluateCancellation(&models.Booking{}, session, now)
	assert.ErrorIs(t, err, ErrSessionAlreadyStarted)
	assert.Nil(t, outcome)
}

func TestEvaluateCancellation_AlreadyCancelledBooking(t *testing.T) {
	session := sundaySession(t)
	cancelledAt := mustParse(t, "2025-05-30T12:00:00Z")
	booking := &models.Booking{CancelledAt: &cancelledAt}

	outcome, err := EvaluateCancellation(booking, session, mustParse(t, "2025-05-30T13:00:00Z"))
	assert.ErrorIs(t, err, ErrBookingNotCancellable)
	assert.Nil(t, outcome)
}

func TestEvaluateCancellation_PendingBookingCanBeReEvaluated(t *testing.T) {
	session := sundaySession(t)
	session.AllowConditionalCancellation = true
	pending := CancellationStatusPendingReplacement
	booking := &models.Booking{CancellationStatus: &pending}

	outcome, err := EvaluateCancellation(booking, session, mustParse(t, "2025-05-31T19:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, CancellationPending, outcome.Kind)
}

func TestEvaluateCancellation_ZeroHourWindowFreeUntilStart(t *testing.T) {
	session := sundaySession(t)
	session.FreeCancellationHours = 0

	outcome, err := EvaluateCancellation(&models.Booking{}, session, mustParse(t, "2025-06-01T17:59:00Z"))
	require.NoError(t, err)
	assert.Equal(t, CancellationImmediate, outcome.Kind)
}

func TestEvaluateCancellation_NegativeWindowFallsBackToDefault(t *testing.T) {
	session := sundaySession(t)
	session.FreeCancellationHours = -1
	session.AllowConditionalCancellation = true

	// 23 hours out falls inside the default 24h window, so it is no longer free.
	outcome, err := EvaluateCancellation(&models.Booking{}, session, mustParse(t, "2025-05-31T19:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, CancellationPending, outcome.Kind)
}

func TestHoursUntilSession(t *testing.T) {
	session := sundaySession(t)

	assert.InDelta(t, 48.0, HoursUntilSession(session, mustParse(t, "2025-05-30T18:00:00Z")), 0.001)
	assert.InDelta(t, -1.0, HoursUntilSession(session, mustParse(t, "2025-06-01T19:00:00Z")), 0.001)
}
