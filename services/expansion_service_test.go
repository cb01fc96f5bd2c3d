package services

import (
	"testing"
	"time"

	"github.com/courtsidehq/padel_community/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	hour, minute, second, err := ParseTimeOfDay("19:30:00")
	require.NoError(t, err)
	assert.Equal(t, 19, hour)
	assert.Equal(t, 30, minute)
	assert.Equal(t, 0, second)

	hour, minute, second, err = ParseTimeOfDay("07:15")
	require.NoError(t, err)
	assert.Equal(t, 7, hour)
	assert.Equal(t, 15, minute)
	assert.Equal(t, 0, second)

	for _, invalid := range []string{"", "abc", "24:00", "12:60", "-1:30"} {
		_, _, _, err := ParseTimeOfDay(invalid)
		assert.Error(t, err, "expected %q to be rejected", invalid)
	}
}

func TestNextOccurrence_LaterThisWeek(t *testing.T) {
	// Monday June 2nd, 2025, 10:00 UTC. Next Wednesday 19:00 is two days out.
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	got := NextOccurrence(now, 3, 19, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 4, 19, 0, 0, 0, time.UTC), got)
}

func TestNextOccurrence_TodayCountsIfTimeNotPassed(t *testing.T) {
	// Monday 10:00, template fires Mondays 19:00: today still qualifies.
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	got := NextOccurrence(now, 1, 19, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC), got)
}

func TestNextOccurrence_TodayRollsOverIfTimePassed(t *testing.T) {
	// Monday 20:00, template fires Mondays 19:00: next Monday.
	now := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)

	got := NextOccurrence(now, 1, 19, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 9, 19, 0, 0, 0, time.UTC), got)
}

func TestNextOccurrence_ExactInstantCounts(t *testing.T) {
	now := time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC)

	got := NextOccurrence(now, 1, 19, 0, 0, time.UTC)
	assert.Equal(t, now, got)
}

func TestNextOccurrence_VenueTimezone(t *testing.T) {
	dubai, err := time.LoadLocation("Asia/Dubai")
	require.NoError(t, err)

	// 16:30 UTC on Monday is 20:30 in Dubai, past a 19:00 Dubai template, so
	// the next occurrence is the following Monday at 15:00 UTC.
	now := time.Date(2025, 6, 2, 16, 30, 0, 0, time.UTC)

	got := NextOccurrence(now, 1, 19, 0, 0, dubai)
	assert.Equal(t, time.Date(2025, 6, 9, 15, 0, 0, 0, time.UTC), got)
}

func testTemplate(dayOfWeek int, timeOfDay string) models.SessionTemplate {
	return models.SessionTemplate{
		ID:          uuid.New(),
		CommunityID: uuid.New(),
		Title:       "Monday Night Padel",
		TimeOfDay:   timeOfDay,
		DayOfWeek:   dayOfWeek,
		Price:       95,
		MaxPlayers:  8,
		IsActive:    true,
	}
}

func TestExpandTemplates_CountAndOrdering(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	templates := []models.SessionTemplate{
		testTemplate(1, "19:00:00"),
		testTemplate(4, "07:30:00"),
	}

	planned, err := ExpandTemplates(templates, 4, now, time.UTC)
	require.NoError(t, err)
	require.Len(t, planned, 8)

	// Instances per template are exactly one week apart, starting at the
	// first occurrence at or after now.
	first := planned[0]
	assert.Equal(t, time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC), first.Datetime)
	for week := 0; week < 4; week++ {
		plan := planned[week]
		assert.Equal(t, templates[0].ID, plan.Template.ID)
		assert.Equal(t, week, plan.Week)
		assert.Equal(t, first.Datetime.AddDate(0, 0, 7*week), plan.Datetime)
	}

	thursday := planned[4]
	assert.Equal(t, templates[1].ID, thursday.Template.ID)
	assert.Equal(t, time.Date(2025, 6, 5, 7, 30, 0, 0, time.UTC), thursday.Datetime)
}

func TestExpandTemplates_WeeksAheadBounds(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	templates := []models.SessionTemplate{testTemplate(1, "19:00:00")}

	for _, weeks := range []int{0, -1, 13} {
		_, err := ExpandTemplates(templates, weeks, now, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidWeeksAhead)
	}

	planned, err := ExpandTemplates(templates, 12, now, time.UTC)
	require.NoError(t, err)
	assert.Len(t, planned, 12)
}

func TestExpandTemplates_NoTemplates(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	_, err := ExpandTemplates(nil, 4, now, time.UTC)
	assert.ErrorIs(t, err, ErrNoTemplatesSelected)
}

func TestExpandTemplates_RejectsMalformedTemplate(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	_, err := ExpandTemplates([]models.SessionTemplate{testTemplate(7, "19:00:00")}, 2, now, time.UTC)
	assert.Error(t, err)

	_, err = ExpandTemplates([]models.SessionTemplate{testTemplate(1, "25:00:00")}, 2, now, time.UTC)
	assert.Error(t, err)
}

func TestSessionFromPlan(t *testing.T) {
	tpl := testTemplate(1, "19:00:00")
	tpl.Description = "Weekly open play"
	tpl.Location = "Court 3"
	tpl.DurationMinutes = 90
	tpl.FreeCancellationHours = 48
	tpl.AllowConditionalCancellation = true

	datetime := time.Date(2025, 6, 9, 19, 0, 0, 0, time.UTC)
	session := SessionFromPlan(PlannedSession{Template: &tpl, Week: 1, Datetime: datetime})

	assert.Equal(t, tpl.CommunityID, session.CommunityID)
	require.NotNil(t, session.SessionTemplateID)
	assert.Equal(t, tpl.ID, *session.SessionTemplateID)
	assert.Equal(t, tpl.Title, session.Title)
	assert.Equal(t, datetime, session.Datetime)
	assert.Equal(t, "active", session.Status)
	assert.Equal(t, 48, session.FreeCancellationHours)
	assert.True(t, session.AllowConditionalCancellation)
	assert.Zero(t, session.BookedCount)
}
