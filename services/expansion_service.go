package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/courtsidehq/padel_community/models"
)

const (
	MinWeeksAhead = 1
	MaxWeeksAhead = 12
)

var (
	ErrInvalidWeeksAhead   = errors.New("weeks ahead must be between 1 and 12")
	ErrNoTemplatesSelected = errors.New("at least one template must be selected")
)

type PlannedSession struct {
	Template *models.SessionTemplate
	Week     int
	Datetime time.Time
}

// ParseTimeOfDay parses the template's HH:MM:SS time of day; seconds are
// optional.
func ParseTimeOfDay(s string) (hour, minute, second int, err error) {
	if _, e := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &second); e != nil {
		second = 0
		if _, e := fmt.Sscanf(s, "%d:%d", &hour, &minute); e != nil {
			return 0, 0, 0, fmt.Errorf("invalid time of day %q", s)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	return hour, minute, second, nil
}

// NextOccurrence returns the first instant at or after now that falls on the
// given weekday (0=Sunday) at the given time of day in loc. Today counts only
// if the time of day has not yet passed.
func NextOccurrence(now time.Time, dayOfWeek, hour, minute, second int, loc *time.Location) time.Time {
	local := now.In(loc)
	daysAhead := (dayOfWeek - int(local.Weekday()) + 7) % 7
	candidate := time.Date(local.Year(), local.Month(), local.Day()+daysAhead, hour, minute, second, 0, loc)
	if candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate.UTC()
}

// ExpandTemplates materializes the (template, week) grid for the requested
// horizon. Week 0 is the next occurrence of each template's weekday at or
// after now; week k adds k whole weeks. Template times of day are read in
// loc, the venue's timezone, and the resulting instants are UTC.
func ExpandTemplates(templates []models.SessionTemplate, weeksAhead int, now time.Time, loc *time.Location) ([]PlannedSession, error) {
	if weeksAhead < MinWeeksAhead || weeksAhead > MaxWeeksAhead {
		return nil, ErrInvalidWeeksAhead
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplatesSelected
	}

	planned := make([]PlannedSession, 0, len(templates)*weeksAhead)
	for i := range templates {
		tpl := &templates[i]
		if tpl.DayOfWeek < 0 || tpl.DayOfWeek > 6 {
			return nil, fmt.Errorf("template %s: invalid day of week %d", tpl.ID, tpl.DayOfWeek)
		}
		hour, minute, second, err := ParseTimeOfDay(tpl.TimeOfDay)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", tpl.ID, err)
		}

		first := NextOccurrence(now, tpl.DayOfWeek, hour, minute, second, loc)
		for week := 0; week < weeksAhead; week++ {
			planned = append(planned, PlannedSession{
				Template: tpl,
				Week:     week,
				Datetime: first.AddDate(0, 0, 7*week),
			})
		}
	}
	return planned, nil
}

// SessionFromPlan copies the template's fields into a concrete session row.
// Once created, the session is the source of truth for its policy fields;
// later template edits do not reach back into it.
func SessionFromPlan(plan PlannedSession) models.Session {
	tpl := plan.Template
	templateID := tpl.ID
	return models.Session{
		CommunityID:                  tpl.CommunityID,
		SubCommunityID:               tpl.SubCommunityID,
		SessionTemplateID:            &templateID,
		Title:                        tpl.Title,
		Description:                  tpl.Description,
		Location:                     tpl.Location,
		Datetime:                     plan.Datetime,
		DurationMinutes:              tpl.DurationMinutes,
		Price:                        tpl.Price,
		MaxPlayers:                   tpl.MaxPlayers,
		Status:                       "active",
		FreeCancellationHours:        tpl.FreeCancellationHours,
		AllowConditionalCancellation: tpl.AllowConditionalCancellation,
	}
}
