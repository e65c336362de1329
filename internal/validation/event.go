// Package validation normalizes and checks event input before anything is persisted.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"eventshub/internal/domain"
)

// Field length limits, counted in characters after trimming.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
	MaxOverviewLength    = 500
)

// DateLayout is the canonical stored form of an event date.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidDate is attached to validation errors caused by an unparsable date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidTime is attached to validation errors caused by an unparsable time.
	ErrInvalidTime = errors.New("invalid time")
)

var acceptedDateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

var timeOfDay = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\s*([AaPp][Mm]))?$`)

// NewEvent validates every field of a new event and returns the normalized event.
// Mode defaults to online. Image, slug, ids and timestamps are left for the caller.
func NewEvent(in *domain.EventInput) (*domain.Event, error) {
	if in == nil {
		in = &domain.EventInput{}
	}
	return normalize(*in)
}

// MergeUpdate applies the non-blank fields of in over existing and validates the result.
// A nil Tags or Agenda keeps the stored list; a non-nil one replaces it.
// existing is not modified.
func MergeUpdate(existing *domain.Event, in *domain.EventInput) (*domain.Event, error) {
	merged := domain.EventInput{
		Title:       existing.Title,
		Description: existing.Description,
		Overview:    existing.Overview,
		Venue:       existing.Venue,
		Location:    existing.Location,
		Date:        existing.Date,
		Time:        existing.Time,
		Mode:        string(existing.Mode),
		Audience:    existing.Audience,
		Organizer:   existing.Organizer,
		Tags:        existing.Tags,
		Agenda:      existing.Agenda,
	}
	if in != nil {
		overlay(&merged.Title, in.Title)
		overlay(&merged.Description, in.Description)
		overlay(&merged.Overview, in.Overview)
		overlay(&merged.Venue, in.Venue)
		overlay(&merged.Location, in.Location)
		overlay(&merged.Date, in.Date)
		overlay(&merged.Time, in.Time)
		overlay(&merged.Mode, in.Mode)
		overlay(&merged.Audience, in.Audience)
		overlay(&merged.Organizer, in.Organizer)
		if in.Tags != nil {
			merged.Tags = in.Tags
		}
		if in.Agenda != nil {
			merged.Agenda = in.Agenda
		}
	}

	ev, err := normalize(merged)
	if err != nil {
		return nil, err
	}
	ev.ID = existing.ID
	ev.Slug = existing.Slug
	ev.Image = existing.Image
	ev.CreatedAt = existing.CreatedAt
	ev.UpdatedAt = existing.UpdatedAt
	return ev, nil
}

func overlay(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func normalize(in domain.EventInput) (*domain.Event, error) {
	fields := make(map[string]string)
	var causes []error

	ev := &domain.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Overview:    strings.TrimSpace(in.Overview),
		Venue:       strings.TrimSpace(in.Venue),
		Location:    strings.TrimSpace(in.Location),
		Audience:    strings.TrimSpace(in.Audience),
		Organizer:   strings.TrimSpace(in.Organizer),
		Tags:        NormalizeList(in.Tags),
		Agenda:      NormalizeList(in.Agenda),
	}

	checkText(fields, "title", "Title", ev.Title, MaxTitleLength)
	checkText(fields, "description", "Description", ev.Description, MaxDescriptionLength)
	checkText(fields, "overview", "Overview", ev.Overview, MaxOverviewLength)
	checkText(fields, "venue", "Venue", ev.Venue, 0)
	checkText(fields, "location", "Location", ev.Location, 0)
	checkText(fields, "audience", "Audience", ev.Audience, 0)
	checkText(fields, "organizer", "Organizer", ev.Organizer, 0)

	if strings.TrimSpace(in.Date) == "" {
		fields["date"] = "Date is required"
	} else if d, err := NormalizeDate(in.Date); err != nil {
		fields["date"] = err.Error()
		causes = append(causes, ErrInvalidDate)
	} else {
		ev.Date = d
	}

	if strings.TrimSpace(in.Time) == "" {
		fields["time"] = "Time is required"
	} else if t, err := NormalizeTime(in.Time); err != nil {
		fields["time"] = err.Error()
		causes = append(causes, ErrInvalidTime)
	} else {
		ev.Time = t
	}

	mode, err := NormalizeMode(in.Mode)
	if err != nil {
		fields["mode"] = err.Error()
	}
	ev.Mode = mode

	if len(fields) > 0 {
		verr := domain.NewValidationError(fields)
		verr.Err = errors.Join(causes...)
		return nil, verr
	}
	return ev, nil
}

func checkText(fields map[string]string, key, label, value string, max int) {
	if value == "" {
		fields[key] = label + " is required"
		return
	}
	if max > 0 && utf8.RuneCountInString(value) > max {
		fields[key] = fmt.Sprintf("%s cannot exceed %d characters", label, max)
	}
}

// NormalizeDate parses raw as a calendar date and returns it as YYYY-MM-DD.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("Invalid date format: %q is not a valid calendar date", raw)
}

// NormalizeTime parses raw as a time of day ("14:30", "9:05 am", "09:05PM") and
// returns it as 24-hour HH:MM.
func NormalizeTime(raw string) (string, error) {
	invalid := fmt.Errorf("Invalid time format: %q, use HH:MM or HH:MM AM/PM", raw)
	m := timeOfDay.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", invalid
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if minute > 59 {
		return "", invalid
	}
	if period := strings.ToUpper(m[3]); period != "" {
		if hour < 1 || hour > 12 {
			return "", invalid
		}
		switch {
		case period == "AM" && hour == 12:
			hour = 0
		case period == "PM" && hour != 12:
			hour += 12
		}
	} else if hour > 23 {
		return "", invalid
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// NormalizeMode lower-cases raw and checks it against the known modes. Blank means online.
func NormalizeMode(raw string) (domain.EventMode, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return domain.ModeOnline, nil
	}
	mode := domain.EventMode(s)
	if !mode.Valid() {
		return "", fmt.Errorf("Mode must be one of online, offline, hybrid")
	}
	return mode, nil
}

// NormalizeList trims every entry and drops blank ones. The result is never nil.
func NormalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
