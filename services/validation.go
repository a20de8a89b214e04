package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/phillip/college-events-go/models"
)

var timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// dateLayouts are tried in order. Date-only values are midnight UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

const (
	eventTypeTag   = "oneof=Academic Cultural Sports Technical Other"
	eventStatusTag = "oneof=upcoming ongoing completed cancelled"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timePattern.MatchString(fl.Field().String())
	})
	return v
}

// requiredEvent lists the fields Create cannot do without, in the order
// missing fields are reported.
type requiredEvent struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	EventType   string `json:"eventType" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Venue       string `json:"venue" validate:"required"`
}

// EventInput is a validated create payload.
type EventInput struct {
	Title       string
	Description string
	EventType   models.EventType
	Date        time.Time
	Time        string
	Venue       string
	Status      models.EventStatus
}

// ValidateCreate checks a create payload. Failures are reported by kind in
// priority order: missing fields, date, time, then enumerations. Only title,
// description, venue and date are trimmed; time and the enumerations must
// match verbatim.
func ValidateCreate(f EventFields) (EventInput, error) {
	req := requiredEvent{
		Title:       trimmed(f.Title),
		Description: trimmed(f.Description),
		EventType:   deref(f.EventType),
		Date:        trimmed(f.Date),
		Time:        deref(f.Time),
		Venue:       trimmed(f.Venue),
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return EventInput{}, ErrInternal("validation failed", err)
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return EventInput{}, errMissingFields(missing)
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		return EventInput{}, err
	}
	if !ValidTime(req.Time) {
		return EventInput{}, errInvalidTime()
	}
	if err := validate.Var(req.EventType, eventTypeTag); err != nil {
		return EventInput{}, errInvalidEnum("eventType", req.EventType, "event type")
	}

	status := models.StatusUpcoming
	if s := deref(f.Status); s != "" {
		if err := validate.Var(s, eventStatusTag); err != nil {
			return EventInput{}, errInvalidEnum("status", s, "status")
		}
		status = models.EventStatus(s)
	}

	return EventInput{
		Title:       req.Title,
		Description: req.Description,
		EventType:   models.EventType(req.EventType),
		Date:        date,
		Time:        req.Time,
		Venue:       req.Venue,
		Status:      status,
	}, nil
}

// ValidateUpdate applies the create rules to every field the update carries.
// Blank values count as not supplied. image is the stored reference of a
// newly uploaded file, or empty.
func ValidateUpdate(f EventFields, image string) (models.EventPatch, error) {
	var ch models.EventPatch

	if v := trimmed(f.Title); v != "" {
		ch.Title = &v
	}
	if v := trimmed(f.Description); v != "" {
		ch.Description = &v
	}
	if v := trimmed(f.Venue); v != "" {
		ch.Venue = &v
	}
	if v := trimmed(f.Date); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			return models.EventPatch{}, err
		}
		ch.Date = &d
	}
	if v := deref(f.Time); strings.TrimSpace(v) != "" {
		if !ValidTime(v) {
			return models.EventPatch{}, errInvalidTime()
		}
		ch.Time = &v
	}
	if v := deref(f.EventType); strings.TrimSpace(v) != "" {
		if err := validate.Var(v, eventTypeTag); err != nil {
			return models.EventPatch{}, errInvalidEnum("eventType", v, "event type")
		}
		t := models.EventType(v)
		ch.EventType = &t
	}
	if v := deref(f.Status); strings.TrimSpace(v) != "" {
		if err := validate.Var(v, eventStatusTag); err != nil {
			return models.EventPatch{}, errInvalidEnum("status", v, "status")
		}
		s := models.EventStatus(v)
		ch.Status = &s
	}
	if image != "" {
		ch.Image = &image
	}

	if ch.Empty() {
		return models.EventPatch{}, errEmptyUpdate()
	}
	return ch, nil
}

// ParseDate parses a calendar date in any accepted layout, normalized to UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errInvalidDate()
}

// ValidTime reports whether s is an HH:MM time of day.
func ValidTime(s string) bool {
	return validate.Var(s, "hhmm") == nil
}
