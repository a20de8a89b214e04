package services

import (
	"sort"
	"strings"
)

// EventFields is the raw event payload. A nil field was not supplied.
type EventFields struct {
	Title       *string
	Description *string
	EventType   *string
	Date        *string
	Time        *string
	Venue       *string
	Status      *string
}

// Set assigns the payload key to its field. Keys outside the event schema
// are rejected.
func (f *EventFields) Set(key, value string) error {
	v := value
	switch key {
	case "title":
		f.Title = &v
	case "description":
		f.Description = &v
	case "eventType":
		f.EventType = &v
	case "date":
		f.Date = &v
	case "time":
		f.Time = &v
	case "venue":
		f.Venue = &v
	case "status":
		f.Status = &v
	default:
		return ErrUnknownField(key)
	}
	return nil
}

// FieldsFromForm maps submitted form values onto EventFields, taking the
// first value of each key. Keys are processed in sorted order so the
// reported unknown field is stable.
func FieldsFromForm(values map[string][]string) (EventFields, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var f EventFields
	for _, k := range keys {
		vs := values[k]
		if len(vs) == 0 {
			continue
		}
		if err := f.Set(k, vs[0]); err != nil {
			return EventFields{}, err
		}
	}
	return f, nil
}

// FieldsFromMap is FieldsFromForm for single-valued payloads such as JSON.
func FieldsFromMap(values map[string]string) (EventFields, error) {
	form := make(map[string][]string, len(values))
	for k, v := range values {
		form[k] = []string{v}
	}
	return FieldsFromForm(form)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func trimmed(p *string) string { return strings.TrimSpace(deref(p)) }
