package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	EventTypeAcademic  EventType = "Academic"
	EventTypeCultural  EventType = "Cultural"
	EventTypeSports    EventType = "Sports"
	EventTypeTechnical EventType = "Technical"
	EventTypeOther     EventType = "Other"
)

// EventTypes lists every accepted event type in display order.
var EventTypes = []EventType{
	EventTypeAcademic,
	EventTypeCultural,
	EventTypeSports,
	EventTypeTechnical,
	EventTypeOther,
}

func (t EventType) Valid() bool {
	for _, v := range EventTypes {
		if t == v {
			return true
		}
	}
	return false
}

type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

var EventStatuses = []EventStatus{
	StatusUpcoming,
	StatusOngoing,
	StatusCompleted,
	StatusCancelled,
}

func (s EventStatus) Valid() bool {
	for _, v := range EventStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Event is the stored document. Organizer is set once at creation.
type Event struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title        string               `bson:"title" json:"title"`
	Description  string               `bson:"description" json:"description"`
	EventType    EventType            `bson:"eventType" json:"eventType"`
	Date         time.Time            `bson:"date" json:"date"`
	Time         string               `bson:"time" json:"time"`
	Venue        string               `bson:"venue" json:"venue"`
	Image        string               `bson:"image" json:"image"`
	Organizer    primitive.ObjectID   `bson:"organizer" json:"organizer"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	Status       EventStatus          `bson:"status" json:"status"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// EventView is an Event with its user references resolved for output.
type EventView struct {
	ID           primitive.ObjectID `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	EventType    EventType          `json:"eventType"`
	Date         time.Time          `json:"date"`
	Time         string             `json:"time"`
	Venue        string             `json:"venue"`
	Image        string             `json:"image"`
	Organizer    PublicUser         `json:"organizer"`
	Participants []PublicUser       `json:"participants"`
	Status       EventStatus        `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// NewEventView builds a view from ev. Users missing from the directory are
// rendered with their id only.
func NewEventView(ev Event, users map[primitive.ObjectID]PublicUser) EventView {
	view := EventView{
		ID:           ev.ID,
		Title:        ev.Title,
		Description:  ev.Description,
		EventType:    ev.EventType,
		Date:         ev.Date,
		Time:         ev.Time,
		Venue:        ev.Venue,
		Image:        ev.Image,
		Organizer:    lookupUser(users, ev.Organizer),
		Participants: make([]PublicUser, 0, len(ev.Participants)),
		Status:       ev.Status,
		CreatedAt:    ev.CreatedAt,
		UpdatedAt:    ev.UpdatedAt,
	}
	for _, p := range ev.Participants {
		view.Participants = append(view.Participants, lookupUser(users, p))
	}
	return view
}

func lookupUser(users map[primitive.ObjectID]PublicUser, id primitive.ObjectID) PublicUser {
	if u, ok := users[id]; ok {
		return u
	}
	return PublicUser{ID: id}
}

// EventPatch is a partial update. Nil fields are left untouched; Organizer
// and Participants are not patchable.
type EventPatch struct {
	Title       *string
	Description *string
	EventType   *EventType
	Date        *time.Time
	Time        *string
	Venue       *string
	Status      *EventStatus
	Image       *string
}

func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.EventType == nil &&
		p.Date == nil && p.Time == nil && p.Venue == nil && p.Status == nil &&
		p.Image == nil
}

// Set returns the $set document for the present fields.
func (p EventPatch) Set() bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.EventType != nil {
		set["eventType"] = *p.EventType
	}
	if p.Date != nil {
		set["date"] = *p.Date
	}
	if p.Time != nil {
		set["time"] = *p.Time
	}
	if p.Venue != nil {
		set["venue"] = *p.Venue
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Image != nil {
		set["image"] = *p.Image
	}
	return set
}

// Apply merges the patch into ev in place.
func (p EventPatch) Apply(ev *Event) {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.EventType != nil {
		ev.EventType = *p.EventType
	}
	if p.Date != nil {
		ev.Date = *p.Date
	}
	if p.Time != nil {
		ev.Time = *p.Time
	}
	if p.Venue != nil {
		ev.Venue = *p.Venue
	}
	if p.Status != nil {
		ev.Status = *p.Status
	}
	if p.Image != nil {
		ev.Image = *p.Image
	}
}
