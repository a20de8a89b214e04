package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/college-events-go/models"
	"github.com/phillip/college-events-go/store"
)

// EventRepository is the event collection as the service sees it.
type EventRepository interface {
	Insert(ctx context.Context, ev *models.Event) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	Find(ctx context.Context, q store.EventQuery) ([]models.Event, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.EventPatch) (*models.Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserDirectory resolves user references to display-safe projections.
type UserDirectory interface {
	FindPublic(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicUser, error)
}

type ListFilter struct {
	Search    string
	EventType string
	Status    string
}

type EventService struct {
	events EventRepository
	users  UserDirectory
}

func NewEventService(events EventRepository, users UserDirectory) *EventService {
	return &EventService{events: events, users: users}
}

// ---------------- CREATE ----------------

// Create validates f and stores a new event organized by who. image is the
// stored reference of the uploaded file, or empty.
func (s *EventService) Create(ctx context.Context, f EventFields, image string, who *Identity) (*models.EventView, error) {
	organizer, err := requester(who)
	if err != nil {
		return nil, err
	}

	in, err := ValidateCreate(f)
	if err != nil {
		return nil, err
	}

	ev := &models.Event{
		Title:        in.Title,
		Description:  in.Description,
		EventType:    in.EventType,
		Date:         in.Date,
		Time:         in.Time,
		Venue:        in.Venue,
		Image:        image,
		Organizer:    organizer,
		Participants: []primitive.ObjectID{},
		Status:       in.Status,
	}
	if err := s.events.Insert(ctx, ev); err != nil {
		return nil, storeError("Error creating event", err)
	}

	log.Ctx(ctx).Info().Str("event_id", ev.ID.Hex()).Str("organizer", organizer.Hex()).Msg("event created")
	return s.presentAfterWrite(ctx, *ev), nil
}

// ---------------- LIST ----------------

func (s *EventService) List(ctx context.Context, f ListFilter) ([]models.EventView, error) {
	// a filter outside the enumerations cannot match any stored event
	if (f.EventType != "" && !models.EventType(f.EventType).Valid()) ||
		(f.Status != "" && !models.EventStatus(f.Status).Valid()) {
		return []models.EventView{}, nil
	}

	events, err := s.events.Find(ctx, store.EventQuery{
		Search:    f.Search,
		EventType: f.EventType,
		Status:    f.Status,
	})
	if err != nil {
		return nil, storeError("Error fetching events", err)
	}

	seen := make(map[primitive.ObjectID]struct{}, len(events))
	ids := make([]primitive.ObjectID, 0, len(events))
	for _, ev := range events {
		if _, ok := seen[ev.Organizer]; ok {
			continue
		}
		seen[ev.Organizer] = struct{}{}
		ids = append(ids, ev.Organizer)
	}
	users, err := s.users.FindPublic(ctx, ids)
	if err != nil {
		return nil, ErrInternal("Error fetching events", err)
	}

	views := make([]models.EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, models.NewEventView(ev, users))
	}
	return views, nil
}

// ---------------- GET ----------------

// GetByID resolves both the organizer and the participants.
func (s *EventService) GetByID(ctx context.Context, id string) (*models.EventView, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := append([]primitive.ObjectID{ev.Organizer}, ev.Participants...)
	users, err := s.users.FindPublic(ctx, ids)
	if err != nil {
		return nil, ErrInternal("Error fetching event", err)
	}
	view := models.NewEventView(*ev, users)
	return &view, nil
}

// ---------------- UPDATE ----------------

// Update merges the supplied fields into the event. It returns the updated
// event and, when image replaced a previous one, the previous reference.
func (s *EventService) Update(ctx context.Context, id string, f EventFields, image string, who *Identity) (*models.EventView, string, error) {
	if _, err := requester(who); err != nil {
		return nil, "", err
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if Authorize(existing.Organizer, who.UserID, who.Role) == Deny {
		return nil, "", ErrForbidden("Not authorized to update this event")
	}

	patch, err := ValidateUpdate(f, image)
	if err != nil {
		return nil, "", err
	}

	updated, err := s.events.Update(ctx, existing.ID, patch)
	if err != nil {
		return nil, "", storeError("Error updating event", err)
	}

	replaced := ""
	if patch.Image != nil && existing.Image != "" && existing.Image != *patch.Image {
		replaced = existing.Image
	}

	log.Ctx(ctx).Info().Str("event_id", updated.ID.Hex()).Str("by", who.UserID).Msg("event updated")
	return s.presentAfterWrite(ctx, *updated), replaced, nil
}

// ---------------- DELETE ----------------

// Delete removes the event and returns it as it was before removal.
func (s *EventService) Delete(ctx context.Context, id string, who *Identity) (*models.Event, error) {
	if _, err := requester(who); err != nil {
		return nil, err
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if Authorize(existing.Organizer, who.UserID, who.Role) == Deny {
		return nil, ErrForbidden("Not authorized to delete this event")
	}

	if err := s.events.Delete(ctx, existing.ID); err != nil {
		return nil, storeError("Error deleting event", err)
	}

	log.Ctx(ctx).Info().Str("event_id", existing.ID.Hex()).Str("by", who.UserID).Msg("event deleted")
	return existing, nil
}

// find loads an event by its hex id. Ids that cannot name a document are
// reported as not found.
func (s *EventService) find(ctx context.Context, id string) (*models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound("Event not found")
	}
	ev, err := s.events.FindByID(ctx, oid)
	if err != nil {
		return nil, storeError("Error fetching event", err)
	}
	return ev, nil
}

// presentAfterWrite resolves the organizer of a freshly written event. The
// write has already committed, so a lookup failure degrades to bare ids
// rather than failing the request.
func (s *EventService) presentAfterWrite(ctx context.Context, ev models.Event) *models.EventView {
	users, err := s.users.FindPublic(ctx, []primitive.ObjectID{ev.Organizer})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event_id", ev.ID.Hex()).Msg("organizer lookup failed")
		users = nil
	}
	view := models.NewEventView(ev, users)
	return &view
}

func requester(who *Identity) (primitive.ObjectID, error) {
	if who == nil || who.UserID == "" {
		return primitive.NilObjectID, ErrUnauthenticated("User not authenticated")
	}
	oid, err := primitive.ObjectIDFromHex(who.UserID)
	if err != nil {
		return primitive.NilObjectID, ErrUnauthenticated("invalid user id")
	}
	return oid, nil
}

// storeError translates a store failure into the service taxonomy.
func storeError(msg string, err error) error {
	var vf *store.ValidationFailure
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound("Event not found")
	case errors.As(err, &vf):
		return errPersistence(vf.Messages, err)
	default:
		return ErrInternal(msg, err)
	}
}
