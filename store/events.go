package store

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phillip/college-events-go/models"
)

const EventsCollection = "events"

// EventQuery holds the optional List filters; empty means unfiltered.
type EventQuery struct {
	Search    string
	EventType string
	Status    string
}

// Filter builds the Mongo filter for q. Search is a literal,
// case-insensitive substring of title or description.
func (q EventQuery) Filter() bson.M {
	filter := bson.M{}
	if q.Search != "" {
		pattern := regexp.QuoteMeta(q.Search)
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if q.EventType != "" {
		filter["eventType"] = q.EventType
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	return filter
}

type EventStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewEventStore(db *mongo.Database) *EventStore {
	return &EventStore{
		col: db.Collection(EventsCollection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ---------------- CREATE ----------------

// Insert stores ev, assigning its id and timestamps.
func (s *EventStore) Insert(ctx context.Context, ev *models.Event) error {
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	if ev.Participants == nil {
		ev.Participants = []primitive.ObjectID{}
	}
	now := s.now()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	_, err := s.col.InsertOne(ctx, ev)
	return classify(err)
}

// ---------------- GET ----------------

func (s *EventStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var ev models.Event
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return nil, classify(err)
	}
	return &ev, nil
}

// ---------------- LIST ----------------

// Find returns the events matching q ordered by date, earliest first.
func (s *EventStore) Find(ctx context.Context, q EventQuery) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.col.Find(ctx, q.Filter(), opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, classify(err)
	}
	return events, nil
}

// ---------------- UPDATE ----------------

// Update applies patch with $set and returns the document after the update.
func (s *EventStore) Update(ctx context.Context, id primitive.ObjectID, patch models.EventPatch) (*models.Event, error) {
	set := patch.Set()
	set["updatedAt"] = s.now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Event
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, classify(err)
	}
	return &updated, nil
}

// ---------------- DELETE ----------------

func (s *EventStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return classify(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
