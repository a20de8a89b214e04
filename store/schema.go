package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phillip/college-events-go/models"
)

const codeNamespaceExists = 48

// eventValidator mirrors the service rules so writes that bypass the service
// are still rejected by the server.
func eventValidator() bson.M {
	types := bson.A{}
	for _, t := range models.EventTypes {
		types = append(types, string(t))
	}
	statuses := bson.A{}
	for _, s := range models.EventStatuses {
		statuses = append(statuses, string(s))
	}
	nonEmpty := bson.M{"bsonType": "string", "minLength": 1}

	return bson.M{"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"title", "description", "eventType", "date", "time", "venue", "organizer", "status"},
		"properties": bson.M{
			"title":        nonEmpty,
			"description":  nonEmpty,
			"venue":        nonEmpty,
			"eventType":    bson.M{"enum": types, "description": "must be a valid event type"},
			"status":       bson.M{"enum": statuses, "description": "must be a valid status"},
			"date":         bson.M{"bsonType": "date"},
			"time":         bson.M{"bsonType": "string", "pattern": `^([01]?[0-9]|2[0-3]):[0-5][0-9]$`},
			"image":        bson.M{"bsonType": "string"},
			"organizer":    bson.M{"bsonType": "objectId"},
			"participants": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
		},
	}}
}

// EnsureSchema installs the events validator and the indexes both
// collections rely on. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db *mongo.Database) error {
	validator := eventValidator()
	err := db.CreateCollection(ctx, EventsCollection, options.CreateCollection().SetValidator(validator))
	var ce mongo.CommandError
	switch {
	case err == nil:
	case errors.As(err, &ce) && ce.HasErrorCode(codeNamespaceExists):
		cmd := bson.D{{Key: "collMod", Value: EventsCollection}, {Key: "validator", Value: validator}}
		if err := db.RunCommand(ctx, cmd).Err(); err != nil {
			return fmt.Errorf("update events validator: %w", err)
		}
	default:
		return fmt.Errorf("create events collection: %w", err)
	}

	_, err = db.Collection(EventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "organizer", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create events indexes: %w", err)
	}

	_, err = db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}
	return nil
}
