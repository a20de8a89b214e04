package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phillip/college-events-go/models"
)

const UsersCollection = "users"

type UserStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{
		col: db.Collection(UsersCollection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores u. Email and username are unique; a clash is ErrDuplicate.
func (s *UserStore) Insert(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	now := s.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.col.InsertOne(ctx, u)
	return classify(err)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// FindPublic resolves ids to their display-safe projection. Unknown ids are
// absent from the result.
func (s *UserStore) FindPublic(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicUser, error) {
	out := make(map[primitive.ObjectID]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{"username": 1, "email": 1})
	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	var users []models.PublicUser
	if err := cursor.All(ctx, &users); err != nil {
		return nil, classify(err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
