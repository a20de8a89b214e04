package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // bcrypt hash
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the display-safe projection of a User. It never carries
// credentials.
type PublicUser struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username,omitempty" json:"username,omitempty"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Account is what the auth endpoints return about the caller.
type Account struct {
	PublicUser `bson:",inline"`
	Role       string `bson:"role" json:"role"`
}

func (u User) Account() Account {
	return Account{PublicUser: u.Public(), Role: u.Role}
}
