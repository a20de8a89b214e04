package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/college-events-go/models"
)

type Decision bool

const (
	Permit Decision = true
	Deny   Decision = false
)

// Identity is the decoded caller attached by the auth middleware.
type Identity struct {
	UserID string
	Role   string
}

// Authorize decides whether the requester may mutate an event owned by
// organizer: the organizer and admins may, nobody else.
func Authorize(organizer primitive.ObjectID, requesterID, role string) Decision {
	if role == models.RoleAdmin {
		return Permit
	}
	if requesterID != "" && !organizer.IsZero() && organizer.Hex() == requesterID {
		return Permit
	}
	return Deny
}
