package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/college-events-go/models"
)

// GenerateETag derives a weak validator for a single document.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time) string {
	return fmt.Sprintf(`W/"%s-%d"`, id.Hex(), updatedAt.UnixNano())
}

// ListETag derives a weak validator for an ordered result set, so adding,
// removing or editing any member changes it.
func ListETag(events []models.EventView) string {
	h := sha256.New()
	for _, ev := range events {
		h.Write(ev.ID[:])
		h.Write([]byte(strconv.FormatInt(ev.UpdatedAt.UnixNano(), 10)))
	}
	return `W/"` + hex.EncodeToString(h.Sum(nil))[:32] + `"`
}

// LastModified returns the latest update time in events.
func LastModified(events []models.EventView) time.Time {
	var latest time.Time
	for _, ev := range events {
		if ev.UpdatedAt.After(latest) {
			latest = ev.UpdatedAt
		}
	}
	return latest
}
