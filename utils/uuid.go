package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a random identifier, used for auction, bid and
// account IDs alike.
func GenerateID() string {
	return uuid.New().String()
}
