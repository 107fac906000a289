package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateShortID returns the first 8 hex characters of a random UUID, used in log lines.
func GenerateShortID() string {
	return strings.ReplaceAll(GenerateRandomUUID(), "-", "")[:8]
}
