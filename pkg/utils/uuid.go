package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// GenerateReceiptNo generates a receipt number such as R-20240110-1A2B3C4D
func GenerateReceiptNo(at time.Time) string {
	return "R-" + at.Format("20060102") + "-" + strings.ToUpper(uuid.New().String()[:8])
}
