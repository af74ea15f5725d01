package utils

import (
	"fmt"
	"strings"
	"time"
)

// releaseDateLayout is the provider's fixed release date format.
const releaseDateLayout = "2006-01-02"

// ParseReleaseDate parses a provider release date. An empty or malformed
// value is an error; ingestion never stores a record without a valid date.
func ParseReleaseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("release date is empty")
	}

	parsed, err := time.Parse(releaseDateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed release date %q: %w", value, err)
	}

	return parsed, nil
}
