package notion

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizeID converts a dashed or undashed Notion id to the dashed lowercase
// form the API returns.
func NormalizeID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// IsID reports whether s parses as a Notion id.
func IsID(s string) bool {
	_, err := NormalizeID(s)
	return err == nil
}

// CompactID strips the dashes from an id.
func CompactID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// ShortID returns the first eight characters of the compact id, used in
// heading anchors and page links.
func ShortID(id string) string {
	c := CompactID(id)
	if len(c) > 8 {
		return c[:8]
	}
	return c
}
