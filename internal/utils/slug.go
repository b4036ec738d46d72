// internal/utils/slug.go
package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugStripRegex = regexp.MustCompile("[^a-z0-9]+")

// GenerateSlug builds a URL-safe slug from a product name with a short
// random suffix so two products with the same name never collide.
func GenerateSlug(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = slugStripRegex.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "product"
	}
	if len(base) > 60 {
		base = strings.Trim(base[:60], "-")
	}

	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return base + "-" + suffix
}
