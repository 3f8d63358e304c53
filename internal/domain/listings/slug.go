package listings

import (
	"context"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

const (
	maxSlugBase  = 200
	fallbackSlug = "listing"
)

// SlugChecker reports whether a slug belongs to a listing other than exclude.
type SlugChecker interface {
	SlugTaken(ctx context.Context, slug string, exclude ListingID) (bool, error)
}

// SlugBase lowercases the title and collapses non-alphanumeric runs into single dashes.
func SlugBase(title string) string {
	base := slug.Make(title)
	if len(base) > maxSlugBase {
		base = base[:maxSlugBase]
	}
	base = strings.Trim(base, "-")
	if base == "" {
		return fallbackSlug
	}
	return base
}

// AssignSlug sets a unique slug when none is set yet. An existing slug is kept even if the title changed.
func AssignSlug(ctx context.Context, checker SlugChecker, l *Listing) error {
	if l.Slug != "" {
		return nil
	}
	base := SlugBase(l.Title)
	candidate := base
	for n := 1; ; n++ {
		taken, err := checker.SlugTaken(ctx, candidate, l.ID)
		if err != nil {
			return err
		}
		if !taken {
			l.Slug = candidate
			return nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}
