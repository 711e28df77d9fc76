// Package matcher cross-references scraped freelancer records against
// canonical database rows by normalized slug equality.
package matcher

import (
	"errors"
	"fmt"
	"strings"

	"crew_migrator/internal/domain"
)

// ErrSlugCollision means two canonical rows normalize to the same slug. The
// index would silently drop one of them, so matching refuses to start until
// the rows are fixed by hand.
var ErrSlugCollision = errors.New("canonical slug collision")

// Result partitions the scraped set: every scraped record ends up in exactly
// one of Matched or Unmatched.
type Result struct {
	Matched   []domain.MatchedRecord
	Unmatched []domain.UnmatchedRecord
}

// Match builds a normalized-slug index over the canonical records and looks
// every scraped record up in it. Canonical rows without a slug are not
// indexed and can only be reached by FreelancerID, which the scrape does not
// carry, so they never match.
func Match(scraped []domain.ScrapedRecord, canonical []domain.CanonicalRecord) (*Result, error) {
	index := make(map[string]domain.CanonicalRecord, len(canonical))
	for _, c := range canonical {
		if c.Slug == nil || *c.Slug == "" {
			continue
		}
		key := Normalize(*c.Slug)
		if prev, ok := index[key]; ok {
			return nil, fmt.Errorf("%w: slug %q maps to FreelancerID %d and %d",
				ErrSlugCollision, key, prev.FreelancerID, c.FreelancerID)
		}
		index[key] = c
	}

	res := &Result{}
	for _, s := range scraped {
		c, ok := index[Normalize(s.Slug)]
		if !ok {
			res.Unmatched = append(res.Unmatched, domain.UnmatchedRecord{
				Scraped: s,
				Reason:  fmt.Sprintf("no canonical record with slug %q", s.Slug),
			})
			continue
		}
		res.Matched = append(res.Matched, join(s, c))
	}

	return res, nil
}

// Normalize is the slug equality key: lowercased, surrounding space removed.
func Normalize(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func join(s domain.ScrapedRecord, c domain.CanonicalRecord) domain.MatchedRecord {
	return domain.MatchedRecord{
		Scraped:              s,
		Canonical:            c,
		NeedsPhotoUpdate:     hasURL(s.ImageURL) && blank(c.PhotoBlobID),
		NeedsCVUpdate:        hasURL(s.CVURL) && blank(c.CVBlobID),
		NeedsEquipmentUpdate: hasURL(s.EquipmentURL) && blank(c.EquipmentBlobID),
		NeedsBioUpdate:       needsBio(s.Bio, c.Bio),
		NeedsLinksUpdate:     len(s.Links) > 0,
	}
}

func hasURL(u *string) bool {
	return u != nil && *u != ""
}

func blank(v *string) bool {
	return v == nil || *v == ""
}

func needsBio(scraped, canonical *string) bool {
	if scraped == nil || *scraped == "" {
		return false
	}
	return canonical == nil || *canonical != *scraped
}
