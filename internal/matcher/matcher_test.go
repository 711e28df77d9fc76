package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crew_migrator/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestMatch_PartitionsEveryRecord(t *testing.T) {
	scraped := []domain.ScrapedRecord{
		{Name: "Jane Doe", Slug: "jane-doe"},
		{Name: "John Smith", Slug: "john-smith"},
		{Name: "Ghost", Slug: "ghost-person"},
	}
	canonical := []domain.CanonicalRecord{
		{FreelancerID: 77, Slug: ptr("jane-doe")},
		{FreelancerID: 42, Slug: ptr("John-Smith")}, // case mismatch still matches
	}

	res, err := Match(scraped, canonical)
	require.NoError(t, err)

	assert.Len(t, res.Matched, 2)
	assert.Len(t, res.Unmatched, 1)
	assert.Equal(t, len(scraped), len(res.Matched)+len(res.Unmatched))
	assert.Equal(t, "ghost-person", res.Unmatched[0].Scraped.Slug)
	assert.Contains(t, res.Unmatched[0].Reason, "ghost-person")
}

func TestMatch_CaseInsensitiveSlug(t *testing.T) {
	scraped := []domain.ScrapedRecord{{Name: "John", Slug: "JOHN-SMITH"}}
	canonical := []domain.CanonicalRecord{{FreelancerID: 1, Slug: ptr("john-smith")}}

	res, err := Match(scraped, canonical)
	require.NoError(t, err)
	require.Len(t, res.Matched, 1)
	assert.Equal(t, int64(1), res.Matched[0].Canonical.FreelancerID)
}

func TestMatch_SlugCollisionIsFatal(t *testing.T) {
	canonical := []domain.CanonicalRecord{
		{FreelancerID: 1, Slug: ptr("jane-doe")},
		{FreelancerID: 2, Slug: ptr("Jane-Doe")},
	}

	_, err := Match(nil, canonical)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSlugCollision)
	assert.Contains(t, err.Error(), "1")
	assert.Contains(t, err.Error(), "2")
}

func TestMatch_CanonicalWithoutSlugIsSkipped(t *testing.T) {
	scraped := []domain.ScrapedRecord{{Name: "Jane", Slug: "jane-doe"}}
	canonical := []domain.CanonicalRecord{
		{FreelancerID: 1, Slug: nil},
		{FreelancerID: 2, Slug: ptr("")},
	}

	res, err := Match(scraped, canonical)
	require.NoError(t, err)
	assert.Empty(t, res.Matched)
	assert.Len(t, res.Unmatched, 1)
}

func TestMatch_NeedsFlags(t *testing.T) {
	scraped := []domain.ScrapedRecord{{
		Name:     "Jane Doe",
		Slug:     "jane-doe",
		Bio:      ptr("new bio"),
		ImageURL: ptr("https://x/jane.jpg"),
		CVURL:    ptr("https://x/jane.pdf"),
		Links:    map[string]string{"Website": "https://jane.example"},
	}}
	canonical := []domain.CanonicalRecord{{
		FreelancerID: 77,
		Slug:         ptr("jane-doe"),
		Bio:          ptr("old bio"),
		CVBlobID:     ptr("C000077"), // already migrated
	}}

	res, err := Match(scraped, canonical)
	require.NoError(t, err)
	require.Len(t, res.Matched, 1)

	m := res.Matched[0]
	assert.True(t, m.NeedsPhotoUpdate)
	assert.False(t, m.NeedsCVUpdate, "canonical already has a CV blob")
	assert.False(t, m.NeedsEquipmentUpdate, "scrape has no equipment URL")
	assert.True(t, m.NeedsBioUpdate)
	assert.True(t, m.NeedsLinksUpdate)
}

func TestMatch_IdenticalBioNeedsNoUpdate(t *testing.T) {
	scraped := []domain.ScrapedRecord{{Name: "Jane", Slug: "jane-doe", Bio: ptr("same")}}
	canonical := []domain.CanonicalRecord{{FreelancerID: 77, Slug: ptr("jane-doe"), Bio: ptr("same")}}

	res, err := Match(scraped, canonical)
	require.NoError(t, err)
	require.Len(t, res.Matched, 1)
	assert.False(t, res.Matched[0].NeedsBioUpdate)
}
