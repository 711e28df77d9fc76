package domain

import "fmt"

// VerificationStatus mirrors the PhotoStatusID/CVStatusID lookup values in
// tblFreelancerWebsiteData.
type VerificationStatus int

const (
	StatusNone         VerificationStatus = 0
	StatusToBeVerified VerificationStatus = 1
	StatusVerified     VerificationStatus = 2
	StatusRejected     VerificationStatus = 3
)

// ScrapedRecord is one freelancer as scraped from the legacy WordPress site.
// Records are read-only inputs; the pipeline never mutates them.
type ScrapedRecord struct {
	Name         string
	Slug         string
	Bio          *string
	Categories   []string
	ImageURL     *string
	CVURL        *string
	EquipmentURL *string
	Links        map[string]string // link name (Website, Instagram, ...) -> URL
}

// Validate fails fast on shape problems at the file-read boundary.
func (r ScrapedRecord) Validate() error {
	if r.Slug == "" {
		return fmt.Errorf("scraped record %q: missing slug", r.Name)
	}
	if r.Name == "" {
		return fmt.Errorf("scraped record %q: missing name", r.Slug)
	}
	return nil
}

// CanonicalRecord is one freelancer row in the system-of-record database.
// FreelancerID is the only stable identity; the slug is a secondary lookup
// key that may disagree with the scraped slug in case or punctuation.
type CanonicalRecord struct {
	FreelancerID    int64              `db:"FreelancerID"`
	Slug            *string            `db:"Slug"`
	DisplayName     *string            `db:"DisplayName"`
	Bio             *string            `db:"FreelancerBio"`
	Email           *string            `db:"Email"`
	PhotoBlobID     *string            `db:"PhotoBlobID"`
	CVBlobID        *string            `db:"CVBlobID"`
	EquipmentBlobID *string            `db:"EquipmentBlobID"`
	PhotoStatusID   VerificationStatus `db:"PhotoStatusID"`
	CVStatusID      VerificationStatus `db:"CVStatusID"`
}

// MatchedRecord joins a ScrapedRecord with its canonical row by normalized
// slug equality. The needs* flags are computed once during matching.
type MatchedRecord struct {
	Scraped   ScrapedRecord
	Canonical CanonicalRecord

	NeedsPhotoUpdate     bool
	NeedsCVUpdate        bool
	NeedsEquipmentUpdate bool
	NeedsBioUpdate       bool
	NeedsLinksUpdate     bool
}

// UnmatchedRecord is a scraped record with no canonical counterpart. It is
// reported, never inserted.
type UnmatchedRecord struct {
	Scraped ScrapedRecord
	Reason  string
}

// Link is one row of tblFreelancerWebsiteDataLinks.
type Link struct {
	FreelancerID int64  `db:"FreelancerID"`
	Name         string `db:"LinkName"`
	URL          string `db:"LinkURL"`
}

// MissingLink records a link UPDATE that affected zero rows. The pipeline
// never inserts links; these go to a report for manual DBA action.
type MissingLink struct {
	FreelancerID   int64  `json:"FreelancerID"`
	FreelancerName string `json:"FreelancerName"`
	LinkName       string `json:"LinkName"`
	LinkURL        string `json:"LinkURL"`
}

// ProfileUpdate carries the columns to write back to
// tblFreelancerWebsiteData. Nil fields are left unchanged; the store never
// sets a column to NULL because a field was absent from input.
type ProfileUpdate struct {
	FreelancerID    int64
	DisplayName     *string
	Bio             *string
	Email           *string
	PhotoBlobID     *string
	CVBlobID        *string
	EquipmentBlobID *string
	PhotoStatusID   *VerificationStatus
	CVStatusID      *VerificationStatus
}

// Empty reports whether the update would touch no columns.
func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.Email == nil &&
		u.PhotoBlobID == nil && u.CVBlobID == nil && u.EquipmentBlobID == nil &&
		u.PhotoStatusID == nil && u.CVStatusID == nil
}
