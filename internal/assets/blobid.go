// Package assets derives blob identifiers and locates, copies and renames
// the physical asset files behind them.
package assets

import (
	"errors"
	"fmt"

	"crew_migrator/internal/domain"
)

// Blob names are {prefix}{6-digit zero-padded FreelancerID} and must stay
// bit-exact with what is already in the storage account.
const blobIDDigits = 6

const maxFreelancerID = 999999

// ErrIDOutOfRange means the FreelancerID does not fit the fixed-width blob
// ID format. Truncating or wrapping would silently collide with another
// freelancer's blobs, so this is always an error.
var ErrIDOutOfRange = errors.New("freelancer id outside blob id range")

var blobPrefixes = map[domain.AssetType]string{
	domain.AssetPhoto:     "P",
	domain.AssetCV:        "C",
	domain.AssetEquipment: "E",
}

// BlobID is a pure function of (assetType, freelancerID): the same inputs
// always yield the same ID, which is what makes re-uploads idempotent.
func BlobID(t domain.AssetType, freelancerID int64) (string, error) {
	prefix, ok := blobPrefixes[t]
	if !ok {
		return "", fmt.Errorf("unknown asset type %q", t)
	}
	if freelancerID < 1 || freelancerID > maxFreelancerID {
		return "", fmt.Errorf("%w: %d", ErrIDOutOfRange, freelancerID)
	}
	return fmt.Sprintf("%s%0*d", prefix, blobIDDigits, freelancerID), nil
}
