package domain

import "time"

// AssetType identifies one of the three per-freelancer asset kinds.
type AssetType string

const (
	AssetPhoto     AssetType = "photo"
	AssetCV        AssetType = "cv"
	AssetEquipment AssetType = "equipment"
)

// AssetTypes is the fixed processing order for a record's assets.
var AssetTypes = []AssetType{AssetPhoto, AssetCV, AssetEquipment}

// BlobAsset is one materialized (freelancer, asset-type) pair: the located
// source file, its deterministic blob ID and the blob-ID-named copy.
type BlobAsset struct {
	FreelancerID int64     `json:"freelancer_id"`
	Type         AssetType `json:"type"`
	BlobID       string    `json:"blob_id"`
	Extension    string    `json:"extension"`
	SourcePath   string    `json:"source_path"`
	FileName     string    `json:"filename"` // BlobID + Extension
}

// MigrationError is one per-asset or per-record failure, accumulated into
// the errors report. Failures never abort the run.
type MigrationError struct {
	Freelancer string `json:"freelancer"`
	Type       string `json:"type"`
	Reason     string `json:"reason"`
	Err        string `json:"error,omitempty"`
}

// MigrationStats holds statistics about one migration pass.
type MigrationStats struct {
	Matched         int
	Unmatched       int
	Located         int
	FilesMissing    int
	Copied          int
	AlreadyExisted  int
	Uploaded        int
	ProfilesUpdated int
	LinksUpdated    int
	MissingLinks    int
	Skipped         int
	Published       int
	Errors          int
	Duration        time.Duration
}

// DownloadStats holds statistics about one downloader pass.
type DownloadStats struct {
	Records    int
	Downloaded int
	Skipped    int
	Errors     int
	Duration   time.Duration
}
