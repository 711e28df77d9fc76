package progress

import (
	"path/filepath"

	"crew_migrator/internal/domain"
)

const linksTable = "tblFreelancerWebsiteDataLinks"

var linksColumns = []string{"FreelancerID", "LinkName", "LinkURL"}

// FileMapping is one row of file_mapping.json: which source file became
// which blob-ID-named copy.
type FileMapping struct {
	Freelancer   string           `json:"freelancer"`
	FreelancerID int64            `json:"freelancer_id"`
	Asset        domain.AssetType `json:"asset"`
	SourcePath   string           `json:"source_path"`
	TargetPath   string           `json:"target_path"`
	BlobID       string           `json:"blob_id"`
}

// missingLinksReport is flagged for manual DBA action: the pipeline never
// inserts link rows itself.
type missingLinksReport struct {
	Table        string               `json:"table"`
	Columns      []string             `json:"columns"`
	MissingLinks []domain.MissingLink `json:"missing_links"`
}

// Reporter writes the per-run JSON artifacts into one report directory.
type Reporter struct {
	dir string
}

func NewReporter(dir string) *Reporter {
	return &Reporter{dir: dir}
}

func (r *Reporter) WriteFileMapping(entries []FileMapping) error {
	if entries == nil {
		entries = []FileMapping{}
	}
	return writeJSON(filepath.Join(r.dir, "file_mapping.json"), entries)
}

func (r *Reporter) WriteErrors(name string, errs []domain.MigrationError) error {
	if errs == nil {
		errs = []domain.MigrationError{}
	}
	return writeJSON(filepath.Join(r.dir, name), errs)
}

func (r *Reporter) WriteMissingLinks(links []domain.MissingLink) error {
	if links == nil {
		links = []domain.MissingLink{}
	}
	report := missingLinksReport{
		Table:        linksTable,
		Columns:      linksColumns,
		MissingLinks: links,
	}
	return writeJSON(filepath.Join(r.dir, "missing_links_for_insert.json"), report)
}
