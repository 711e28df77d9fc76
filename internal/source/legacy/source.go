// Package legacy reads the scraped WordPress crew directory: the scraped
// JSON record set and the remote asset files it points at.
package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"crew_migrator/internal/domain"
)

const SourceName = "legacy wordpress scrape"

// Link names as they appear in tblFreelancerWebsiteDataLinks.LinkName.
const (
	LinkWebsite   = "Website"
	LinkInstagram = "Instagram"
	LinkIMDB      = "IMDB"
	LinkLinkedIn  = "LinkedIn"
)

// Source loads scraped freelancer records from a JSON file.
type Source struct {
	path   string
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Source {
	return &Source{
		path:   path,
		logger: logger.With("source", "legacy"),
	}
}

func (s *Source) Name() string {
	return SourceName
}

// Records reads and validates the whole scraped set. Shape problems fail
// fast here, before any record is touched, rather than propagating nils
// through the pipeline.
func (s *Source) Records(_ context.Context) ([]domain.ScrapedRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read scraped json: %w", err)
	}

	var file scrapeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scraped json: %w", err)
	}
	if file.Freelancers == nil {
		return nil, fmt.Errorf("scraped json %s: missing \"freelancers\" array", s.path)
	}

	records := make([]domain.ScrapedRecord, 0, len(file.Freelancers))
	for i, f := range file.Freelancers {
		rec := transform(f)
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("scraped json entry %d: %w", i, err)
		}
		records = append(records, rec)
	}

	s.logger.Info("loaded scraped records", "count", len(records))
	return records, nil
}

func transform(f scrapedFreelancer) domain.ScrapedRecord {
	rec := domain.ScrapedRecord{
		Name:         f.Name,
		Slug:         f.Slug,
		Bio:          f.Bio,
		Categories:   f.Categories,
		ImageURL:     f.ImageURL,
		CVURL:        f.CVURL,
		EquipmentURL: f.EquipmentURL,
		Links:        map[string]string{},
	}

	addLink := func(name string, url *string) {
		if url != nil && *url != "" {
			rec.Links[name] = *url
		}
	}
	addLink(LinkWebsite, f.Website)
	addLink(LinkInstagram, f.Instagram)
	addLink(LinkIMDB, f.IMDB)
	addLink(LinkLinkedIn, f.LinkedIn)

	return rec
}
