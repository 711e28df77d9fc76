// Package service orchestrates the migration pipeline: match, locate, copy,
// upload, write back, publish.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"crew_migrator/internal/assets"
	"crew_migrator/internal/config"
	"crew_migrator/internal/domain"
	"crew_migrator/internal/matcher"
	"crew_migrator/internal/progress"
)

// errAmbiguousMatch marks a located file that needs explicit operator
// acceptance before the pipeline will touch it.
var errAmbiguousMatch = errors.New("ambiguous match")

// MigrationService drives one sequential pass over the scraped records.
// Per-asset failures are accumulated and reported; only startup problems
// (unreadable input, unreachable database, slug collisions) abort the run.
type MigrationService struct {
	source      Source
	freelancers FreelancerStore
	links       LinkStore
	locator     Locator
	copier      Copier
	uploader    Uploader
	ledger      Ledger
	reporter    Reporter
	publisher   Publisher
	txManager   TransactionManager
	paths       config.PathsConfig
	cfg         config.MigrationConfig
	logger      *slog.Logger
}

func NewMigrationService(
	source Source,
	freelancers FreelancerStore,
	links LinkStore,
	locator Locator,
	copier Copier,
	uploader Uploader,
	ledger Ledger,
	reporter Reporter,
	publisher Publisher,
	txManager TransactionManager,
	paths config.PathsConfig,
	cfg config.MigrationConfig,
	logger *slog.Logger,
) *MigrationService {
	return &MigrationService{
		source:      source,
		freelancers: freelancers,
		links:       links,
		locator:     locator,
		copier:      copier,
		uploader:    uploader,
		ledger:      ledger,
		reporter:    reporter,
		publisher:   publisher,
		txManager:   txManager,
		paths:       paths,
		cfg:         cfg,
		logger:      logger,
	}
}

// Migrate runs one full pass. A non-nil error means the pass could not run
// at all; per-record failures only show up in the stats and reports.
func (s *MigrationService) Migrate(ctx context.Context) (*domain.MigrationStats, error) {
	startTime := time.Now()
	s.logger.Info("starting migration", "source", s.source.Name())

	scraped, err := s.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scraped records: %w", err)
	}

	canonical, err := s.freelancers.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load canonical records: %w", err)
	}

	res, err := matcher.Match(scraped, canonical)
	if err != nil {
		return nil, fmt.Errorf("match records: %w", err)
	}

	stats := &domain.MigrationStats{
		Matched:   len(res.Matched),
		Unmatched: len(res.Unmatched),
	}
	s.logger.Info("matched records",
		"scraped", len(scraped),
		"matched", stats.Matched,
		"unmatched", stats.Unmatched,
	)

	for _, u := range res.Unmatched {
		s.logger.Warn("unmatched record", "slug", u.Scraped.Slug, "reason", u.Reason)
		if err := s.ledger.RecordError(domain.MigrationError{
			Freelancer: u.Scraped.Slug,
			Type:       "unmatched",
			Reason:     u.Reason,
		}); err != nil {
			return stats, fmt.Errorf("record unmatched: %w", err)
		}
	}

	var mappings []progress.FileMapping
	var missingLinks []domain.MissingLink

	for i := range res.Matched {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		s.processRecord(ctx, i, &res.Matched[i], stats, &mappings, &missingLinks)

		if s.cfg.DelayBetweenRecords > 0 && i < len(res.Matched)-1 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(s.cfg.DelayBetweenRecords):
			}
		}
	}

	if err := s.reporter.WriteFileMapping(mappings); err != nil {
		return stats, fmt.Errorf("write file mapping: %w", err)
	}
	if err := s.reporter.WriteErrors("migration_errors.json", s.ledger.Errors()); err != nil {
		return stats, fmt.Errorf("write errors report: %w", err)
	}
	if err := s.reporter.WriteMissingLinks(missingLinks); err != nil {
		return stats, fmt.Errorf("write missing links report: %w", err)
	}

	if stats.Errors == 0 && stats.Unmatched == 0 {
		if err := s.ledger.Clear(); err != nil {
			return stats, fmt.Errorf("clear progress: %w", err)
		}
	}

	stats.Duration = time.Since(startTime)
	s.logger.Info("migration completed",
		"uploaded", stats.Uploaded,
		"profiles_updated", stats.ProfilesUpdated,
		"links_updated", stats.LinksUpdated,
		"missing_links", stats.MissingLinks,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *MigrationService) processRecord(
	ctx context.Context,
	index int,
	rec *domain.MatchedRecord,
	stats *domain.MigrationStats,
	mappings *[]progress.FileMapping,
	missingLinks *[]domain.MissingLink,
) {
	id := rec.Canonical.FreelancerID
	slug := rec.Scraped.Slug

	upd := domain.ProfileUpdate{FreelancerID: id}
	var migrated []domain.BlobAsset

	for _, t := range domain.AssetTypes {
		if !needsAsset(rec, t) {
			continue
		}

		key := progress.Key(id, string(t))
		if s.ledger.Done(key) {
			// Blob IDs are deterministic, so a resumed run can still fill
			// in the profile columns for work finished last time.
			blobID, err := assets.BlobID(t, id)
			if err == nil {
				applyBlobID(&upd, t, blobID)
			}
			stats.Skipped++
			continue
		}

		asset, err := s.migrateAsset(ctx, rec, t, stats, mappings)
		if err != nil {
			s.fail(stats, domain.MigrationError{
				Freelancer: slug,
				Type:       failureType(err, t),
				Reason:     fmt.Sprintf("%s asset not migrated", t),
				Err:        err.Error(),
			})
			continue
		}

		if err := s.ledger.MarkDone(key, index); err != nil {
			s.fail(stats, domain.MigrationError{
				Freelancer: slug,
				Type:       string(t),
				Reason:     "progress not persisted",
				Err:        err.Error(),
			})
			continue
		}

		applyBlobID(&upd, t, asset.BlobID)
		migrated = append(migrated, *asset)
	}

	if rec.NeedsBioUpdate {
		upd.Bio = rec.Scraped.Bio
	}

	s.writeBack(ctx, index, rec, upd, stats, missingLinks)

	if s.publisher != nil && len(migrated) > 0 {
		if err := s.publisher.Publish(ctx, rec, migrated); err != nil {
			s.fail(stats, domain.MigrationError{
				Freelancer: slug,
				Type:       "publish",
				Reason:     "profile event not published",
				Err:        err.Error(),
			})
		} else {
			stats.Published++
		}
	}
}

// migrateAsset runs the per-asset pipeline: blob ID, locate, copy, upload.
func (s *MigrationService) migrateAsset(
	ctx context.Context,
	rec *domain.MatchedRecord,
	t domain.AssetType,
	stats *domain.MigrationStats,
	mappings *[]progress.FileMapping,
) (*domain.BlobAsset, error) {
	id := rec.Canonical.FreelancerID
	slug := rec.Scraped.Slug

	blobID, err := assets.BlobID(t, id)
	if err != nil {
		return nil, err
	}

	dir := s.paths.SourceDir(t)
	m, err := s.locator.Locate(dir, slug)
	if err != nil {
		if errors.Is(err, assets.ErrNoMatch) {
			stats.FilesMissing++
		}
		return nil, err
	}
	if m.Ambiguous && !s.cfg.AcceptAmbiguous {
		return nil, fmt.Errorf("%w for %q via %s: %d candidates, best %q (set migration.accept_ambiguous to proceed)",
			errAmbiguousMatch, slug, m.Strategy, len(m.Candidates), m.Filename)
	}
	stats.Located++

	ext := strings.ToLower(filepath.Ext(m.Filename))
	sourcePath := filepath.Join(dir, m.Filename)

	result, target, err := s.copier.Copy(sourcePath, s.paths.OutputDir, blobID, ext)
	if err != nil {
		return nil, fmt.Errorf("copy %s: %w", sourcePath, err)
	}
	if result == assets.AlreadyExists {
		stats.AlreadyExisted++
	} else {
		stats.Copied++
	}

	blobName := blobID + ext
	exists, err := s.uploader.Exists(ctx, blobName)
	if err != nil {
		return nil, fmt.Errorf("check blob %s: %w", blobName, err)
	}
	if !exists {
		if err := s.uploader.Upload(ctx, target, blobName); err != nil {
			return nil, fmt.Errorf("upload %s: %w", blobName, err)
		}
		stats.Uploaded++
	}

	*mappings = append(*mappings, progress.FileMapping{
		Freelancer:   rec.Scraped.Name,
		FreelancerID: id,
		Asset:        t,
		SourcePath:   sourcePath,
		TargetPath:   target,
		BlobID:       blobID,
	})

	return &domain.BlobAsset{
		FreelancerID: id,
		Type:         t,
		BlobID:       blobID,
		Extension:    ext,
		SourcePath:   sourcePath,
		FileName:     blobName,
	}, nil
}

// writeBack updates the profile row and its links in one transaction, so a
// failed link update never leaves a half-written profile behind.
func (s *MigrationService) writeBack(
	ctx context.Context,
	index int,
	rec *domain.MatchedRecord,
	upd domain.ProfileUpdate,
	stats *domain.MigrationStats,
	missingLinks *[]domain.MissingLink,
) {
	id := rec.Canonical.FreelancerID
	slug := rec.Scraped.Slug

	if upd.Empty() && !rec.NeedsLinksUpdate {
		return
	}

	profileKey := progress.Key(id, "profile")
	if s.ledger.Done(profileKey) {
		stats.Skipped++
		return
	}

	var recMissing []domain.MissingLink
	var linksUpdated int
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		recMissing = recMissing[:0]
		linksUpdated = 0

		if !upd.Empty() {
			if err := s.freelancers.UpdateProfile(txCtx, upd); err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
		}

		for _, name := range sortedLinkNames(rec.Scraped.Links) {
			found, err := s.links.UpdateLink(txCtx, domain.Link{
				FreelancerID: id,
				Name:         name,
				URL:          rec.Scraped.Links[name],
			})
			if err != nil {
				return fmt.Errorf("update link %s: %w", name, err)
			}
			if !found {
				recMissing = append(recMissing, domain.MissingLink{
					FreelancerID:   id,
					FreelancerName: rec.Scraped.Name,
					LinkName:       name,
					LinkURL:        rec.Scraped.Links[name],
				})
				continue
			}
			linksUpdated++
		}
		return nil
	})
	if err != nil {
		s.fail(stats, domain.MigrationError{
			Freelancer: slug,
			Type:       "database",
			Reason:     "profile not updated",
			Err:        err.Error(),
		})
		return
	}

	if !upd.Empty() {
		stats.ProfilesUpdated++
	}
	stats.LinksUpdated += linksUpdated
	stats.MissingLinks += len(recMissing)
	*missingLinks = append(*missingLinks, recMissing...)

	if err := s.ledger.MarkDone(profileKey, index); err != nil {
		s.fail(stats, domain.MigrationError{
			Freelancer: slug,
			Type:       "profile",
			Reason:     "progress not persisted",
			Err:        err.Error(),
		})
	}
}

func (s *MigrationService) fail(stats *domain.MigrationStats, e domain.MigrationError) {
	stats.Errors++
	s.logger.Warn("migration step failed",
		"freelancer", e.Freelancer,
		"type", e.Type,
		"reason", e.Reason,
		"error", e.Err,
	)
	if err := s.ledger.RecordError(e); err != nil {
		s.logger.Error("failed to persist error", "error", err)
	}
}

func needsAsset(rec *domain.MatchedRecord, t domain.AssetType) bool {
	switch t {
	case domain.AssetPhoto:
		return rec.NeedsPhotoUpdate
	case domain.AssetCV:
		return rec.NeedsCVUpdate
	case domain.AssetEquipment:
		return rec.NeedsEquipmentUpdate
	}
	return false
}

func applyBlobID(upd *domain.ProfileUpdate, t domain.AssetType, blobID string) {
	verified := domain.StatusVerified
	switch t {
	case domain.AssetPhoto:
		upd.PhotoBlobID = &blobID
		upd.PhotoStatusID = &verified
	case domain.AssetCV:
		upd.CVBlobID = &blobID
		upd.CVStatusID = &verified
	case domain.AssetEquipment:
		upd.EquipmentBlobID = &blobID
	}
}

func failureType(err error, t domain.AssetType) string {
	switch {
	case errors.Is(err, assets.ErrNoMatch):
		return "file_missing"
	case errors.Is(err, errAmbiguousMatch):
		return "ambiguous_match"
	default:
		return string(t)
	}
}

func sortedLinkNames(links map[string]string) []string {
	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
