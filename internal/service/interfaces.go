package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"crew_migrator/internal/assets"
	"crew_migrator/internal/domain"
	"crew_migrator/internal/progress"
)

type Source interface {
	Name() string
	Records(ctx context.Context) ([]domain.ScrapedRecord, error)
}

type FreelancerStore interface {
	GetAll(ctx context.Context) ([]domain.CanonicalRecord, error)
	UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) error
}

type LinkStore interface {
	UpdateLink(ctx context.Context, link domain.Link) (bool, error)
}

type Locator interface {
	Locate(dir, slug string) (*assets.Match, error)
}

type Copier interface {
	Copy(sourcePath, destDir, blobID, ext string) (assets.CopyResult, string, error)
}

type Uploader interface {
	Upload(ctx context.Context, localPath, blobName string) error
	Exists(ctx context.Context, blobName string) (bool, error)
}

type Downloader interface {
	Download(ctx context.Context, url, destPath string) (bool, error)
}

type Ledger interface {
	Done(key string) bool
	MarkDone(key string, index int) error
	RecordError(e domain.MigrationError) error
	Errors() []domain.MigrationError
	Clear() error
}

type Reporter interface {
	WriteFileMapping(entries []progress.FileMapping) error
	WriteErrors(name string, errs []domain.MigrationError) error
	WriteMissingLinks(links []domain.MissingLink) error
}

type Publisher interface {
	Publish(ctx context.Context, record *domain.MatchedRecord, assets []domain.BlobAsset) error
	Close() error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
