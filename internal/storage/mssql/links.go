package mssql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"crew_migrator/internal/domain"
)

type LinkStore struct {
	db *sqlx.DB
}

func NewLinkStore(db *sqlx.DB) *LinkStore {
	return &LinkStore{db: db}
}

// UpdateLink updates one (FreelancerID, LinkName) row and reports whether a
// row was hit. Zero rows affected is not an error: the script does not own
// write authority over this table, so rows that do not pre-exist go to the
// missing-links report for a DBA to insert, never an INSERT from here.
func (s *LinkStore) UpdateLink(ctx context.Context, link domain.Link) (bool, error) {
	query := `
		UPDATE tblFreelancerWebsiteDataLinks
		SET LinkURL = @p1
		WHERE FreelancerID = @p2 AND LinkName = @p3`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, link.URL, link.FreelancerID, link.Name)
	if err != nil {
		return false, fmt.Errorf("update link %d/%s: %w", link.FreelancerID, link.Name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetByFreelancerID returns the link rows for one freelancer.
func (s *LinkStore) GetByFreelancerID(ctx context.Context, freelancerID int64) ([]domain.Link, error) {
	query := `
		SELECT FreelancerID, LinkName, LinkURL
		FROM tblFreelancerWebsiteDataLinks
		WHERE FreelancerID = @p1`

	var links []domain.Link
	if err := s.db.SelectContext(ctx, &links, query, freelancerID); err != nil {
		return nil, fmt.Errorf("select links for %d: %w", freelancerID, err)
	}
	return links, nil
}
