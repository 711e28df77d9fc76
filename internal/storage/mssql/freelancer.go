// Package mssql talks to the Azure SQL system-of-record tables. All writes
// are UPDATE-only: the migration never creates or deletes freelancer rows.
package mssql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"crew_migrator/internal/domain"
)

// ErrFreelancerNotFound means an UPDATE touched zero rows: the canonical row
// this pipeline assumed exists is gone.
var ErrFreelancerNotFound = errors.New("freelancer row not found")

type FreelancerStore struct {
	db *sqlx.DB
}

func NewFreelancerStore(db *sqlx.DB) *FreelancerStore {
	return &FreelancerStore{db: db}
}

// GetAll loads every canonical row up front; the matcher indexes them by
// slug in memory. NULL status columns read as StatusNone.
func (s *FreelancerStore) GetAll(ctx context.Context) ([]domain.CanonicalRecord, error) {
	query := `
		SELECT FreelancerID, Slug, DisplayName, FreelancerBio, Email,
			PhotoBlobID, CVBlobID, EquipmentBlobID,
			COALESCE(PhotoStatusID, 0) AS PhotoStatusID,
			COALESCE(CVStatusID, 0) AS CVStatusID
		FROM tblFreelancerWebsiteData`

	var records []domain.CanonicalRecord
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("select freelancers: %w", err)
	}
	return records, nil
}

// UpdateProfile writes only the non-nil fields of upd. Absence means "leave
// unchanged"; no column is ever set to NULL because the input lacked it.
func (s *FreelancerStore) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) error {
	if upd.Empty() {
		return nil
	}

	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = @p%d", col, len(args)))
	}

	if upd.DisplayName != nil {
		add("DisplayName", *upd.DisplayName)
	}
	if upd.Bio != nil {
		add("FreelancerBio", *upd.Bio)
	}
	if upd.Email != nil {
		add("Email", *upd.Email)
	}
	if upd.PhotoBlobID != nil {
		add("PhotoBlobID", *upd.PhotoBlobID)
	}
	if upd.CVBlobID != nil {
		add("CVBlobID", *upd.CVBlobID)
	}
	if upd.EquipmentBlobID != nil {
		add("EquipmentBlobID", *upd.EquipmentBlobID)
	}
	if upd.PhotoStatusID != nil {
		add("PhotoStatusID", int(*upd.PhotoStatusID))
	}
	if upd.CVStatusID != nil {
		add("CVStatusID", int(*upd.CVStatusID))
	}

	args = append(args, upd.FreelancerID)
	query := fmt.Sprintf(
		"UPDATE tblFreelancerWebsiteData SET %s WHERE FreelancerID = @p%d",
		strings.Join(sets, ", "), len(args),
	)

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile %d: %w", upd.FreelancerID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: FreelancerID %d", ErrFreelancerNotFound, upd.FreelancerID)
	}
	return nil
}
