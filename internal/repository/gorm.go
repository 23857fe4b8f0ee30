package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/model"
)

// GormRunRepository implements RunRepository using GORM.
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository.
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Migrate creates or updates the run table.
func (r *GormRunRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&RunRecord{}); err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to migrate run table", err)
	}
	return nil
}

// Save inserts the run.
func (r *GormRunRepository) Save(ctx context.Context, run *model.Run) error {
	if run == nil || run.RunID == "" {
		return apperrors.New(apperrors.CodeDatabaseError, "run id is required")
	}

	rec, err := NewRunRecord(run)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to encode run phases", err)
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to insert run "+run.RunID, err)
	}
	run.CreatedAt = rec.CreatedAt
	return nil
}

// List returns runs newest first.
func (r *GormRunRepository) List(ctx context.Context, binary string, limit int) ([]*model.Run, error) {
	var records []RunRecord

	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if binary != "" {
		q = q.Where("binary_name = ?", binary)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to query runs", err)
	}

	runs := make([]*model.Run, len(records))
	for i := range records {
		runs[i] = records[i].ToModel()
	}
	return runs, nil
}

// GetByRunID returns the run with the given id.
func (r *GormRunRepository) GetByRunID(ctx context.Context, runID string) (*model.Run, error) {
	var rec RunRecord

	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "run not found: %s", runID)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get run", err)
	}
	return rec.ToModel(), nil
}
