// Package repository stores the history of analysis runs.
package repository

import (
	"context"

	"github.com/fardiff/pkg/model"
)

// RunRepository persists run summaries.
type RunRepository interface {
	// Save inserts a run. RunID must be unique.
	Save(ctx context.Context, run *model.Run) error

	// List returns the newest runs first. An empty binary matches every run;
	// limit <= 0 means no limit.
	List(ctx context.Context, binary string, limit int) ([]*model.Run, error)

	// GetByRunID returns a single run.
	GetByRunID(ctx context.Context, runID string) (*model.Run, error)
}
