package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/fardiff/pkg/model"
)

// RunRecord represents the fardiff_runs table.
type RunRecord struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID        string    `gorm:"column:run_id;type:varchar(64);uniqueIndex"`
	Binary       string    `gorm:"column:binary_name;type:varchar(255);index"`
	SourcePath   string    `gorm:"column:source_path;type:varchar(1024)"`
	Digest       string    `gorm:"column:digest;type:varchar(64)"`
	SymbolCount  int       `gorm:"column:symbol_count"`
	SymbolBytes  int64     `gorm:"column:symbol_bytes"`
	SectionBytes int64     `gorm:"column:section_bytes"`
	Skipped      int       `gorm:"column:skipped_lines"`
	ReportPath   string    `gorm:"column:report_path;type:varchar(1024)"`
	PublishedURL string    `gorm:"column:published_url;type:varchar(1024)"`
	Phases       JSONField `gorm:"column:phases;type:json"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for RunRecord.
func (RunRecord) TableName() string {
	return "fardiff_runs"
}

// phaseMillis is the stored form of Run.Phases.
type phaseMillis map[string]int64

// NewRunRecord converts a model.Run into its row form.
func NewRunRecord(run *model.Run) (*RunRecord, error) {
	rec := &RunRecord{
		RunID:        run.RunID,
		Binary:       run.Binary,
		SourcePath:   run.SourcePath,
		Digest:       run.Digest,
		SymbolCount:  run.SymbolCount,
		SymbolBytes:  run.SymbolBytes,
		SectionBytes: run.SectionBytes,
		Skipped:      run.Skipped,
		ReportPath:   run.ReportPath,
		PublishedURL: run.PublishedURL,
		CreatedAt:    run.CreatedAt,
	}

	if len(run.Phases) > 0 {
		ms := make(phaseMillis, len(run.Phases))
		for name, d := range run.Phases {
			ms[name] = d.Milliseconds()
		}
		data, err := json.Marshal(ms)
		if err != nil {
			return nil, err
		}
		rec.Phases = data
	}
	return rec, nil
}

// ToModel converts the row back to a model.Run.
func (r *RunRecord) ToModel() *model.Run {
	run := &model.Run{
		RunID:        r.RunID,
		Binary:       r.Binary,
		SourcePath:   r.SourcePath,
		Digest:       r.Digest,
		SymbolCount:  r.SymbolCount,
		SymbolBytes:  r.SymbolBytes,
		SectionBytes: r.SectionBytes,
		Skipped:      r.Skipped,
		ReportPath:   r.ReportPath,
		PublishedURL: r.PublishedURL,
		CreatedAt:    r.CreatedAt,
	}

	var ms phaseMillis
	if len(r.Phases) > 0 && json.Unmarshal(r.Phases, &ms) == nil {
		run.Phases = make(map[string]time.Duration, len(ms))
		for name, v := range ms {
			run.Phases[name] = time.Duration(v) * time.Millisecond
		}
	}
	return run
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer.
func (j JSONField) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONField) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = []byte(v)
	default:
		return errors.New("unsupported type for JSONField")
	}
	return nil
}
