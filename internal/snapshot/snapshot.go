// Package snapshot records catalog enumeration runs using GORM and SQLite.
// Each reconciliation sweep stores what the remote archive advertised at that
// moment, so successive runs can be compared without re-fetching.
package snapshot

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clean-dependency-project/qtmeta/internal/combos"
)

// Sentinel errors following Dave Cheney's principle: define errors as values
var (
	ErrNilRun      = errors.New("run cannot be nil")
	ErrRunNotFound = errors.New("run not found")
)

// Run is one catalog enumeration sweep.
type Run struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BaseURL   string    `gorm:"not null" json:"base_url"`
	StartedAt time.Time `gorm:"not null;index" json:"started_at"`
	Duration  int64     `json:"duration_ms"`

	QtCount      int `gorm:"not null" json:"qt_count"`
	ToolCount    int `gorm:"not null" json:"tool_count"`
	VersionCount int `gorm:"not null" json:"version_count"`

	CreatedAt time.Time
}

// TableName overrides the table name for GORM.
func (Run) TableName() string { return "runs" }

// Combination is one (os, target, arch) record observed during a run.
type Combination struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RunID    uint   `gorm:"not null;index:idx_combination_run;uniqueIndex:idx_unique_combination" json:"run_id"`
	Kind     string `gorm:"not null;index" json:"kind"` // "qt" or "tool"
	OSName   string `gorm:"not null;uniqueIndex:idx_unique_combination" json:"os_name"`
	Target   string `gorm:"not null;uniqueIndex:idx_unique_combination" json:"target"`
	ToolName string `gorm:"uniqueIndex:idx_unique_combination" json:"tool_name,omitempty"`
	Arch     string `gorm:"not null;uniqueIndex:idx_unique_combination" json:"arch"`

	CreatedAt time.Time
}

// TableName overrides the table name for GORM.
func (Combination) TableName() string { return "combinations" }

// Store defines the interface for snapshot storage operations.
type Store interface {
	Close() error
	RecordRun(run *Run, doc *combos.Document) error
	GetRun(id uint) (*Run, error)
	LatestRun() (*Run, error)
	ListRuns() ([]*Run, error)
	CombinationsForRun(runID uint) ([]Combination, error)
	DocumentForRun(runID uint) (*combos.Document, error)
}

// DB wraps gorm.DB with snapshot operations.
type DB struct {
	db *gorm.DB
}

// Config holds database configuration.
type Config struct {
	DatabasePath string
	LogLevel     string // silent, error, warn, info
}

// InitDB initializes the database connection and runs migrations.
func InitDB(cfg Config) (*DB, error) {
	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Run{}, &Combination{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// RecordRun stores a run and every combination its document carries, in one
// transaction.
func (d *DB) RecordRun(run *Run, doc *combos.Document) error {
	if run == nil {
		return ErrNilRun
	}
	run.QtCount = len(doc.Qt)
	run.ToolCount = len(doc.Tools)
	run.VersionCount = len(doc.Versions)

	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		rows := make([]Combination, 0, len(doc.Qt)+len(doc.Tools))
		for _, r := range doc.Qt {
			rows = append(rows, Combination{RunID: run.ID, Kind: "qt", OSName: r.OSName, Target: r.Target, Arch: r.Arch})
		}
		for _, r := range doc.Tools {
			rows = append(rows, Combination{RunID: run.ID, Kind: "tool", OSName: r.OSName, Target: r.Target, ToolName: r.ToolName, Arch: r.Arch})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to record combinations: %w", err)
		}
		return nil
	})
}

// GetRun retrieves one run by ID. Returns ErrRunNotFound when it does not
// exist.
func (d *DB) GetRun(id uint) (*Run, error) {
	var run Run
	err := d.db.First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return &run, nil
}

// LatestRun retrieves the most recently started run. Returns ErrRunNotFound
// when the store is empty.
func (d *DB) LatestRun() (*Run, error) {
	var run Run
	err := d.db.Order("started_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}

// ListRuns returns all runs, most recent first.
func (d *DB) ListRuns() ([]*Run, error) {
	var runs []*Run
	if err := d.db.Order("started_at DESC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// CombinationsForRun returns the combinations observed during one run, in
// stored order.
func (d *DB) CombinationsForRun(runID uint) ([]Combination, error) {
	var rows []Combination
	if err := d.db.Where("run_id = ?", runID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list combinations for run %d: %w", runID, err)
	}
	return rows, nil
}

// DocumentForRun reconstructs the combination document of one run, with the
// same deterministic ordering the generator produces.
func (d *DB) DocumentForRun(runID uint) (*combos.Document, error) {
	rows, err := d.CombinationsForRun(runID)
	if err != nil {
		return nil, err
	}
	doc := &combos.Document{}
	for _, row := range rows {
		rec := combos.Record{OSName: row.OSName, Target: row.Target, ToolName: row.ToolName, Arch: row.Arch}
		if row.Kind == "tool" {
			doc.Tools = append(doc.Tools, rec)
		} else {
			doc.Qt = append(doc.Qt, rec)
		}
	}
	doc.Qt = combos.MergeRecords(doc.Qt)
	doc.Tools = combos.MergeRecords(doc.Tools)
	return doc, nil
}
