package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the persistence gateway. Post identity is the upstream
// external_id; concurrent writers race safely because the batch upsert is
// insert-if-absent on that key.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite database at path and runs
// migrations. The connection pool is sized explicitly; every operation
// acquires and releases a pooled connection, there is no per-goroutine
// connection state.
func Open(path string, maxConns int) (*Store, error) {
	inMemory := path == ":memory:" || path == ""
	if inMemory {
		path = ":memory:"
		// A second connection to :memory: would see an empty database.
		maxConns = 1
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	if maxConns <= 0 {
		maxConns = 4
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if !inMemory {
		if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
			return nil, fmt.Errorf("enabling WAL: %w", err)
		}
	}

	if err := db.AutoMigrate(&Post{}, &SearchRun{}); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertPosts inserts posts in one batch with insert-if-absent semantics
// on external_id: the first write wins, duplicates are silently skipped.
// Returns the number of rows actually inserted, which may be less than
// len(posts).
func (s *Store) UpsertPosts(posts []Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(&posts)
	if res.Error != nil {
		return 0, fmt.Errorf("upserting posts: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// CreateSearchRun records the start of an orchestration run. The run is
// created in_progress; the caller owns finalization.
func (s *Store) CreateSearchRun(run *SearchRun) (uint, error) {
	run.Status = RunInProgress
	run.ResultCount = 0
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if err := s.db.Create(run).Error; err != nil {
		return 0, fmt.Errorf("creating search run: %w", err)
	}
	return run.ID, nil
}

// FinalizeSearchRun moves a run from in_progress to a terminal status and
// writes its result count once. Finalizing a run that is not in_progress
// is an error: status transitions only move forward.
func (s *Store) FinalizeSearchRun(id uint, status string, resultCount int) error {
	if status != RunCompleted && status != RunFailed {
		return fmt.Errorf("invalid terminal status %q", status)
	}
	res := s.db.Model(&SearchRun{}).
		Where("id = ? AND status = ?", id, RunInProgress).
		Updates(map[string]any{"status": status, "result_count": resultCount})
	if res.Error != nil {
		return fmt.Errorf("finalizing search run %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("search run %d is not in progress", id)
	}
	return nil
}

// SearchRunByID fetches one provenance record.
func (s *Store) SearchRunByID(id uint) (*SearchRun, error) {
	var run SearchRun
	if err := s.db.First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// RecentRuns returns the latest n runs, newest first.
func (s *Store) RecentRuns(n int) ([]SearchRun, error) {
	var runs []SearchRun
	err := s.db.Order("started_at DESC").Limit(n).Find(&runs).Error
	return runs, err
}

// PostByExternalID fetches one post by its natural key.
func (s *Store) PostByExternalID(externalID string) (*Post, error) {
	var post Post
	if err := s.db.Where("external_id = ?", externalID).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListFilter narrows ListPosts.
type ListFilter struct {
	Partition     string
	IsPromotional *bool
	Limit         int
	Offset        int
}

// ListPosts returns stored posts, newest collection first.
func (s *Store) ListPosts(f ListFilter) ([]Post, error) {
	q := s.db.Model(&Post{})
	if f.Partition != "" {
		// "partition" is an SQLite keyword; keep it quoted in raw fragments.
		q = q.Where(`"partition" = ?`, f.Partition)
	}
	if f.IsPromotional != nil {
		q = q.Where("is_promotional = ?", *f.IsPromotional)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var posts []Post
	err := q.Offset(f.Offset).Order("collected_at DESC").Find(&posts).Error
	return posts, err
}

// Reclassify is the only mutation path for a stored post: it overwrites
// the derived classification of the post identified by externalID.
func (s *Store) Reclassify(externalID string, isPromotional bool, confidence float64) error {
	res := s.db.Model(&Post{}).
		Where("external_id = ?", externalID).
		Updates(map[string]any{"is_promotional": isPromotional, "confidence": confidence})
	if res.Error != nil {
		return fmt.Errorf("reclassifying post %s: %w", externalID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PartitionCount aggregates stored posts for one partition.
type PartitionCount struct {
	Partition   string
	Total       int64
	Promotional int64
}

// PartitionCounts returns per-partition totals for the dashboard.
func (s *Store) PartitionCounts() ([]PartitionCount, error) {
	var counts []PartitionCount
	err := s.db.Model(&Post{}).
		Select(`"partition", COUNT(*) AS total, SUM(is_promotional) AS promotional`).
		Group("partition").
		Order("total DESC").
		Scan(&counts).Error
	return counts, err
}

// Stats summarizes the store.
type Stats struct {
	TotalPosts       int64
	PromotionalPosts int64
	TotalRuns        int64
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.db.Model(&Post{}).Count(&st.TotalPosts).Error; err != nil {
		return st, err
	}
	if err := s.db.Model(&Post{}).Where("is_promotional = ?", true).Count(&st.PromotionalPosts).Error; err != nil {
		return st, err
	}
	if err := s.db.Model(&SearchRun{}).Count(&st.TotalRuns).Error; err != nil {
		return st, err
	}
	return st, nil
}
