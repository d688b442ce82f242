package storage

import "time"

// SearchRun status values. Transitions only move forward, from in_progress
// to exactly one terminal state.
const (
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
	RunFailed     = "failed"
)

// Post is a collected post, deduplicated by the upstream natural key.
// is_promotional is a derived classification, overwritable only through
// Reclassify.
type Post struct {
	ID            uint   `gorm:"primaryKey"`
	ExternalID    string `gorm:"uniqueIndex;not null"`
	Title         string `gorm:"not null"`
	Body          string
	Author        string
	Partition     string `gorm:"index"`
	Score         int
	CommentCount  int
	PostedAt      time.Time `gorm:"index"`
	URL           string
	IsPromotional bool      `gorm:"index"`
	Confidence    float64
	CollectedAt   time.Time `gorm:"index"`
}

func (Post) TableName() string { return "posts" }

// SearchRun is the provenance record for one orchestration invocation.
type SearchRun struct {
	ID             uint   `gorm:"primaryKey"`
	Keywords       string `gorm:"not null"`
	Partitions     string
	Sort           string
	TimeWindow     string
	RequestedLimit int
	ResultCount    int
	StartedAt      time.Time `gorm:"index"`
	Status         string    `gorm:"index"`
}

func (SearchRun) TableName() string { return "search_runs" }
