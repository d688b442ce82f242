package domain

import (
	"context"
	"time"
)

// Sort is the upstream listing order used for a search.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortHot       Sort = "hot"
	SortNew       Sort = "new"
	SortTop       Sort = "top"
	SortComments  Sort = "comments"
)

// TimeWindow bounds relevance/top searches to a trailing period.
type TimeWindow string

const (
	WindowHour  TimeWindow = "hour"
	WindowDay   TimeWindow = "day"
	WindowWeek  TimeWindow = "week"
	WindowMonth TimeWindow = "month"
	WindowYear  TimeWindow = "year"
	WindowAll   TimeWindow = "all"
)

// AllPartitions is the sentinel meaning "search without partition restriction".
const AllPartitions = "all"

// ValidSort reports whether s is a recognized sort order.
func ValidSort(s Sort) bool {
	switch s {
	case SortRelevance, SortHot, SortNew, SortTop, SortComments:
		return true
	}
	return false
}

// ValidWindow reports whether w is a recognized time window.
func ValidWindow(w TimeWindow) bool {
	switch w {
	case WindowHour, WindowDay, WindowWeek, WindowMonth, WindowYear, WindowAll:
		return true
	}
	return false
}

// AuthorMeta is the author-behavior signal input for the detector.
// It is only populated when author lookup is enabled on the client.
type AuthorMeta struct {
	CreatedAt    time.Time
	PostKarma    int
	CommentKarma int
}

// TotalKarma is the combined reputation signal.
func (m AuthorMeta) TotalKarma() int {
	return m.PostKarma + m.CommentKarma
}

// RawPost is a candidate post as returned by the upstream API, before
// filtering and classification. Optional upstream attributes are modeled
// explicitly instead of probed dynamically: Author is empty and AuthorMeta
// nil when the account was deleted or never resolved, Body is empty for
// link posts.
type RawPost struct {
	ID           string
	Title        string
	Body         string
	Author       string
	Partition    string
	Score        int
	CommentCount int
	CreatedAt    time.Time
	URL          string
	Permalink    string
	NSFW         bool
	Stickied     bool
	AuthorMeta   *AuthorMeta
}

// HasAuthor reports whether the post still has a live author account.
func (p RawPost) HasAuthor() bool {
	return p.Author != "" && p.Author != "[deleted]"
}

// HasBody reports whether the post is a self post with text content.
func (p RawPost) HasBody() bool {
	return p.Body != ""
}

// SearchSpec describes one logical collection request.
type SearchSpec struct {
	Keywords    []string
	Partitions  []string
	Sort        Sort
	TimeWindow  TimeWindow
	Limit       int
	IncludeNSFW bool
	MinScore    int
	MinComments int
}

// Classification is the detector's verdict for a single post.
type Classification struct {
	IsPromotional  bool
	Confidence     float64
	MatchedSignals []string
	SubScores      map[string]float64
	// Err is set when analysis failed internally and the zero-confidence
	// default was returned.
	Err string
}

// Searcher is the read contract every content API client implements.
type Searcher interface {
	// Search returns up to limit candidate posts from one partition.
	Search(ctx context.Context, partition, query string, sort Sort, window TimeWindow, limit int) ([]RawPost, error)
	// SearchAll searches without partition restriction.
	SearchAll(ctx context.Context, query string, sort Sort, window TimeWindow, limit int) ([]RawPost, error)
}
