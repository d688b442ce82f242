// Package scraper orchestrates collection runs: it fans a logical query
// out across content partitions, filters and classifies candidates, and
// persists accepted posts idempotently while tracking run provenance.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/detector"
	"github.com/promowatch/reddit-collector/internal/domain"
	"github.com/promowatch/reddit-collector/internal/storage"
)

// promoSeedKeywords is how many configured promotional keywords seed the
// CollectPromotional query.
const promoSeedKeywords = 5

// Gateway is the persistence contract the orchestrator depends on.
type Gateway interface {
	UpsertPosts(posts []storage.Post) (int, error)
	CreateSearchRun(run *storage.SearchRun) (uint, error)
	FinalizeSearchRun(id uint, status string, resultCount int) error
}

// ValidationError rejects a search spec before any I/O is attempted.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid search spec: " + strings.Join(e.Problems, "; ")
}

// Result is the aggregate outcome of one collection run. Per-post and
// per-partition failures are diagnostics in Errors, never a hard failure:
// the caller always sees both data and diagnostics together.
type Result struct {
	Posts            []storage.Post
	TotalFound       int
	TotalProcessed   int
	PromotionalCount int
	Errors           []string
	Elapsed          time.Duration
	RunID            uint
}

// Scraper is the collection orchestrator. All collaborators are injected;
// it owns the SearchRun lifecycle and nothing else.
type Scraper struct {
	client   domain.Searcher
	detector *detector.Detector
	store    Gateway
	cfg      config.Search
}

func New(client domain.Searcher, det *detector.Detector, store Gateway, cfg config.Search) *Scraper {
	return &Scraper{client: client, detector: det, store: store, cfg: cfg}
}

// Run executes one collection run. It returns a hard error only for an
// invalid spec or when the provenance record cannot be created; everything
// after that point is reported through the Result.
func (s *Scraper) Run(ctx context.Context, spec domain.SearchSpec) (*Result, error) {
	start := time.Now()

	s.applyDefaults(&spec)
	if err := s.validate(spec); err != nil {
		return nil, err
	}

	global := len(spec.Partitions) == 0 ||
		(len(spec.Partitions) == 1 && spec.Partitions[0] == domain.AllPartitions)

	partitionLabel := domain.AllPartitions
	if !global {
		partitionLabel = strings.Join(spec.Partitions, ", ")
	}
	runID, err := s.store.CreateSearchRun(&storage.SearchRun{
		Keywords:       strings.Join(spec.Keywords, ", "),
		Partitions:     partitionLabel,
		Sort:           string(spec.Sort),
		TimeWindow:     string(spec.TimeWindow),
		RequestedLimit: spec.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search run: %w", err)
	}

	res := &Result{RunID: runID}
	query := strings.Join(spec.Keywords, " ")
	var accepted []storage.Post
	attempts, failures := 0, 0

	if global {
		attempts = 1
		candidates, err := s.client.SearchAll(ctx, query, spec.Sort, spec.TimeWindow, spec.Limit)
		if err != nil {
			failures = 1
			res.Errors = append(res.Errors, fmt.Sprintf("global search: %v", err))
			slog.Error("global search failed", "err", err)
		} else {
			s.processCandidates(candidates, spec, res, &accepted)
		}
	} else {
		// Split the budget evenly; every partition gets at least one slot.
		perPartition := spec.Limit / len(spec.Partitions)
		if perPartition < 1 {
			perPartition = 1
		}
		for _, partition := range spec.Partitions {
			if len(accepted) >= spec.Limit {
				break
			}
			attempts++
			candidates, err := s.client.Search(ctx, partition, query, spec.Sort, spec.TimeWindow, perPartition)
			if err != nil {
				failures++
				res.Errors = append(res.Errors, fmt.Sprintf("partition %s: %v", partition, err))
				slog.Error("partition search failed", "partition", partition, "err", err)
				continue
			}
			s.processCandidates(candidates, spec, res, &accepted)
		}
	}

	persistFailed := false
	if len(accepted) > 0 {
		inserted, err := s.store.UpsertPosts(accepted)
		if err != nil {
			persistFailed = true
			res.Errors = append(res.Errors, fmt.Sprintf("persisting posts: %v", err))
			slog.Error("batch persist failed", "err", err)
		} else if inserted < len(accepted) {
			// Duplicates are expected under concurrent runs, not errors.
			slog.Info("duplicate posts skipped", "accepted", len(accepted), "inserted", inserted)
		}
	}

	res.Posts = accepted
	res.TotalProcessed = len(accepted)

	status := storage.RunCompleted
	resultCount := len(accepted)
	if persistFailed || (res.TotalFound == 0 && attempts > 0 && failures == attempts) {
		status = storage.RunFailed
		resultCount = 0
	}
	if err := s.store.FinalizeSearchRun(runID, status, resultCount); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("finalizing search run: %v", err))
	}

	res.Elapsed = time.Since(start)
	slog.Info("collection run finished",
		"run_id", runID,
		"status", status,
		"found", res.TotalFound,
		"collected", res.TotalProcessed,
		"promotional", res.PromotionalCount,
		"errors", len(res.Errors),
		"elapsed", res.Elapsed)
	return res, nil
}

// CollectPromotional runs the same algorithm pre-seeded with the top
// promotional keywords against commercially-oriented partitions. New posts
// are searched first: they are the promotions still worth acting on.
func (s *Scraper) CollectPromotional(ctx context.Context, partitions []string, limit int) (*Result, error) {
	keywords := s.detector.Keywords()
	if len(keywords) > promoSeedKeywords {
		keywords = keywords[:promoSeedKeywords]
	}
	if len(partitions) == 0 {
		partitions = s.cfg.PromoPartitions
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	slog.Info("collecting likely-promotional content", "keywords", keywords, "partitions", partitions)
	return s.Run(ctx, domain.SearchSpec{
		Keywords:   keywords,
		Partitions: partitions,
		Sort:       domain.SortNew,
		TimeWindow: domain.WindowWeek,
		Limit:      limit,
	})
}

func (s *Scraper) processCandidates(candidates []domain.RawPost, spec domain.SearchSpec, res *Result, accepted *[]storage.Post) {
	for i := range candidates {
		if len(*accepted) >= spec.Limit {
			return
		}
		res.TotalFound++
		s.processCandidate(candidates[i], spec, res, accepted)
	}
}

// processCandidate is partial-failure tolerant: anything going wrong with
// a single candidate becomes a diagnostic string, and the run moves on.
func (s *Scraper) processCandidate(cand domain.RawPost, spec domain.SearchSpec, res *Result, accepted *[]storage.Post) {
	defer func() {
		if r := recover(); r != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("processing post %s: %v", cand.ID, r))
		}
	}()

	if !s.passesFilters(cand, spec) {
		return
	}

	post := s.toPost(cand)
	cls := s.detector.Analyze(cand)
	if cls.Err != "" {
		res.Errors = append(res.Errors, fmt.Sprintf("classifying post %s: %s", cand.ID, cls.Err))
	}
	post.IsPromotional = cls.IsPromotional
	post.Confidence = cls.Confidence
	if cls.IsPromotional {
		res.PromotionalCount++
	}

	*accepted = append(*accepted, post)
}

// passesFilters applies the hard candidate filters. Rejection is silent:
// a filtered post is not an error.
func (s *Scraper) passesFilters(p domain.RawPost, spec domain.SearchSpec) bool {
	if p.Score < spec.MinScore {
		return false
	}
	if p.CommentCount < spec.MinComments {
		return false
	}
	if p.NSFW && !spec.IncludeNSFW {
		return false
	}
	if s.cfg.MaxTitleLength > 0 && len(p.Title) > s.cfg.MaxTitleLength {
		return false
	}
	if s.cfg.MaxContentLength > 0 && len(p.Body) > s.cfg.MaxContentLength {
		return false
	}
	return true
}

func (s *Scraper) toPost(p domain.RawPost) storage.Post {
	author := p.Author
	if !p.HasAuthor() {
		author = ""
	}
	return storage.Post{
		ExternalID:   p.ID,
		Title:        p.Title,
		Body:         p.Body,
		Author:       author,
		Partition:    p.Partition,
		Score:        p.Score,
		CommentCount: p.CommentCount,
		PostedAt:     p.CreatedAt,
		URL:          p.URL,
		CollectedAt:  time.Now().UTC(),
	}
}

func (s *Scraper) applyDefaults(spec *domain.SearchSpec) {
	if spec.Sort == "" {
		spec.Sort = domain.Sort(s.cfg.DefaultSort)
	}
	if spec.TimeWindow == "" {
		spec.TimeWindow = domain.TimeWindow(s.cfg.DefaultWindow)
	}
	if spec.Limit <= 0 {
		spec.Limit = s.cfg.DefaultLimit
	}
	if len(spec.Partitions) == 0 {
		spec.Partitions = s.cfg.DefaultPartitions
	}
}

func (s *Scraper) validate(spec domain.SearchSpec) error {
	var problems []string
	if len(spec.Keywords) == 0 {
		problems = append(problems, "keywords are required")
	}
	if s.cfg.MaxKeywords > 0 && len(spec.Keywords) > s.cfg.MaxKeywords {
		problems = append(problems, fmt.Sprintf("too many keywords (max %d)", s.cfg.MaxKeywords))
	}
	if s.cfg.MaxLimit > 0 && spec.Limit > s.cfg.MaxLimit {
		problems = append(problems, fmt.Sprintf("limit too high (max %d)", s.cfg.MaxLimit))
	}
	if !domain.ValidSort(spec.Sort) {
		problems = append(problems, fmt.Sprintf("unknown sort %q", spec.Sort))
	}
	if !domain.ValidWindow(spec.TimeWindow) {
		problems = append(problems, fmt.Sprintf("unknown time window %q", spec.TimeWindow))
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
