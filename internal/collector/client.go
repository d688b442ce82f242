package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/time/rate"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/domain"
)

// Mode is the terminal state of client initialization.
type Mode string

const (
	// ModeAuthenticated means the full script credentials were accepted.
	ModeAuthenticated Mode = "authenticated"
	// ModeReadOnly means authentication failed and the client fell back to
	// unauthenticated read access. Write-capable operations are unavailable.
	ModeReadOnly Mode = "readonly"
)

const authorCacheSize = 512

// Client wraps the Reddit API behind the domain.Searcher contract. Every
// network round-trip first passes the shared Governor, then a fixed
// inter-call delay.
type Client struct {
	reddit   *reddit.Client
	governor *Governor
	delay    *rate.Limiter
	timeout  time.Duration
	mode     Mode

	lookupAuthors bool
	authors       *lru.Cache[string, *domain.AuthorMeta]
}

// NewClient constructs a client, trying authenticated (script) access
// first and falling back to read-only access if the credentials are
// rejected. If both probes fail, construction fails.
func NewClient(ctx context.Context, cfg config.Reddit, rl config.RateLimit, gov *Governor, lookupAuthors bool) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("reddit user agent is required")
	}

	timeout := time.Duration(rl.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	delay := rl.RequestDelay
	if delay <= 0 {
		delay = 1.0
	}

	authors, err := lru.New[string, *domain.AuthorMeta](authorCacheSize)
	if err != nil {
		return nil, err
	}

	c := &Client{
		governor:      gov,
		delay:         rate.NewLimiter(rate.Every(time.Duration(delay*float64(time.Second))), 1),
		timeout:       timeout,
		lookupAuthors: lookupAuthors,
		authors:       authors,
	}

	creds := reddit.Credentials{
		ID:       cfg.ClientID,
		Secret:   cfg.ClientSecret,
		Username: cfg.Username,
		Password: cfg.Password,
	}

	authed, authErr := reddit.NewClient(creds, reddit.WithUserAgent(cfg.UserAgent))
	if authErr == nil {
		c.reddit = authed
		if pingErr := c.ping(ctx); pingErr == nil {
			c.mode = ModeAuthenticated
			slog.Info("reddit client initialized", "mode", c.mode)
			return c, nil
		} else {
			authErr = pingErr
		}
	}
	slog.Warn("authenticated initialization failed, falling back to read-only", "err", authErr)

	readonly, err := reddit.NewReadonlyClient(reddit.WithUserAgent(cfg.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("read-only client: %w", err)
	}
	c.reddit = readonly
	if err := c.ping(ctx); err != nil {
		return nil, fmt.Errorf("read-only initialization failed: %w", err)
	}
	c.mode = ModeReadOnly
	slog.Info("reddit client initialized", "mode", c.mode)
	return c, nil
}

// Mode reports which initialization state the client landed in.
func (c *Client) Mode() Mode { return c.mode }

// Search returns up to limit candidate posts from one partition, resolved
// per the requested sort: relevance/comments run a keyword search, hot and
// new read the plain listing, top reads the window-bounded listing. An
// unrecognized sort falls back to relevance.
func (c *Client) Search(ctx context.Context, partition, query string, sort domain.Sort, window domain.TimeWindow, limit int) ([]domain.RawPost, error) {
	if partition == "" {
		partition = domain.AllPartitions
	}

	if err := c.acquire(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	posts, err := c.fetch(callCtx, partition, query, sort, window, limit)
	if err != nil {
		return nil, classifyErr(partition, err)
	}

	raw := make([]domain.RawPost, 0, len(posts))
	for _, p := range posts {
		raw = append(raw, toRawPost(p))
	}
	if c.lookupAuthors {
		c.hydrateAuthors(ctx, raw)
	}
	return raw, nil
}

// SearchAll searches without partition restriction.
func (c *Client) SearchAll(ctx context.Context, query string, sort domain.Sort, window domain.TimeWindow, limit int) ([]domain.RawPost, error) {
	return c.Search(ctx, domain.AllPartitions, query, sort, window, limit)
}

func (c *Client) fetch(ctx context.Context, partition, query string, sort domain.Sort, window domain.TimeWindow, limit int) ([]*reddit.Post, error) {
	list := reddit.ListOptions{Limit: limit}

	switch sort {
	case domain.SortHot:
		posts, _, err := c.reddit.Subreddit.HotPosts(ctx, partition, &list)
		return posts, err
	case domain.SortNew:
		posts, _, err := c.reddit.Subreddit.NewPosts(ctx, partition, &list)
		return posts, err
	case domain.SortTop:
		posts, _, err := c.reddit.Subreddit.TopPosts(ctx, partition, &reddit.ListPostOptions{
			ListOptions: list,
			Time:        string(window),
		})
		return posts, err
	case domain.SortComments:
		return c.searchPosts(ctx, partition, query, "comments", window, list)
	default:
		return c.searchPosts(ctx, partition, query, "relevance", window, list)
	}
}

func (c *Client) searchPosts(ctx context.Context, partition, query, sort string, window domain.TimeWindow, list reddit.ListOptions) ([]*reddit.Post, error) {
	posts, _, err := c.reddit.Subreddit.SearchPosts(ctx, query, partition, &reddit.ListPostSearchOptions{
		ListPostOptions: reddit.ListPostOptions{
			ListOptions: list,
			Time:        string(window),
		},
		Sort: sort,
	})
	return posts, err
}

// acquire passes the shared per-minute window, then the fixed inter-call
// delay that smooths bursts inside the window.
func (c *Client) acquire(ctx context.Context) error {
	if err := c.governor.Acquire(ctx); err != nil {
		return err
	}
	return c.delay.Wait(ctx)
}

func (c *Client) ping(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, _, err := c.reddit.Subreddit.HotPosts(callCtx, domain.AllPartitions, &reddit.ListOptions{Limit: 1})
	return classifyErr(domain.AllPartitions, err)
}

func toRawPost(p *reddit.Post) domain.RawPost {
	var created time.Time
	if p.Created != nil {
		created = p.Created.Time
	}
	return domain.RawPost{
		ID:           p.ID,
		Title:        p.Title,
		Body:         p.Body,
		Author:       p.Author,
		Partition:    p.SubredditName,
		Score:        p.Score,
		CommentCount: p.NumberOfComments,
		CreatedAt:    created,
		URL:          p.URL,
		Permalink:    p.Permalink,
		NSFW:         p.NSFW,
		Stickied:     p.Stickied,
	}
}
