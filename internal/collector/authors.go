package collector

import (
	"context"
	"log/slog"

	"github.com/promowatch/reddit-collector/internal/domain"
)

// hydrateAuthors fills in author metadata for the detector's
// author-behavior factor. Lookups are LRU-cached so one author costs at
// most one API call per session; failures and deleted accounts resolve to
// nil metadata and are cached too, never to an error.
func (c *Client) hydrateAuthors(ctx context.Context, posts []domain.RawPost) {
	for i := range posts {
		if !posts[i].HasAuthor() {
			continue
		}
		posts[i].AuthorMeta = c.authorMeta(ctx, posts[i].Author)
	}
}

func (c *Client) authorMeta(ctx context.Context, username string) *domain.AuthorMeta {
	if meta, ok := c.authors.Get(username); ok {
		return meta
	}

	if err := c.acquire(ctx); err != nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	user, _, err := c.reddit.User.Get(callCtx, username)
	if err != nil || user == nil {
		slog.Debug("author lookup failed", "author", username, "err", err)
		c.authors.Add(username, nil)
		return nil
	}

	meta := &domain.AuthorMeta{
		PostKarma:    user.PostKarma,
		CommentKarma: user.CommentKarma,
	}
	if user.Created != nil {
		meta.CreatedAt = user.Created.Time
	}
	c.authors.Add(username, meta)
	return meta
}
