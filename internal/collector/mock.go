package collector

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/promowatch/reddit-collector/internal/domain"
)

// MockClient implements domain.Searcher with generated data. Roughly every
// third post looks promotional, so detector output stays interesting in
// mock runs.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (mc *MockClient) Search(ctx context.Context, partition, query string, sort domain.Sort, window domain.TimeWindow, limit int) ([]domain.RawPost, error) {
	// Simulated network latency keeps pacing behavior observable.
	time.Sleep(200 * time.Millisecond)

	now := time.Now()
	posts := make([]domain.RawPost, 0, limit)
	for i := 0; i < limit; i++ {
		p := domain.RawPost{
			ID:           fmt.Sprintf("mock_%s_%d", partition, i),
			Title:        fmt.Sprintf("Discussion thread #%d about %s", i, query),
			Partition:    partition,
			Author:       "simulated_user",
			URL:          fmt.Sprintf("https://example.com/%s/%d", partition, i),
			Score:        rand.Intn(500),
			CommentCount: rand.Intn(50),
			CreatedAt:    now.Add(-time.Duration(i) * time.Hour),
			AuthorMeta: &domain.AuthorMeta{
				CreatedAt:    now.AddDate(-2, 0, 0),
				PostKarma:    1200,
				CommentKarma: 3400,
			},
		}
		if i%3 == 0 {
			p.Title = fmt.Sprintf("BUY NOW!!! Limited time %s deal #%d, click here", query, i)
			p.Body = "Use our promo code at https://bit.ly/deal for a special offer!"
			p.URL = "https://bit.ly/deal?ref=mock"
			p.AuthorMeta = &domain.AuthorMeta{
				CreatedAt:    now.AddDate(0, 0, -3),
				PostKarma:    5,
				CommentKarma: 12,
			}
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (mc *MockClient) SearchAll(ctx context.Context, query string, sort domain.Sort, window domain.TimeWindow, limit int) ([]domain.RawPost, error) {
	return mc.Search(ctx, domain.AllPartitions, query, sort, window, limit)
}
