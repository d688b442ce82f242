package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testPost(externalID, partition string) Post {
	return Post{
		ExternalID:   externalID,
		Title:        "title for " + externalID,
		Body:         "body",
		Author:       "someone",
		Partition:    partition,
		Score:        10,
		CommentCount: 3,
		PostedAt:     time.Now().Add(-time.Hour).UTC(),
		URL:          "https://example.com/" + externalID,
		CollectedAt:  time.Now().UTC(),
	}
}

func TestUpsertPostsIdempotent(t *testing.T) {
	store := openTestStore(t)

	inserted, err := store.UpsertPosts([]Post{testPost("abc123", "golang")})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Same natural key again: first write wins, nothing changes.
	again := testPost("abc123", "golang")
	again.Title = "a different title"
	inserted, err = store.UpsertPosts([]Post{again})
	require.NoError(t, err)
	assert.Zero(t, inserted)

	got, err := store.PostByExternalID("abc123")
	require.NoError(t, err)
	assert.Equal(t, "title for abc123", got.Title)

	var count int64
	require.NoError(t, store.db.Model(&Post{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertPostsBatchWithDuplicates(t *testing.T) {
	store := openTestStore(t)

	_, err := store.UpsertPosts([]Post{testPost("dup1", "golang")})
	require.NoError(t, err)

	inserted, err := store.UpsertPosts([]Post{
		testPost("dup1", "golang"),
		testPost("new1", "golang"),
		testPost("new2", "rust"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted, "only the rows not already present count")
}

func TestUpsertPostsEmptyBatch(t *testing.T) {
	store := openTestStore(t)

	inserted, err := store.UpsertPosts(nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestUpsertPostsConcurrentSameKey(t *testing.T) {
	store := openTestStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.UpsertPosts([]Post{testPost("race1", "golang")})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	var count int64
	require.NoError(t, store.db.Model(&Post{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSearchRunLifecycle(t *testing.T) {
	store := openTestStore(t)

	id, err := store.CreateSearchRun(&SearchRun{
		Keywords:       "golang, compilers",
		Partitions:     "golang",
		Sort:           "relevance",
		TimeWindow:     "week",
		RequestedLimit: 50,
	})
	require.NoError(t, err)

	run, err := store.SearchRunByID(id)
	require.NoError(t, err)
	assert.Equal(t, RunInProgress, run.Status)
	assert.Zero(t, run.ResultCount)
	assert.False(t, run.StartedAt.IsZero())

	require.NoError(t, store.FinalizeSearchRun(id, RunCompleted, 42))

	run, err = store.SearchRunByID(id)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 42, run.ResultCount)
}

func TestFinalizeSearchRunOnlyOnce(t *testing.T) {
	store := openTestStore(t)

	id, err := store.CreateSearchRun(&SearchRun{Keywords: "x"})
	require.NoError(t, err)
	require.NoError(t, store.FinalizeSearchRun(id, RunFailed, 0))

	// Terminal states never transition again.
	err = store.FinalizeSearchRun(id, RunCompleted, 10)
	require.Error(t, err)

	run, err := store.SearchRunByID(id)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, run.Status)
}

func TestFinalizeSearchRunRejectsBadStatus(t *testing.T) {
	store := openTestStore(t)

	id, err := store.CreateSearchRun(&SearchRun{Keywords: "x"})
	require.NoError(t, err)

	assert.Error(t, store.FinalizeSearchRun(id, RunInProgress, 0))
	assert.Error(t, store.FinalizeSearchRun(id, "done", 0))
}

func TestFinalizeSearchRunUnknownID(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.FinalizeSearchRun(9999, RunCompleted, 0))
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := store.CreateSearchRun(&SearchRun{
			Keywords:  fmt.Sprintf("run%d", i),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	runs, err := store.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run2", runs[0].Keywords)
	assert.Equal(t, "run1", runs[1].Keywords)
}

func TestReclassify(t *testing.T) {
	store := openTestStore(t)

	_, err := store.UpsertPosts([]Post{testPost("rc1", "deals")})
	require.NoError(t, err)

	require.NoError(t, store.Reclassify("rc1", true, 0.91))

	got, err := store.PostByExternalID("rc1")
	require.NoError(t, err)
	assert.True(t, got.IsPromotional)
	assert.InDelta(t, 0.91, got.Confidence, 1e-9)
}

func TestReclassifyUnknownPost(t *testing.T) {
	store := openTestStore(t)
	err := store.Reclassify("nope", true, 0.5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListPostsFilters(t *testing.T) {
	store := openTestStore(t)

	promo := testPost("p1", "deals")
	promo.IsPromotional = true
	promo.Confidence = 0.8
	_, err := store.UpsertPosts([]Post{
		promo,
		testPost("o1", "deals"),
		testPost("o2", "golang"),
	})
	require.NoError(t, err)

	byPartition, err := store.ListPosts(ListFilter{Partition: "deals"})
	require.NoError(t, err)
	assert.Len(t, byPartition, 2)

	yes := true
	promotional, err := store.ListPosts(ListFilter{IsPromotional: &yes})
	require.NoError(t, err)
	require.Len(t, promotional, 1)
	assert.Equal(t, "p1", promotional[0].ExternalID)

	no := false
	organicDeals, err := store.ListPosts(ListFilter{Partition: "deals", IsPromotional: &no})
	require.NoError(t, err)
	require.Len(t, organicDeals, 1)
	assert.Equal(t, "o1", organicDeals[0].ExternalID)

	limited, err := store.ListPosts(ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPartitionCounts(t *testing.T) {
	store := openTestStore(t)

	p1 := testPost("c1", "deals")
	p1.IsPromotional = true
	_, err := store.UpsertPosts([]Post{
		p1,
		testPost("c2", "deals"),
		testPost("c3", "golang"),
	})
	require.NoError(t, err)

	counts, err := store.PartitionCounts()
	require.NoError(t, err)
	require.Len(t, counts, 2)

	assert.Equal(t, "deals", counts[0].Partition)
	assert.EqualValues(t, 2, counts[0].Total)
	assert.EqualValues(t, 1, counts[0].Promotional)
	assert.Equal(t, "golang", counts[1].Partition)
	assert.EqualValues(t, 1, counts[1].Total)
	assert.EqualValues(t, 0, counts[1].Promotional)
}

func TestStats(t *testing.T) {
	store := openTestStore(t)

	p := testPost("s1", "deals")
	p.IsPromotional = true
	_, err := store.UpsertPosts([]Post{p, testPost("s2", "golang")})
	require.NoError(t, err)
	_, err = store.CreateSearchRun(&SearchRun{Keywords: "x"})
	require.NoError(t, err)

	st, err := store.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.TotalPosts)
	assert.EqualValues(t, 1, st.PromotionalPosts)
	assert.EqualValues(t, 1, st.TotalRuns)
}

func TestPostByExternalIDNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.PostByExternalID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
