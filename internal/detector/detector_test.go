package detector

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/domain"
)

func testDetectionConfig() config.Detection {
	return config.Detection{
		Keywords: []string{
			"buy now", "click here", "limited time", "special offer",
			"discount", "promo code", "deal", "sale", "coupon",
		},
		SuspiciousURLs: []string{
			`bit\.ly`, `tinyurl`, `goo\.gl`, `t\.co`, `ow\.ly`,
			`affiliate`, `ref=`, `utm_`, `tracking`, `campaign`,
		},
		ConfidenceThreshold: 0.7,
		KeywordWeight:       0.4,
		URLWeight:           0.3,
		AuthorWeight:        0.2,
		StructureWeight:     0.1,
	}
}

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := New(testDetectionConfig())
	require.NoError(t, err)
	return d
}

func TestNewRejectsBadPattern(t *testing.T) {
	cfg := testDetectionConfig()
	cfg.SuspiciousURLs = append(cfg.SuspiciousURLs, `ref=(`)
	_, err := New(cfg)
	require.Error(t, err)
}

func TestObviousPromotionIsFlagged(t *testing.T) {
	d := newTestDetector(t)

	now := time.Now()
	res := d.Analyze(domain.RawPost{
		ID:    "promo1",
		Title: "BUY NOW!!! Limited time deal, click here",
		Body:  "Amazing https://bit.ly/x and https://tinyurl.com/y and http://goo.gl/z",
		URL:   "https://bit.ly/deal?ref=1",
		AuthorMeta: &domain.AuthorMeta{
			CreatedAt:    now.AddDate(0, 0, -2),
			PostKarma:    3,
			CommentKarma: 7,
		},
	})

	assert.True(t, res.IsPromotional)
	assert.GreaterOrEqual(t, res.Confidence, 0.7)
	assert.Contains(t, res.MatchedSignals, "keyword:buy now")
	assert.Contains(t, res.MatchedSignals, "author:new_account")
	assert.Contains(t, res.MatchedSignals, "author:low_karma")
	assert.Empty(t, res.Err)
}

func TestOrganicPostIsNotFlagged(t *testing.T) {
	d := newTestDetector(t)

	res := d.Analyze(domain.RawPost{
		ID:    "organic1",
		Title: "Python 3.12 release notes",
		AuthorMeta: &domain.AuthorMeta{
			CreatedAt:    time.Now().AddDate(-5, 0, 0),
			PostKarma:    20000,
			CommentKarma: 30000,
		},
	})

	assert.False(t, res.IsPromotional)
	assert.Less(t, res.Confidence, 0.7)
	assert.Empty(t, res.MatchedSignals)
}

// Adding keyword occurrences to an otherwise-fixed post must never
// decrease the keyword-density sub-score.
func TestKeywordDensityMonotonic(t *testing.T) {
	d := newTestDetector(t)

	// Enough filler that the density stays below the cap for small counts.
	filler := strings.Repeat("lorem ipsum dolor sit amet consectetur ", 50)

	prev := -1.0
	for reps := 1; reps <= 50; reps++ {
		post := domain.RawPost{
			ID:    "mono",
			Title: "some ordinary discussion thread",
			Body:  filler + strings.Repeat("buy now ", reps),
		}
		score := d.Analyze(post).SubScores[SignalKeywordDensity]
		assert.GreaterOrEqual(t, score, prev, "reps=%d", reps)
		prev = score
	}
}

func TestScoresBoundedUnderAdversarialInput(t *testing.T) {
	d := newTestDetector(t)

	posts := []domain.RawPost{
		{ID: "a", Title: strings.Repeat("buy now ", 1000)},
		{ID: "b", Title: "x", Body: strings.Repeat("https://bit.ly/spam?ref=1&utm_=2 ", 500)},
		{ID: "c", Title: strings.Repeat("A", 5000) + "!!!!!!!!", Body: "**click here** http://not a url ht!tp://:::"},
		{ID: "d", AuthorMeta: &domain.AuthorMeta{CreatedAt: time.Now(), PostKarma: -100, CommentKarma: -100}},
		{},
	}

	for _, post := range posts {
		res := d.Analyze(post)
		assert.GreaterOrEqual(t, res.Confidence, 0.0, "post %s", post.ID)
		assert.LessOrEqual(t, res.Confidence, 1.0, "post %s", post.ID)
		for name, sub := range res.SubScores {
			assert.GreaterOrEqual(t, sub, 0.0, "post %s signal %s", post.ID, name)
			assert.LessOrEqual(t, sub, 1.0, "post %s signal %s", post.ID, name)
		}
	}
}

func TestURLAnalysis(t *testing.T) {
	d := newTestDetector(t)

	t.Run("suspicious outbound url", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{ID: "u1", Title: "check this", URL: "https://bit.ly/x"})
		assert.InDelta(t, 0.3, res.SubScores[SignalURLAnalysis], 1e-9)
	})

	t.Run("self post permalink not counted", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{
			ID:        "u2",
			Title:     "discussion",
			URL:       "https://www.reddit.com/r/golang/comments/abc/discussion/",
			Permalink: "https://www.reddit.com/r/golang/comments/abc/discussion/",
		})
		assert.Zero(t, res.SubScores[SignalURLAnalysis])
	})

	t.Run("permalink path matching absolute url not counted", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{
			ID:        "u4",
			Title:     "our campaign retrospective",
			URL:       "https://www.reddit.com/r/golang/comments/abc/our_campaign_retrospective/",
			Permalink: "/r/golang/comments/abc/our_campaign_retrospective/",
		})
		assert.Zero(t, res.SubScores[SignalURLAnalysis])
	})

	t.Run("body urls weigh less", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{
			ID:    "u3",
			Title: "post",
			Body:  "see https://tinyurl.com/a",
		})
		assert.InDelta(t, 0.2, res.SubScores[SignalURLAnalysis], 1e-9)
	})
}

func TestAuthorBehavior(t *testing.T) {
	d := newTestDetector(t)
	now := time.Now()
	d.now = func() time.Time { return now }

	t.Run("deleted author scores zero without penalty", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{ID: "a1", Title: "hello"})
		assert.Zero(t, res.SubScores[SignalAuthorBehavior])
	})

	t.Run("new low-karma account", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{
			ID:    "a2",
			Title: "hello",
			AuthorMeta: &domain.AuthorMeta{
				CreatedAt:    now.AddDate(0, 0, -10),
				PostKarma:    1,
				CommentKarma: 1,
			},
		})
		assert.InDelta(t, 0.5, res.SubScores[SignalAuthorBehavior], 1e-9)
	})

	t.Run("established account", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{
			ID:    "a3",
			Title: "hello",
			AuthorMeta: &domain.AuthorMeta{
				CreatedAt:    now.AddDate(-3, 0, 0),
				PostKarma:    500,
				CommentKarma: 900,
			},
		})
		assert.Zero(t, res.SubScores[SignalAuthorBehavior])
	})
}

func TestContentStructure(t *testing.T) {
	d := newTestDetector(t)

	t.Run("all caps long title", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{ID: "s1", Title: "THIS IS A HUGE ANNOUNCEMENT FOR EVERYONE"})
		assert.Contains(t, res.MatchedSignals, "structure:excessive_caps")
	})

	t.Run("short caps not flagged", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{ID: "s2", Title: "WOW NICE"})
		assert.NotContains(t, res.MatchedSignals, "structure:excessive_caps")
	})

	t.Run("exclamations and markup", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{ID: "s3", Title: "great thing!!!!", Body: "**really**"})
		assert.Contains(t, res.MatchedSignals, "structure:excessive_exclamation")
		assert.Contains(t, res.MatchedSignals, "structure:markup")
		assert.InDelta(t, 0.2, res.SubScores[SignalContentStructure], 1e-9)
	})

	t.Run("call to action adds once", func(t *testing.T) {
		res := d.Analyze(domain.RawPost{ID: "s4", Title: "click here and act now"})
		assert.InDelta(t, 0.3, res.SubScores[SignalContentStructure], 1e-9)
	})
}
