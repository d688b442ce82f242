// Package detector classifies posts as promotional or organic using a
// weighted combination of four independent signal analyses. Keeping the
// factors independent lets the weights be tuned in configuration without
// touching detection logic, and capping each factor at 1.0 means no single
// signal can saturate the result beyond its own weight.
package detector

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/domain"
)

// Signal names used as SubScores keys.
const (
	SignalKeywordDensity   = "keyword_density"
	SignalURLAnalysis      = "url_analysis"
	SignalAuthorBehavior   = "author_behavior"
	SignalContentStructure = "content_structure"
)

const (
	newAccountAge  = 30 * 24 * time.Hour
	lowKarmaFloor  = 100
	outboundURLHit = 0.3
	bodyURLHit     = 0.2
)

var (
	bodyURLRe = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

	ctaPhrases = []string{"click here", "buy now", "limited time", "act now", "don't miss"}
)

// Weights scales the four sub-scores into the final confidence.
type Weights struct {
	Keyword   float64
	URL       float64
	Author    float64
	Structure float64
}

// Detector scores posts for promotional content. Analyze never fails: on
// internal failure it returns a zero-confidence organic result annotated
// with the error, so one malformed post cannot abort a batch.
type Detector struct {
	keywords    []string
	urlPatterns []*regexp.Regexp
	threshold   float64
	weights     Weights

	now func() time.Time
}

// New compiles the configured suspicious-URL patterns and returns a
// detector. Pattern compilation is the only failure path.
func New(cfg config.Detection) (*Detector, error) {
	patterns := make([]*regexp.Regexp, 0, len(cfg.SuspiciousURLs))
	for _, p := range cfg.SuspiciousURLs {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("suspicious url pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}

	return &Detector{
		keywords:    keywords,
		urlPatterns: patterns,
		threshold:   cfg.ConfidenceThreshold,
		weights: Weights{
			Keyword:   cfg.KeywordWeight,
			URL:       cfg.URLWeight,
			Author:    cfg.AuthorWeight,
			Structure: cfg.StructureWeight,
		},
		now: time.Now,
	}, nil
}

// Keywords returns the configured promotional keyword list.
func (d *Detector) Keywords() []string { return d.keywords }

// Threshold returns the confidence at or above which a post is promotional.
func (d *Detector) Threshold() float64 { return d.threshold }

// Analyze scores one post.
func (d *Detector) Analyze(post domain.RawPost) (result domain.Classification) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.Classification{
				SubScores: map[string]float64{},
				Err:       fmt.Sprintf("analysis failure: %v", r),
			}
		}
	}()

	text := strings.TrimSpace(post.Title + " " + post.Body)
	lower := strings.ToLower(text)

	kwScore, kwSignals := d.keywordScore(lower)
	urlScore, urlSignals := d.urlScore(post)
	authorScore, authorSignals := d.authorScore(post.AuthorMeta)
	structScore, structSignals := d.structureScore(text, lower)

	confidence := clamp01(
		kwScore*d.weights.Keyword +
			urlScore*d.weights.URL +
			authorScore*d.weights.Author +
			structScore*d.weights.Structure,
	)

	var signals []string
	signals = append(signals, kwSignals...)
	signals = append(signals, urlSignals...)
	signals = append(signals, authorSignals...)
	signals = append(signals, structSignals...)

	return domain.Classification{
		IsPromotional:  confidence >= d.threshold,
		Confidence:     confidence,
		MatchedSignals: signals,
		SubScores: map[string]float64{
			SignalKeywordDensity:   kwScore,
			SignalURLAnalysis:      urlScore,
			SignalAuthorBehavior:   authorScore,
			SignalContentStructure: structScore,
		},
	}
}

// keywordScore is occurrence count over word count, scaled by 10 and
// capped, so a short post stuffed with promotional phrasing scores high
// while one passing mention in a long post barely registers.
func (d *Detector) keywordScore(lower string) (float64, []string) {
	var signals []string
	count := 0
	for _, kw := range d.keywords {
		n := strings.Count(lower, kw)
		if n > 0 {
			count += n
			signals = append(signals, "keyword:"+kw)
		}
	}

	words := len(strings.Fields(lower))
	if words == 0 {
		words = 1
	}
	density := float64(count) / float64(words)
	return math.Min(density*10, 1.0), signals
}

func (d *Detector) urlScore(post domain.RawPost) (float64, []string) {
	var signals []string
	score := 0.0

	// External link target. Self posts point at their own permalink, which
	// the upstream may report as a path while URL is absolute.
	if post.URL != "" && !selfLink(post.URL, post.Permalink) {
		matched := false
		for _, re := range d.urlPatterns {
			if re.MatchString(post.URL) {
				score += outboundURLHit
				matched = true
			}
		}
		if matched {
			signals = append(signals, "url:"+post.URL)
		}
	}

	if post.HasBody() {
		for _, u := range bodyURLRe.FindAllString(post.Body, -1) {
			matched := false
			for _, re := range d.urlPatterns {
				if re.MatchString(u) {
					score += bodyURLHit
					matched = true
				}
			}
			if matched {
				signals = append(signals, "url:"+u)
			}
		}
	}

	return math.Min(score, 1.0), signals
}

// authorScore penalizes young, low-reputation accounts. A deleted or
// unresolved author contributes nothing: absence of metadata is not
// evidence of promotion.
func (d *Detector) authorScore(meta *domain.AuthorMeta) (float64, []string) {
	if meta == nil {
		return 0.0, nil
	}

	var signals []string
	score := 0.0

	if !meta.CreatedAt.IsZero() && d.now().Sub(meta.CreatedAt) < newAccountAge {
		score += 0.3
		signals = append(signals, "author:new_account")
	}
	if meta.TotalKarma() < lowKarmaFloor {
		score += 0.2
		signals = append(signals, "author:low_karma")
	}

	return math.Min(score, 1.0), signals
}

func (d *Detector) structureScore(text, lower string) (float64, []string) {
	var signals []string
	score := 0.0

	if len(text) > 20 && hasLetter(text) && text == strings.ToUpper(text) {
		score += 0.2
		signals = append(signals, "structure:excessive_caps")
	}

	if strings.Count(text, "!") > 3 {
		score += 0.1
		signals = append(signals, "structure:excessive_exclamation")
	}

	ctaFound := false
	for _, phrase := range ctaPhrases {
		if strings.Contains(lower, phrase) {
			ctaFound = true
			signals = append(signals, "structure:cta:"+phrase)
		}
	}
	if ctaFound {
		score += 0.3
	}

	if strings.Contains(text, "*") {
		score += 0.1
		signals = append(signals, "structure:markup")
	}

	return math.Min(score, 1.0), signals
}

// selfLink reports whether url points at the post's own permalink.
func selfLink(url, permalink string) bool {
	return permalink != "" && strings.HasSuffix(url, permalink)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
