package detect

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/decoynet/honeypot-platform/pkg/logging"
)

var detectorTracer = otel.Tracer("honeypot/scam-detector")

// Result describes the outcome of rule-based scam analysis for one message.
// Confidence is advisory; IsScam is driven by the disjunctive verdict rules.
type Result struct {
	IsScam            bool
	Confidence        float64
	Categories        []Category
	MatchedKeywords   []string
	UrgencyScore      int
	PaymentRedirected bool
	Reasons           []string
}

// HasCategory reports whether the given category matched.
func (r Result) HasCategory(c Category) bool {
	for _, cat := range r.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// Detector runs deterministic, lexicon-driven scam analysis. No network calls
// and no model inference, so it is safe on every inbound message.
type Detector struct {
	logger *logging.Logger

	keywordCategoryThreshold int
	urgencyScoreThreshold    int

	timePressure []*regexp.Regexp
	urlPattern   *regexp.Regexp
}

// Option configures a Detector.
type Option func(*Detector)

// WithThresholds overrides the verdict thresholds.
func WithThresholds(keywordCategories, urgencyScore int) Option {
	return func(d *Detector) {
		if keywordCategories > 0 {
			d.keywordCategoryThreshold = keywordCategories
		}
		if urgencyScore > 0 {
			d.urgencyScoreThreshold = urgencyScore
		}
	}
}

// New creates a scam detector.
func New(logger *logging.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = logging.Default()
	}

	d := &Detector{
		logger:                   logger,
		keywordCategoryThreshold: 2,
		urgencyScoreThreshold:    3,
		timePressure: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\d+\s*(minute|min|hour|hr|second|sec)`),
			regexp.MustCompile(`(?i)within\s+\d+`),
		},
		urlPattern: regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect analyzes a single message with no history context.
func (d *Detector) Detect(ctx context.Context, message string) Result {
	return d.DetectWithHistory(ctx, message, nil)
}

// DetectWithHistory analyzes a message along with prior sender messages. The
// history only influences the advisory confidence score, never the verdict.
func (d *Detector) DetectWithHistory(ctx context.Context, message string, history []string) Result {
	_, span := detectorTracer.Start(ctx, "detect.scam")
	defer span.End()

	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return Result{}
	}

	categories, keywords := d.matchKeywords(lower)
	urgency := d.urgencyScore(lower)
	payment := d.paymentRedirect(lower)
	contextScore := d.historyScore(history)

	res := Result{
		Categories:        categories,
		MatchedKeywords:   keywords,
		UrgencyScore:      urgency,
		PaymentRedirected: payment,
	}
	res.IsScam = d.verdict(res)
	res.Confidence = confidence(len(keywords), urgency, payment, contextScore)
	res.Reasons = buildReasons(res)

	span.SetAttributes(
		attribute.Bool("detect.is_scam", res.IsScam),
		attribute.Float64("detect.confidence", res.Confidence),
		attribute.Int("detect.urgency_score", urgency),
		attribute.Int("detect.keyword_count", len(keywords)),
	)

	if res.IsScam {
		d.logger.Info("scam signals detected",
			"confidence", res.Confidence,
			"categories", len(res.Categories),
			"urgency_score", urgency,
			"payment_redirect", payment,
		)
	}
	return res
}

// verdict applies the disjunctive decision rules. Any single rule is
// sufficient; the policy biases toward recall because a false positive only
// costs persona time.
func (d *Detector) verdict(r Result) bool {
	// Rule: a single critical sensitive-info keyword is enough.
	if r.HasCategory(CategorySensitiveInfo) {
		return true
	}
	// Rule: two distinct matched categories.
	if len(r.Categories) >= d.keywordCategoryThreshold {
		return true
	}
	// Rule: repeated urgency pressure.
	if r.UrgencyScore >= d.urgencyScoreThreshold {
		return true
	}
	// Rule: payment redirection plus any other keyword signal.
	if r.PaymentRedirected && len(r.MatchedKeywords) >= 1 {
		return true
	}
	return false
}

func (d *Detector) matchKeywords(lower string) ([]Category, []string) {
	var categories []Category
	var keywords []string
	seen := map[string]struct{}{}

	for category, words := range keywordTable {
		matched := false
		for _, kw := range words {
			if strings.Contains(lower, kw) {
				matched = true
				if _, dup := seen[kw]; !dup {
					seen[kw] = struct{}{}
					keywords = append(keywords, kw)
				}
			}
		}
		if matched {
			categories = append(categories, category)
		}
	}

	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	sort.Strings(keywords)
	return categories, keywords
}

// urgencyScore counts urgency phrasing plus time-pressure constructs, capped
// at 10.
func (d *Detector) urgencyScore(lower string) int {
	score := 0
	for _, phrase := range urgencyLexicon {
		if strings.Contains(lower, phrase) {
			score++
		}
	}
	for _, re := range d.timePressure {
		if re.MatchString(lower) {
			score += 2
		}
	}
	if score > 10 {
		score = 10
	}
	return score
}

func (d *Detector) paymentRedirect(lower string) bool {
	for _, phrase := range paymentRedirectLexicon {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	if d.urlPattern.MatchString(lower) {
		for _, word := range urlContextLexicon {
			if strings.Contains(lower, word) {
				return true
			}
		}
	}
	return false
}

// historyScore measures keyword density in the last five sender messages,
// normalized to [0,1]. Advisory only.
func (d *Detector) historyScore(history []string) float64 {
	if len(history) == 0 {
		return 0
	}
	if len(history) > 5 {
		history = history[len(history)-5:]
	}
	total := 0
	for _, msg := range history {
		lower := strings.ToLower(msg)
		for _, words := range keywordTable {
			for _, kw := range words {
				if strings.Contains(lower, kw) {
					total++
				}
			}
		}
	}
	return math.Min(float64(total)/10, 1.0)
}

// confidence blends the signal counts into an advisory [0,1] score. The
// verdict rules are the source of truth; this score exists for observability
// and ranking.
func confidence(keywordCount, urgencyScore int, paymentRedirect bool, contextScore float64) float64 {
	score := math.Min(float64(keywordCount)*0.1, 0.4)
	score += float64(urgencyScore) / 10 * 0.3
	if paymentRedirect {
		score += 0.2
	}
	score += contextScore * 0.1
	return math.Round(math.Min(score, 1.0)*100) / 100
}

func buildReasons(r Result) []string {
	var reasons []string
	if len(r.MatchedKeywords) > 0 {
		top := r.MatchedKeywords
		if len(top) > 5 {
			top = top[:5]
		}
		reasons = append(reasons, fmt.Sprintf("matched scam keywords: %s", strings.Join(top, ", ")))
	}
	if r.UrgencyScore >= 3 {
		reasons = append(reasons, fmt.Sprintf("high urgency pressure (score %d)", r.UrgencyScore))
	}
	if r.PaymentRedirected {
		reasons = append(reasons, "payment redirection attempt")
	}
	return reasons
}
