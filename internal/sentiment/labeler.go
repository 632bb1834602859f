package sentiment

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/lexicon"
	"MaterialityScanner/internal/ports"
)

// Basis strings explain how the final label was reached.
const (
	BasisCoOccurrence = "negative+positive co-occurrence → other"
	BasisModel        = "model prediction retained"
	BasisKeywords     = "keyword heuristic (classifier unavailable)"
)

const defaultConcurrency = 4

// Labeler combines the classifier with a keyword guard.
type Labeler struct {
	matcher       *lexicon.Matcher
	classifier    ports.Classifier
	negativeLabel string
	concurrency   int
	logger        *slog.Logger
}

// Deps wires the labeler collaborators. Classifier may be nil.
type Deps struct {
	Lexicon       *lexicon.Lexicon
	Classifier    ports.Classifier
	NegativeLabel string
	Concurrency   int
	Logger        *slog.Logger
}

// New builds a labeler; a nil lexicon falls back to the bundled one.
func New(deps Deps) *Labeler {
	lex := deps.Lexicon
	if lex == nil {
		lex = lexicon.Default()
	}
	negative := strings.TrimSpace(deps.NegativeLabel)
	if negative == "" {
		negative = domain.SentimentNegative
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Labeler{
		matcher:       lex.NewMatcher(lexicon.ClassNegative, lexicon.ClassPositive),
		classifier:    deps.Classifier,
		negativeLabel: negative,
		concurrency:   concurrency,
		logger:        logger.With("component", "sentiment"),
	}
}

// Label assigns sentiment to one article. degraded reports whether the
// keyword fallback was used instead of the classifier.
func (l *Labeler) Label(ctx context.Context, article domain.LabeledArticle) (labeled domain.LabeledArticle, degraded bool) {
	text := article.Title + " " + article.Description
	hits := l.matcher.Find(text)
	neg := nonNil(hits[lexicon.ClassNegative])
	pos := nonNil(hits[lexicon.ClassPositive])

	article.NegKeywords = neg
	article.PosKeywords = pos

	if l.classifier != nil {
		prediction, err := l.classifier.Classify(ctx, text)
		if err == nil {
			l.applyPrediction(&article, prediction)
			return article, false
		}
		l.logger.Warn("classifier unavailable, using keyword heuristic",
			"title", article.Title, "error", err)
	}

	if len(neg) > len(pos) {
		article.Sentiment = domain.SentimentNegative
		article.SentimentConfidence = 1
	} else {
		article.Sentiment = domain.SentimentOther
		article.SentimentConfidence = 0
	}
	article.SentimentBasis = BasisKeywords
	return article, true
}

func (l *Labeler) applyPrediction(article *domain.LabeledArticle, prediction ports.Prediction) {
	isNegative := strings.EqualFold(strings.TrimSpace(prediction.Label), l.negativeLabel)

	confidence, ok := l.negativeProbability(prediction.Probabilities)
	if !ok {
		if isNegative {
			confidence = 1
		} else {
			confidence = 0
		}
	}
	article.SentimentConfidence = clamp01(confidence)

	switch {
	case isNegative && len(article.NegKeywords) > 0 && len(article.PosKeywords) > 0:
		article.Sentiment = domain.SentimentOther
		article.SentimentBasis = BasisCoOccurrence
	case isNegative:
		article.Sentiment = domain.SentimentNegative
		article.SentimentBasis = BasisModel
	default:
		article.Sentiment = domain.SentimentOther
		article.SentimentBasis = BasisModel
	}
}

func (l *Labeler) negativeProbability(probs map[string]float64) (float64, bool) {
	if p, ok := probs[l.negativeLabel]; ok {
		return p, true
	}
	for label, p := range probs {
		if strings.EqualFold(label, l.negativeLabel) {
			return p, true
		}
	}
	return 0, false
}

// LabelAll labels every article with bounded concurrency, preserving input
// order. A classifier failure only downgrades the affected article; the
// returned error is non-nil only when ctx is cancelled.
func (l *Labeler) LabelAll(ctx context.Context, articles []domain.LabeledArticle) ([]domain.LabeledArticle, int, error) {
	out := make([]domain.LabeledArticle, len(articles))
	var degraded atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i := range articles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			labeled, fallback := l.Label(gctx, articles[i])
			if fallback {
				degraded.Add(1)
			}
			out[i] = labeled
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	if n := degraded.Load(); n > 0 {
		l.logger.Warn("sentiment labeling degraded", "articles", len(articles), "fallback", n)
	}
	return out, int(degraded.Load()), nil
}

func nonNil(words []string) []string {
	if words == nil {
		return []string{}
	}
	return words
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
