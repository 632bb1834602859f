package dedup

import (
	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/lexicon"
)

// Key builds the canonical dedup key of an article.
func Key(article domain.RawArticle) domain.CanonicalKey {
	return domain.CanonicalKey{
		Company:    article.Company,
		IssueGroup: article.IssueGroup(),
		URL:        CanonicalURL(article.OriginalLink),
	}
}

// Deduplicate keeps the first article seen for every canonical key.
// Output preserves input order, so applying it twice is a no-op.
func Deduplicate(articles []domain.RawArticle) []domain.RawArticle {
	seen := make(map[domain.CanonicalKey]struct{}, len(articles))
	out := make([]domain.RawArticle, 0, len(articles))
	for _, article := range articles {
		key := Key(article)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, article)
	}
	return out
}

// NoiseFilter drops stock/trading chatter.
type NoiseFilter struct {
	matcher *lexicon.Matcher
}

// NewNoiseFilter builds a filter from the lexicon noise list.
func NewNoiseFilter(lex *lexicon.Lexicon) *NoiseFilter {
	if lex == nil {
		return &NoiseFilter{}
	}
	return &NoiseFilter{matcher: lex.NewMatcher(lexicon.ClassNoise)}
}

// IsNoise requires a hit in both title and description; one field alone is not enough.
func (f *NoiseFilter) IsNoise(article domain.RawArticle) bool {
	if f == nil || f.matcher == nil {
		return false
	}
	return f.matcher.Contains(article.Title) && f.matcher.Contains(article.Description)
}

// Stats counts what Process removed.
type Stats struct {
	Input      int
	Noise      int
	Duplicates int
	Output     int
}

// Categorizer resolves categories of articles that arrived without one.
type Categorizer interface {
	Attach(articles []domain.RawArticle) []domain.RawArticle
}

// Process cleans every article, lets categorizer (optional) resolve
// categories on the cleaned text, drops noise and removes duplicates.
func Process(articles []domain.RawArticle, filter *NoiseFilter, categorizer Categorizer) ([]domain.RawArticle, Stats) {
	stats := Stats{Input: len(articles)}

	texts := make([]domain.RawArticle, len(articles))
	for i, article := range articles {
		article.Title = Clean(article.Title)
		article.Description = Clean(article.Description)
		texts[i] = article
	}
	if categorizer != nil {
		texts = categorizer.Attach(texts)
	}

	cleaned := make([]domain.RawArticle, 0, len(texts))
	for _, article := range texts {
		if filter.IsNoise(article) {
			stats.Noise++
			continue
		}
		cleaned = append(cleaned, article)
	}

	out := Deduplicate(cleaned)
	stats.Duplicates = len(cleaned) - len(out)
	stats.Output = len(out)
	return out, stats
}
