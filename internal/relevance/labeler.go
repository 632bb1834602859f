package relevance

import (
	"fmt"
	"strings"
	"time"

	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/pubdate"
)

const (
	day = 24 * time.Hour

	// StrongWindow and WeakWindow bound the recency tiers.
	StrongWindow = 92 * day
	WeakWindow   = 183 * day
)

// Labeler attaches title-match, recency, rank and reference labels.
type Labeler struct {
	company    string
	searchDate time.Time
	yearSet    map[string]struct{}
	commonSet  map[string]struct{}
	location   *time.Location
}

// Options configures one labeling run.
type Options struct {
	Company          string
	SearchDate       time.Time
	YearCategories   []string
	CommonCategories []string
	Location         *time.Location
}

// New prepares the category sets for a run.
func New(opts Options) *Labeler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Labeler{
		company:    strings.ToLower(strings.TrimSpace(opts.Company)),
		searchDate: opts.SearchDate,
		yearSet:    toSet(opts.YearCategories),
		commonSet:  toSet(opts.CommonCategories),
		location:   loc,
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// Label sets the four labels on one article; labels that do not apply stay empty.
func (l *Labeler) Label(article domain.LabeledArticle) domain.LabeledArticle {
	article.Relevance, article.Recent, article.Rank, article.Reference = "", "", "", ""
	reasons := make([]string, 0, 4)

	// Title match ignores case so "ACME" and "acme" count for "Acme".
	if l.company != "" && strings.Contains(strings.ToLower(article.Title), l.company) {
		article.Relevance = domain.TierStrong
		reasons = append(reasons, "company name appears in title")
	}

	if published, err := pubdate.Parse(article.PubDate, l.location); err == nil {
		article.PublishedAt = &published
		age := l.searchDate.Sub(published)
		switch {
		case age <= StrongWindow:
			article.Recent = domain.TierStrong
			reasons = append(reasons, fmt.Sprintf("published %d days before search date (≤ 92)", days(age)))
		case age <= WeakWindow:
			article.Recent = domain.TierWeak
			reasons = append(reasons, fmt.Sprintf("published %d days before search date (> 92, ≤ 183)", days(age)))
		}
	}

	category := article.ResolvedCategory()
	if category != "" {
		if _, ok := l.yearSet[category]; ok {
			article.Rank = domain.TierStrong
			reasons = append(reasons, fmt.Sprintf("category %s is in last year's issue pool", category))
		}
		if _, ok := l.commonSet[category]; ok {
			article.Reference = domain.TierStrong
			reasons = append(reasons, fmt.Sprintf("category %s is a reference issue", category))
		}
	}

	article.LabelReasons = reasons
	return article
}

// LabelAll labels a batch in place order.
func (l *Labeler) LabelAll(articles []domain.LabeledArticle) []domain.LabeledArticle {
	out := make([]domain.LabeledArticle, len(articles))
	for i, a := range articles {
		out[i] = l.Label(a)
	}
	return out
}

func days(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / day)
}
