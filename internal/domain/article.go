package domain

import "time"

// QueryKind tells whether a search combined company and issue or used the company alone.
type QueryKind string

const (
	QueryCompanyIssue QueryKind = "company_issue"
	QueryCompanyOnly  QueryKind = "company_only"
)

// SearchQuery is one planned call against the news API. Immutable once planned.
type SearchQuery struct {
	Keyword       string    `json:"keyword"`
	Company       string    `json:"company"`
	Issue         string    `json:"issue"`
	IssueOriginal string    `json:"issueOriginal"`
	Kind          QueryKind `json:"queryKind"`
	MaxResults    int       `json:"maxResults"`
}

// NewsItem is a single upstream search hit as returned by the API.
type NewsItem struct {
	Title        string `json:"title"`
	OriginalLink string `json:"originallink"`
	Link         string `json:"link"`
	Description  string `json:"description"`
	PubDate      string `json:"pubDate"`
}

// URL prefers the publisher link over the aggregator link.
func (n NewsItem) URL() string {
	if n.OriginalLink != "" {
		return n.OriginalLink
	}
	return n.Link
}

// RawArticle is a fetched article bound to the query that produced it.
type RawArticle struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PubDate       string    `json:"pubDate"`
	OriginalLink  string    `json:"originalLink"`
	Company       string    `json:"company"`
	Issue         string    `json:"issue"`
	IssueOriginal string    `json:"issueOriginal,omitempty"`
	Category      string    `json:"category,omitempty"`
	Kind          QueryKind `json:"queryKind"`
	Keyword       string    `json:"keyword"`
}

// IssueGroup is the dedup scope: original issue label, then resolved category, then raw token.
func (a RawArticle) IssueGroup() string {
	switch {
	case a.IssueOriginal != "":
		return a.IssueOriginal
	case a.Category != "":
		return a.Category
	default:
		return a.Issue
	}
}

// ResolvedCategory is the category the article is scored under; empty when unknown.
func (a RawArticle) ResolvedCategory() string {
	if a.IssueOriginal != "" {
		return a.IssueOriginal
	}
	return a.Category
}

// CanonicalKey identifies an article within one run; at most one survivor per key.
type CanonicalKey struct {
	Company    string
	IssueGroup string
	URL        string
}

// Sentiment labels produced by the labeler.
const (
	SentimentNegative = "negative"
	SentimentOther    = "other"
)

// Tier labels attached by the relevance labeler.
const (
	TierStrong = "++"
	TierWeak   = "+"
)

// LabeledArticle is a RawArticle enriched with sentiment and relevance labels.
type LabeledArticle struct {
	RawArticle

	CanonicalURL string     `json:"canonicalUrl"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`

	Sentiment           string   `json:"sentiment"`
	SentimentConfidence float64  `json:"sentimentConfidence"`
	NegKeywords         []string `json:"negKeywords"`
	PosKeywords         []string `json:"posKeywords"`
	SentimentBasis      string   `json:"sentimentBasis"`

	Relevance    string   `json:"relevance,omitempty"`
	Recent       string   `json:"recent,omitempty"`
	Rank         string   `json:"rank,omitempty"`
	Reference    string   `json:"reference,omitempty"`
	LabelReasons []string `json:"labelReasons"`
}
