package domain

import "time"

// Corporation is the company being assessed.
type Corporation struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a named ESG issue category.
type Category struct {
	ID   int64  `json:"categoryId"`
	Name string `json:"name"`
}

// Issue is one entry of a corporation's issue pool. Year is zero for reference issues.
type Issue struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Year     int    `json:"year,omitempty"`
}

// CorporationIssues splits a corporation's pool into year-bound and reference issues.
type CorporationIssues struct {
	YearIssues   []Issue `json:"yearIssues"`
	CommonIssues []Issue `json:"commonIssues"`
}

// ReportPeriod is the inclusive date range searched for one assessment.
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PoolYear is the issue-pool year used for rank labels: the year before the period starts.
func (p ReportPeriod) PoolYear() int {
	return p.Start.Year() - 1
}

// CategoryScore is the derived score record of one issue category.
type CategoryScore struct {
	Category  string           `json:"category"`
	Count     int              `json:"count"`
	Frequency float64          `json:"frequencyScore"`
	Relevance float64          `json:"relevanceScore"`
	Recent    float64          `json:"recentScore"`
	Rank      float64          `json:"rankScore"`
	Negative  float64          `json:"negativeScore"`
	Reference float64          `json:"referenceScore"`
	Final     float64          `json:"finalScore"`
	Articles  []LabeledArticle `json:"articles"`
}

// AssessmentResult is the outcome of one materiality run.
type AssessmentResult struct {
	CompanyID       int64           `json:"companyId"`
	Company         string          `json:"company"`
	Period          ReportPeriod    `json:"reportPeriod"`
	SearchDate      time.Time       `json:"searchDate"`
	Queries         int             `json:"queries"`
	FailedQueries   int             `json:"failedQueries"`
	FetchedArticles int             `json:"fetchedArticles"`
	Articles        int             `json:"articles"`
	Degraded        bool            `json:"degraded"`
	Rankings        []CategoryScore `json:"rankings"`
}
