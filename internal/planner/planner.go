package planner

import (
	"fmt"
	"sort"
	"strings"

	"MaterialityScanner/internal/domain"
)

// separators split compound category labels such as "환경/안전" into search tokens.
const separators = "/·ㆍ,&|"

// Limits caps how many articles each query kind may collect.
type Limits struct {
	PerIssue    int
	CompanyOnly int
}

// Plan is the expanded query list of one company plus the token index used to
// attach categories back to articles.
type Plan struct {
	Company  string
	Queries  []domain.SearchQuery
	Tokens   []string
	original map[string]string
}

// Tokenize splits category labels into distinct tokens, remembering for each
// token the first category that produced it.
func Tokenize(categories []string) ([]string, map[string]string) {
	tokens := make([]string, 0, len(categories))
	original := make(map[string]string, len(categories))
	for _, category := range categories {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		parts := strings.FieldsFunc(category, func(r rune) bool {
			return strings.ContainsRune(separators, r)
		})
		for _, part := range parts {
			token := strings.Join(strings.Fields(part), " ")
			if token == "" {
				continue
			}
			if _, ok := original[token]; ok {
				continue
			}
			original[token] = category
			tokens = append(tokens, token)
		}
	}
	return tokens, original
}

// Build expands company × categories into one query per token plus exactly
// one company-only query.
func Build(company string, categories []string, limits Limits) (*Plan, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, fmt.Errorf("company name is empty")
	}

	tokens, original := Tokenize(categories)
	plan := &Plan{
		Company:  company,
		Tokens:   tokens,
		original: original,
		Queries:  make([]domain.SearchQuery, 0, len(tokens)+1),
	}

	for _, token := range tokens {
		plan.Queries = append(plan.Queries, domain.SearchQuery{
			Keyword:       company + " " + token,
			Company:       company,
			Issue:         token,
			IssueOriginal: original[token],
			Kind:          domain.QueryCompanyIssue,
			MaxResults:    limits.PerIssue,
		})
	}

	plan.Queries = append(plan.Queries, domain.SearchQuery{
		Keyword:    company,
		Company:    company,
		Kind:       domain.QueryCompanyOnly,
		MaxResults: limits.CompanyOnly,
	})

	return plan, nil
}

// Resolve finds the longest token contained in text and returns it with its
// category. Ties on length go to the earlier planned token.
func (p *Plan) Resolve(text string) (token, category string, ok bool) {
	if p == nil || text == "" {
		return "", "", false
	}
	candidates := make([]string, len(p.Tokens))
	copy(candidates, p.Tokens)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})

	lowered := strings.ToLower(text)
	for _, candidate := range candidates {
		if strings.Contains(lowered, strings.ToLower(candidate)) {
			return candidate, p.original[candidate], true
		}
	}
	return "", "", false
}

// Attach fills the category of company-only articles from their text. Articles
// that already carry an issue label are returned untouched.
func (p *Plan) Attach(articles []domain.RawArticle) []domain.RawArticle {
	for i := range articles {
		a := &articles[i]
		if a.Kind != domain.QueryCompanyOnly || a.IssueOriginal != "" || a.Category != "" {
			continue
		}
		if token, category, ok := p.Resolve(a.Title + " " + a.Description); ok {
			a.Issue = token
			a.Category = category
		}
	}
	return articles
}
