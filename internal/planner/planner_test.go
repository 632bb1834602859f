package planner

import (
	"reflect"
	"testing"

	"MaterialityScanner/internal/domain"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tokens, original := Tokenize([]string{"환경/안전", "안전 · 보건", "탄소 배출", " ", "지배구조,윤리"})

	want := []string{"환경", "안전", "보건", "탄소 배출", "지배구조", "윤리"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
	if original["안전"] != "환경/안전" {
		t.Fatalf("first category must own the token, got %q", original["안전"])
	}
	if original["보건"] != "안전 · 보건" {
		t.Fatalf("unexpected owner of 보건: %q", original["보건"])
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	plan, err := Build("Acme", []string{"환경", "안전"}, Limits{PerIssue: 50, CompanyOnly: 200})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if len(plan.Queries) != 3 {
		t.Fatalf("expected 3 queries, got %d", len(plan.Queries))
	}

	first := plan.Queries[0]
	if first.Keyword != "Acme 환경" || first.Kind != domain.QueryCompanyIssue || first.MaxResults != 50 {
		t.Fatalf("unexpected first query: %+v", first)
	}
	if first.IssueOriginal != "환경" {
		t.Fatalf("expected original category, got %q", first.IssueOriginal)
	}

	companyOnly := 0
	for _, q := range plan.Queries {
		if q.Kind == domain.QueryCompanyOnly {
			companyOnly++
			if q.Keyword != "Acme" || q.MaxResults != 200 {
				t.Fatalf("unexpected company-only query: %+v", q)
			}
		}
	}
	if companyOnly != 1 {
		t.Fatalf("expected exactly one company-only query, got %d", companyOnly)
	}
}

func TestBuildRejectsEmptyCompany(t *testing.T) {
	t.Parallel()

	if _, err := Build("  ", []string{"환경"}, Limits{}); err == nil {
		t.Fatalf("expected error for empty company")
	}
}

func TestResolveAndAttach(t *testing.T) {
	t.Parallel()

	plan, err := Build("Acme", []string{"탄소/탄소 배출", "안전"}, Limits{})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	token, category, ok := plan.Resolve("Acme 탄소 배출 감축 발표")
	if !ok || token != "탄소 배출" || category != "탄소/탄소 배출" {
		t.Fatalf("expected longest token, got %q %q %v", token, category, ok)
	}

	articles := []domain.RawArticle{
		{Title: "Acme 안전 점검", Kind: domain.QueryCompanyOnly},
		{Title: "Acme 신제품", Kind: domain.QueryCompanyOnly},
		{Title: "Acme 안전", Kind: domain.QueryCompanyIssue, Issue: "탄소", IssueOriginal: "탄소/탄소 배출"},
	}
	plan.Attach(articles)

	if articles[0].Category != "안전" || articles[0].Issue != "안전" {
		t.Fatalf("expected attached category, got %+v", articles[0])
	}
	if articles[1].Category != "" {
		t.Fatalf("unmatched article must stay uncategorized, got %q", articles[1].Category)
	}
	if articles[2].IssueOriginal != "탄소/탄소 배출" || articles[2].Category != "" {
		t.Fatalf("company-issue article must not change, got %+v", articles[2])
	}
}
