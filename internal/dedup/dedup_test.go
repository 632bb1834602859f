package dedup

import (
	"reflect"
	"strings"
	"testing"

	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/lexicon"
)

func TestCanonicalURLEquivalence(t *testing.T) {
	t.Parallel()

	base := "https://news.example.com/article/123?id=7&page=2"
	variants := []string{
		"https://news.example.com/article/123/?id=7&page=2",
		"https://NEWS.example.com/article/123?id=7&page=2#comments",
		"https://www.news.example.com/article/123?utm_source=naver&id=7&utm_medium=feed&page=2",
		"https://news.example.com/article/123?id=7&gclid=abc&fbclid=def&page=2&igshid=x",
		"https://news.example.com/article/123?mc_cid=1&id=7&mc_eid=2&page=2&ref=home",
	}

	want := CanonicalURL(base)
	if want != "https://news.example.com/article/123?id=7&page=2" {
		t.Fatalf("unexpected canonical base: %s", want)
	}
	for _, v := range variants {
		if got := CanonicalURL(v); got != want {
			t.Fatalf("CanonicalURL(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestCanonicalURLKeepsParamOrder(t *testing.T) {
	t.Parallel()

	a := CanonicalURL("https://example.com/a?b=2&a=1")
	b := CanonicalURL("https://example.com/a?a=1&b=2")
	if a == b {
		t.Fatalf("parameter order must be preserved: %s", a)
	}
	if a != "https://example.com/a?b=2&a=1" {
		t.Fatalf("unexpected canonical url: %s", a)
	}
}

func TestCanonicalURLFallbacks(t *testing.T) {
	t.Parallel()

	if got := CanonicalURL("  not a url  "); got != "not a url" {
		t.Fatalf("expected trimmed raw string, got %q", got)
	}
	if got := CanonicalURL(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := CanonicalURL("https://example.com/"); got != "https://example.com" {
		t.Fatalf("expected root slash stripped, got %q", got)
	}
}

func TestDeduplicateScenario(t *testing.T) {
	t.Parallel()

	articles := []domain.RawArticle{
		{Title: "first", Company: "Acme", Issue: "환경", IssueOriginal: "환경", OriginalLink: "https://news.example.com/a?utm_source=x"},
		{Title: "dup", Company: "Acme", Issue: "환경", IssueOriginal: "환경", OriginalLink: "https://www.news.example.com/a/"},
		{Title: "other", Company: "Acme", Issue: "안전", IssueOriginal: "안전", OriginalLink: "https://news.example.com/b"},
	}

	out := Deduplicate(articles)
	if len(out) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(out))
	}
	if out[0].Title != "first" || out[1].Title != "other" {
		t.Fatalf("first-seen must win, got %q and %q", out[0].Title, out[1].Title)
	}
}

func TestDeduplicateScopedByIssueGroup(t *testing.T) {
	t.Parallel()

	articles := []domain.RawArticle{
		{Company: "Acme", IssueOriginal: "환경", OriginalLink: "https://example.com/x"},
		{Company: "Acme", IssueOriginal: "안전", OriginalLink: "https://example.com/x"},
		{Company: "Other", IssueOriginal: "환경", OriginalLink: "https://example.com/x"},
	}
	if out := Deduplicate(articles); len(out) != 3 {
		t.Fatalf("same url in different scopes must survive, got %d", len(out))
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	t.Parallel()

	articles := []domain.RawArticle{
		{Company: "Acme", Issue: "a", OriginalLink: "https://example.com/1"},
		{Company: "Acme", Issue: "a", OriginalLink: "https://example.com/1/"},
		{Company: "Acme", Category: "c", Issue: "a", OriginalLink: "https://example.com/1"},
		{Company: "Acme", Issue: "b", OriginalLink: "https://example.com/2#x"},
	}

	once := Deduplicate(articles)
	twice := Deduplicate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedup is not idempotent:\n%v\n%v", once, twice)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "<b>Acme</b> 탄소   배출", want: "Acme 탄소 배출"},
		{in: "line1<br>line2<br/>line3", want: "line1 line2 line3"},
		{in: "&quot;ESG&quot; &amp; 경영", want: `"ESG" & 경영`},
		{in: "  plain\t text \n", want: "plain text"},
		{in: "5 < 6 and <i>x</i>", want: "5 < 6 and x"},
		{in: "a < b and c<d", want: "a < b and c<d"},
		{in: "탄소&nbsp;&nbsp; 배출", want: "탄소 배출"},
		{in: "개인정보\u00a0유출", want: "개인정보 유출"},
		{in: "x <!-- hidden --> y", want: "x y"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNoiseFilterRequiresBothFields(t *testing.T) {
	t.Parallel()

	filter := NewNoiseFilter(&lexicon.Lexicon{Negative: []string{"x"}, Noise: []string{"주가", "코스피"}})

	both := domain.RawArticle{Title: "Acme 주가 급등", Description: "코스피 상승 마감"}
	titleOnly := domain.RawArticle{Title: "Acme 주가 영향", Description: "탄소 배출 감축 계획"}
	descOnly := domain.RawArticle{Title: "Acme 안전 점검", Description: "주가에도 영향"}

	if !filter.IsNoise(both) {
		t.Fatalf("expected noise when both fields match")
	}
	if filter.IsNoise(titleOnly) || filter.IsNoise(descOnly) {
		t.Fatalf("single-field match must not drop the article")
	}
}

func TestProcess(t *testing.T) {
	t.Parallel()

	filter := NewNoiseFilter(&lexicon.Lexicon{Negative: []string{"x"}, Noise: []string{"주가"}})
	articles := []domain.RawArticle{
		{Title: "<b>Acme</b> 환경", Description: "desc", Company: "Acme", IssueOriginal: "환경", OriginalLink: "https://a.com/1"},
		{Title: "Acme 주가", Description: "주가 하락", Company: "Acme", IssueOriginal: "환경", OriginalLink: "https://a.com/2"},
		{Title: "Acme 환경 again", Description: "desc", Company: "Acme", IssueOriginal: "환경", OriginalLink: "https://a.com/1?utm_campaign=z"},
	}

	out, stats := Process(articles, filter, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 article, got %d", len(out))
	}
	if out[0].Title != "Acme 환경" {
		t.Fatalf("expected cleaned title, got %q", out[0].Title)
	}
	want := Stats{Input: 3, Noise: 1, Duplicates: 1, Output: 1}
	if stats != want {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

type tokenCategorizer struct {
	token    string
	category string
	seen     []string
}

func (c *tokenCategorizer) Attach(articles []domain.RawArticle) []domain.RawArticle {
	for i := range articles {
		c.seen = append(c.seen, articles[i].Title+"|"+articles[i].Description)
		if strings.Contains(articles[i].Title+" "+articles[i].Description, c.token) {
			articles[i].Issue = c.token
			articles[i].Category = c.category
		}
	}
	return articles
}

func TestProcessCategorizesCleanedText(t *testing.T) {
	t.Parallel()

	categorizer := &tokenCategorizer{token: "탄소 배출", category: "환경"}
	articles := []domain.RawArticle{{
		Title:        "Acme <b>탄소</b> 배출 감축",
		Description:  "탄소&nbsp;배출",
		Company:      "Acme",
		Kind:         domain.QueryCompanyOnly,
		OriginalLink: "https://a.com/1",
	}}

	out, _ := Process(articles, NewNoiseFilter(nil), categorizer)
	if len(out) != 1 || out[0].Category != "환경" || out[0].Issue != "탄소 배출" {
		t.Fatalf("expected category from cleaned text, got %+v", out)
	}
	if want := "Acme 탄소 배출 감축|탄소 배출"; len(categorizer.seen) != 1 || categorizer.seen[0] != want {
		t.Fatalf("categorizer must see cleaned text, got %q", categorizer.seen)
	}
	if articles[0].Category != "" {
		t.Fatalf("input slice must not be modified: %+v", articles[0])
	}
}
