package lexicon

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultLexiconLoads(t *testing.T) {
	t.Parallel()

	lex := Default()
	if lex.Version == "" {
		t.Fatalf("expected lexicon version")
	}
	if len(lex.Negative) == 0 || len(lex.Positive) == 0 || len(lex.Noise) == 0 {
		t.Fatalf("expected all lists populated: %+v", lex)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := "version: test\nnegative: [\" Fraud \", fraud, spill]\npositive: [award]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}

	lex, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !reflect.DeepEqual(lex.Negative, []string{"fraud", "spill"}) {
		t.Fatalf("unexpected negative list: %v", lex.Negative)
	}
	if len(lex.Noise) != 0 {
		t.Fatalf("expected empty noise list, got %v", lex.Noise)
	}
}

func TestParseRejectsEmptyLexicon(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("version: x\nnoise: [a]\n")); err == nil {
		t.Fatalf("expected error for lexicon without sentiment keywords")
	}
}

func TestMatcherLongestFirst(t *testing.T) {
	t.Parallel()

	lex := &Lexicon{
		Negative: []string{"재해", "중대재해", "유출"},
		Positive: []string{"성장"},
	}
	m := lex.NewMatcher(ClassNegative, ClassPositive)

	hits := m.Find("공장 중대재해 이후 매출 성장, 정보 유출 우려")
	if got := hits[ClassNegative]; !reflect.DeepEqual(got, []string{"유출", "중대재해"}) {
		t.Fatalf("unexpected negative hits: %v", got)
	}
	if got := hits[ClassPositive]; !reflect.DeepEqual(got, []string{"성장"}) {
		t.Fatalf("unexpected positive hits: %v", got)
	}

	hits = m.Find("재해 예방 중대재해")
	if got := hits[ClassNegative]; !reflect.DeepEqual(got, []string{"재해", "중대재해"}) {
		t.Fatalf("standalone shorter keyword should still match: %v", got)
	}
}

func TestMatcherContains(t *testing.T) {
	t.Parallel()

	lex := &Lexicon{Negative: []string{"x"}, Noise: []string{"코스피", "Stock"}}
	m := lex.NewMatcher(ClassNoise)
	if !m.Contains("오늘 코스피 마감") {
		t.Fatalf("expected noise match")
	}
	if !m.Contains("STOCK rally") {
		t.Fatalf("expected case-insensitive match")
	}
	if m.Contains("x marks") {
		t.Fatalf("negative list must not leak into noise matcher")
	}
}
