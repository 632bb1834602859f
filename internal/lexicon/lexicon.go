package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultLexicon []byte

// Lexicon holds the versioned keyword lists that tune sentiment and noise filtering.
type Lexicon struct {
	Version  string   `yaml:"version"`
	Negative []string `yaml:"negative"`
	Positive []string `yaml:"positive"`
	Noise    []string `yaml:"noise"`
}

// Default returns the lexicon bundled with the binary.
func Default() *Lexicon {
	lex, err := Parse(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return lex
}

// Load reads a lexicon file; an empty path yields the bundled default.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	lex, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Parse decodes and normalizes YAML lexicon data.
func Parse(raw []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	lex.Negative = normalize(lex.Negative)
	lex.Positive = normalize(lex.Positive)
	lex.Noise = normalize(lex.Noise)
	if len(lex.Negative) == 0 && len(lex.Positive) == 0 {
		return nil, fmt.Errorf("lexicon has no sentiment keywords")
	}
	return &lex, nil
}

func normalize(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Class tags which list a keyword came from.
type Class int

const (
	ClassNegative Class = iota
	ClassPositive
	ClassNoise
)

// Hits groups matched keywords by class, each list sorted.
type Hits map[Class][]string

// Matcher finds keywords longest-first; bytes consumed by a longer match are not
// reused, so "중대재해" does not also report "재해".
type Matcher struct {
	words []entry
}

type entry struct {
	word  string
	class Class
}

// NewMatcher builds a matcher over the given classes of the lexicon.
func (l *Lexicon) NewMatcher(classes ...Class) *Matcher {
	m := &Matcher{}
	seen := map[string]bool{}
	for _, class := range classes {
		for _, w := range l.list(class) {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" || seen[w] {
				continue
			}
			seen[w] = true
			m.words = append(m.words, entry{word: w, class: class})
		}
	}
	sort.SliceStable(m.words, func(i, j int) bool {
		return len(m.words[i].word) > len(m.words[j].word)
	})
	return m
}

func (l *Lexicon) list(class Class) []string {
	switch class {
	case ClassNegative:
		return l.Negative
	case ClassPositive:
		return l.Positive
	case ClassNoise:
		return l.Noise
	default:
		return nil
	}
}

// Find returns the distinct keywords present in text.
func (m *Matcher) Find(text string) Hits {
	hits := Hits{}
	if m == nil || text == "" {
		return hits
	}
	lowered := strings.ToLower(text)
	consumed := make([]bool, len(lowered))
	found := map[string]bool{}

	for _, e := range m.words {
		offset := 0
		for {
			idx := strings.Index(lowered[offset:], e.word)
			if idx < 0 {
				break
			}
			start := offset + idx
			end := start + len(e.word)
			if !overlaps(consumed, start, end) {
				for i := start; i < end; i++ {
					consumed[i] = true
				}
				if !found[e.word] {
					found[e.word] = true
					hits[e.class] = append(hits[e.class], e.word)
				}
			}
			offset = start + 1
		}
	}

	for class := range hits {
		sort.Strings(hits[class])
	}
	return hits
}

// Contains reports whether any keyword of the matcher appears in text.
func (m *Matcher) Contains(text string) bool {
	if m == nil || text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, e := range m.words {
		if strings.Contains(lowered, e.word) {
			return true
		}
	}
	return false
}

func overlaps(consumed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if consumed[i] {
			return true
		}
	}
	return false
}
