package scoring

import (
	"sort"

	"MaterialityScanner/internal/domain"
)

// Score weights. These are business tuning values and must not be changed
// without re-baselining historical rankings.
const (
	WeightFrequency = 0.4
	WeightRelevance = 0.6
	WeightRecent    = 0.2
	WeightRank      = 0.4
	WeightReference = 0.6
	WeightNegative  = 0.8

	NegativeFrequencyBoost = 0.5
	NegativeRelevanceBoost = 0.5

	recentWeakScore = 0.5
)

// Final combines the six sub-scores.
func Final(s domain.CategoryScore) float64 {
	return WeightFrequency*s.Frequency +
		WeightRelevance*s.Relevance +
		WeightRecent*s.Recent +
		WeightRank*s.Rank +
		WeightReference*s.Reference +
		WeightNegative*s.Negative*(1+NegativeFrequencyBoost*s.Frequency+NegativeRelevanceBoost*s.Relevance)
}

// Score groups articles by resolved category and returns the ranked records.
// Articles without a category are ignored and do not count towards the total.
func Score(articles []domain.LabeledArticle) []domain.CategoryScore {
	groups := make(map[string][]domain.LabeledArticle)
	total := 0
	for _, article := range articles {
		category := article.ResolvedCategory()
		if category == "" {
			continue
		}
		groups[category] = append(groups[category], article)
		total++
	}
	if total == 0 {
		return []domain.CategoryScore{}
	}

	scores := make([]domain.CategoryScore, 0, len(groups))
	for category, members := range groups {
		scores = append(scores, scoreCategory(category, members, total))
	}

	Rank(scores)
	return scores
}

// Rank orders records by final score, then count, then category name.
func Rank(scores []domain.CategoryScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Final != b.Final {
			return a.Final > b.Final
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
}

func scoreCategory(category string, members []domain.LabeledArticle, total int) domain.CategoryScore {
	n := len(members)
	s := domain.CategoryScore{
		Category:  category,
		Count:     n,
		Frequency: float64(n) / float64(total),
	}

	negative := 0
	for _, a := range members {
		if a.Relevance == domain.TierStrong {
			s.Relevance = 1
		}
		switch a.Recent {
		case domain.TierStrong:
			s.Recent = 1
		case domain.TierWeak:
			if s.Recent < recentWeakScore {
				s.Recent = recentWeakScore
			}
		}
		if a.Rank == domain.TierStrong {
			s.Rank = 1
		}
		if a.Reference == domain.TierStrong {
			s.Reference = 1
		}
		if a.Sentiment == domain.SentimentNegative {
			negative++
		}
	}
	s.Negative = float64(negative) / float64(n)
	s.Final = Final(s)

	sorted := make([]domain.LabeledArticle, n)
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CanonicalURL != sorted[j].CanonicalURL {
			return sorted[i].CanonicalURL < sorted[j].CanonicalURL
		}
		if sorted[i].Title != sorted[j].Title {
			return sorted[i].Title < sorted[j].Title
		}
		return sorted[i].PubDate < sorted[j].PubDate
	})
	s.Articles = sorted

	return s
}
