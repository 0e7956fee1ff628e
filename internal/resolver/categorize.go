package resolver

import (
	"strings"

	"github.com/bademirci/prediction-markets/internal/model"
)

// sportsKeywords flag a market as sports when they appear in the question
// or slug. The venue's own category labeling is inconsistent for sports,
// so this is checked in addition to it.
var sportsKeywords = []string{
	" vs ",
	"League",
	"Cup",
	"Tournament",
	"Championship",
	"NBA",
	"NFL",
	"Premier League",
	"Champions League",
	"UFC",
	"F1",
	"Grand Prix",
}

// CategorySports is the computed category for sports markets.
const CategorySports = "Sports"

// CategoryOther is the fallback computed category.
const CategoryOther = "Other"

// ComputeCategory derives the computed category for a market. Precedence:
// explicit override by market ID, venue sports label, keyword match on the
// question and slug, then the venue category as-is, then Other.
func ComputeCategory(m model.Market, overrides map[string]string) string {
	if c, ok := overrides[m.MarketID]; ok && c != "" {
		return c
	}

	if strings.EqualFold(m.Category, CategorySports) {
		return CategorySports
	}

	text := m.Question + " " + m.Slug
	for _, kw := range sportsKeywords {
		if containsFold(text, kw) {
			return CategorySports
		}
	}

	if m.Category != "" {
		return m.Category
	}
	return CategoryOther
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
