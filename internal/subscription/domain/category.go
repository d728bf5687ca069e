package domain

import "strings"

// CategoryOther is the fallback category assigned when classification
// fails or when a subscription has no community entry.
const CategoryOther = "Other"

// Categories is the fixed set of sender categories, in dashboard display
// order. Classifier output is only accepted if it matches one of these.
var Categories = []string{
	"Jobs", "Finance", "Shopping", "Learning", "News",
	"Social", "Travel", "Health", "Entertainment", "Other",
}

// IsValidCategory reports whether label matches a known category,
// case-insensitively.
func IsValidCategory(label string) bool {
	for _, c := range Categories {
		if strings.EqualFold(c, label) {
			return true
		}
	}
	return false
}

// NormalizeCategory maps label to its canonical casing. Unknown labels
// normalize to "Other".
func NormalizeCategory(label string) string {
	for _, c := range Categories {
		if strings.EqualFold(c, label) {
			return c
		}
	}
	return CategoryOther
}
