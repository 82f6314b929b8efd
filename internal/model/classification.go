package model

// Lane partitions summaries into the two dashboard feeds.
type Lane string

// Valid lanes. Anything unrecognized collapses to LaneOther.
const (
	LanePriority Lane = "priority"
	LaneOther    Lane = "other"
)

// Category is the importance tier attached to a summary.
type Category string

// Valid categories, highest to lowest.
const (
	CategoryCritical Category = "CRITICAL"
	CategoryHigh     Category = "HIGH"
	CategoryStandard Category = "STANDARD"
	CategoryLow      Category = "LOW"
)

// DefaultScore maps a category to its importance score, used whenever the
// classifier omits or mangles the numeric score.
func (c Category) DefaultScore() int {
	switch c {
	case CategoryCritical:
		return 9
	case CategoryHigh:
		return 7
	case CategoryStandard:
		return 5
	default:
		return 2
	}
}

// ValidFor reports whether the category is allowed in the given lane.
// Priority items are never LOW; other items are never CRITICAL.
func (c Category) ValidFor(lane Lane) bool {
	switch lane {
	case LanePriority:
		return c == CategoryCritical || c == CategoryHigh || c == CategoryStandard
	default:
		return c == CategoryHigh || c == CategoryStandard || c == CategoryLow
	}
}

// ClassificationResult is the normalized outcome of classifying one message.
// Every field is populated; consumers never see a partial result.
type ClassificationResult struct {
	Lane            Lane
	Category        Category
	ImportanceScore int
	MatchScore      *float64 // 0-100, only present for priority lane
	Summary         string
	ActionRequired  string
	Deadlines       string
	RisksLeverage   string
	SenderGoals     string
	UrgencySignals  string
	ReplyDraft      string
	ExtractedInfo   string // JSON blob
	APIError        bool
}
