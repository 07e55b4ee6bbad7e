package domain

import "math"

// MaxLeadScore caps the additive score.
const MaxLeadScore = 100

// tier awards points when a value reaches min. Tiers are checked in order.
type tier struct {
	min    int
	points int
}

var (
	sessionTiers    = []tier{{5, 25}, {3, 15}, {2, 10}, {math.MinInt, 5}}
	engagementTiers = []tier{{300, 25}, {120, 20}, {60, 15}, {30, 10}, {math.MinInt, 5}}
	pageTiers       = []tier{{5, 20}, {3, 15}, {2, 10}, {math.MinInt, 5}}
	complexityTiers = []tier{{8, 15}, {5, 10}, {3, 5}}
)

const (
	utmSourcePoints = 20
	emailPoints     = 5
	phonePoints     = 10
	namePoints      = 5
)

// ScoreBreakdown itemizes the points awarded per signal.
type ScoreBreakdown struct {
	UTMSource  int `json:"utm_source"`
	Sessions   int `json:"sessions"`
	Engagement int `json:"engagement"`
	Pages      int `json:"pages"`
	Complexity int `json:"form_complexity"`
	Contact    int `json:"contact"`
	// Total is the capped sum.
	Total int `json:"total"`
}

// Evaluate scores a submission and itemizes the result.
func Evaluate(f EngagementFactors, c Contact) ScoreBreakdown {
	b := ScoreBreakdown{
		Sessions:   award(sessionTiers, f.SessionCount),
		Engagement: award(engagementTiers, f.EngagedDurationSeconds),
		Pages:      award(pageTiers, f.PagesVisited),
		Complexity: award(complexityTiers, f.FormComplexity),
	}
	if f.HasUTMSource {
		b.UTMSource = utmSourcePoints
	}
	if c.Email != nil {
		b.Contact += emailPoints
	}
	if c.Phone != nil {
		b.Contact += phonePoints
	}
	if c.Name != nil {
		b.Contact += namePoints
	}

	sum := b.UTMSource + b.Sessions + b.Engagement + b.Pages + b.Complexity + b.Contact
	b.Total = min(sum, MaxLeadScore)
	return b
}

// Score returns the lead score in [0, 100].
func Score(f EngagementFactors, c Contact) int {
	return Evaluate(f, c).Total
}

func award(tiers []tier, value int) int {
	for _, t := range tiers {
		if value >= t.min {
			return t.points
		}
	}
	return 0
}
