package board

import "time"

const (
	DateLayout             = "2006-01-02"
	DefaultMaxLookbackDays = 30
)

// Variant is one (category, sort field) request shape accepted by the board API.
type Variant struct {
	Category  string `json:"category"`
	SortField string `json:"sort_field"`
}

// DefaultVariants are tried in this order on every date.
var DefaultVariants = []Variant{
	{Category: "jm", SortField: "jmr"},
	{Category: "pt", SortField: "jmr"},
	{Category: "jg", SortField: "jmr"},
	{Category: "jm", SortField: "zdf"},
}

// IsTradingDay is a weekday check. Exchange holidays are not modelled.
func IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// Candidate is one (date, variant) probe.
type Candidate struct {
	Date      time.Time
	DateIndex int
	Variant   Variant
}

// CandidatePlan yields probes newest date first, variants in priority order.
// The window holds exactly maxDays distinct calendar dates.
type CandidatePlan struct {
	dates    []time.Time
	variants []Variant
	di       int
	vi       int
}

func NewCandidatePlan(today time.Time, maxDays int, probeToday bool, variants []Variant) *CandidatePlan {
	if maxDays <= 0 {
		maxDays = DefaultMaxLookbackDays
	}
	if len(variants) == 0 {
		variants = DefaultVariants
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if !probeToday {
		day = day.AddDate(0, 0, -1)
	}
	dates := make([]time.Time, 0, maxDays)
	for i := 0; i < maxDays; i++ {
		dates = append(dates, day.AddDate(0, 0, -i))
	}
	return &CandidatePlan{dates: dates, variants: variants}
}

func (p *CandidatePlan) Next() (Candidate, bool) {
	if p.vi >= len(p.variants) {
		p.di++
		p.vi = 0
	}
	if p.di >= len(p.dates) {
		return Candidate{}, false
	}
	c := Candidate{Date: p.dates[p.di], DateIndex: p.di, Variant: p.variants[p.vi]}
	p.vi++
	return c, true
}

// SkipDate drops the remaining variants of the current date.
func (p *CandidatePlan) SkipDate() {
	p.vi = len(p.variants)
}
