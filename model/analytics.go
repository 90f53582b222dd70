package model

import "time"

// AnalyticsAggregate holds the global view counters. Remote copies are
// mutated exclusively through atomic increments; the local fallback
// store keeps one of these on disk for degraded environments.
type AnalyticsAggregate struct {
	TotalViews    int64            `json:"totalViews"`
	PageViews     map[string]int64 `json:"pageViews"`
	ProductViews  map[string]int64 `json:"productViews"`
	CategoryViews map[string]int64 `json:"categoryViews"`
	DailyStats    map[string]int64 `json:"dailyStats"` // keyed by "2006-01-02"
}

// NewAnalyticsAggregate returns an aggregate with all maps allocated.
func NewAnalyticsAggregate() AnalyticsAggregate {
	return AnalyticsAggregate{
		PageViews:     make(map[string]int64),
		ProductViews:  make(map[string]int64),
		CategoryViews: make(map[string]int64),
		DailyStats:    make(map[string]int64),
	}
}

// SessionRecord is one browser-tab lifetime. Pages is append-only and
// deduplicated; PageCount increments on every view, so
// PageCount >= len(Pages) always holds.
type SessionRecord struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	StartTime time.Time `json:"startTime"`
	Pages     []string  `json:"pages"`
	PageCount int64     `json:"pageCount"`
}

// EventRecord is a named custom event with an arbitrary payload.
type EventRecord struct {
	EventID   string                 `json:"eventId"`
	Name      string                 `json:"name"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	SessionID string                 `json:"sessionId,omitempty"`
	UserID    string                 `json:"userId,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// TimeSeriesPoint represents a point in time-series data
type TimeSeriesPoint struct {
	Date  string `json:"date"`  // Date in "YYYY-MM-DD" format
	Value int64  `json:"value"` // Number of views on this date
}

// ProductStats represents view statistics for a single product
type ProductStats struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Views     int64   `json:"views"`
}

// AnalyticsSummary is what the admin dashboard reads back: the merged
// counters plus derived values (unique visitors, top products, a daily
// series for the last N days).
type AnalyticsSummary struct {
	TotalViews     int64             `json:"totalViews"`
	UniqueVisitors int64             `json:"uniqueVisitors"`
	PageViews      map[string]int64  `json:"pageViews"`
	ProductViews   map[string]int64  `json:"productViews"`
	CategoryViews  map[string]int64  `json:"categoryViews"`
	DailySeries    []TimeSeriesPoint `json:"dailySeries"`
	TopProducts    []ProductStats    `json:"topProducts"`
	Degraded       bool              `json:"degraded"` // true when served from the local fallback
	GeneratedAt    time.Time         `json:"generatedAt"`
}
