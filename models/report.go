package models

import "time"

// PlatformMetrics aggregates per-platform counters for one scan.
type PlatformMetrics struct {
	Attempted   int     `json:"attempted"`
	Normalized  int     `json:"normalized"`
	Rejected    int     `json:"rejected"`
	Persisted   int     `json:"persisted"`
	NewCount    int     `json:"newCount"`
	UpdateCount int     `json:"updateCount"`
	Errors      int     `json:"errors"`
	AvgPrice    float64 `json:"avgPrice"`
}

// ScanReport is emitted after each area scan for the monitoring consumer.
type ScanReport struct {
	Area                  string                      `json:"area"`
	StartedAt             time.Time                   `json:"startedAt"`
	TotalListings         int                         `json:"totalListings"`
	NewListings           int                         `json:"newListings"`
	UpdatedListings       int                         `json:"updatedListings"`
	ErrorCount            int                         `json:"errorCount"`
	RateLimitHits         int                         `json:"rateLimitHits"`
	ProcessingTimeSeconds float64                     `json:"processingTimeSeconds"`
	PerPlatformMetrics    map[string]*PlatformMetrics `json:"perPlatformMetrics"`
}

// NewScanReport returns an empty report for the given area.
func NewScanReport(area string) *ScanReport {
	return &ScanReport{
		Area:               area,
		StartedAt:          time.Now(),
		PerPlatformMetrics: make(map[string]*PlatformMetrics),
	}
}

// Platform returns the metrics bucket for a platform, creating it on first use.
func (r *ScanReport) Platform(p Platform) *PlatformMetrics {
	m, ok := r.PerPlatformMetrics[string(p)]
	if !ok {
		m = &PlatformMetrics{}
		r.PerPlatformMetrics[string(p)] = m
	}
	return m
}
