package analytics

// Report is everything the dashboard renders for one batch.
type Report struct {
	Dimensions map[Dimension][]DimensionMetric `json:"dimensions"`
	Daily      []DailyActivity                 `json:"daily"`
	Stats      Stats                           `json:"stats"`
	Insights   []Insight                       `json:"insights"`
	// EventCount is the size of the analysed batch.
	EventCount int `json:"eventCount"`
}

// Analyze runs every component of the engine over the batch.
func Analyze(events []Event, opts Options) Report {
	return Report{
		Dimensions: AggregateAll(events),
		Daily:      BuildDailySeries(events, opts.Location),
		Stats:      Summarize(events, opts),
		Insights:   GenerateInsights(events, opts.Now),
		EventCount: len(events),
	}
}
