package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeeklyGrowth(t *testing.T) {
	day := 24 * time.Hour
	clicks := func(offsets ...time.Duration) []Event {
		var out []Event
		for _, o := range offsets {
			out = append(out, groupClick("UFPE", base.Add(-o)))
		}
		return out
	}

	tests := []struct {
		name     string
		events   []Event
		expected int
	}{
		{"empty batch", nil, 0},
		{"no previous week, some this week", clicks(day), 100},
		{"equal weeks", clicks(day, 2*day, 8*day, 9*day), 0},
		{"three vs two", clicks(day, 2*day, 3*day, 8*day, 9*day), 50},
		{"one vs three", clicks(day, 8*day, 9*day, 10*day), -67},
		{"window edges", clicks(0, 7*day, 13*day, 14*day), 0},
		{"future and stale events ignored", append(clicks(day, 8*day), groupClick("UFPE", base.Add(day)), groupClick("UFPE", base.Add(-15*day))), 0},
		{"untimestamped events ignored", append(clicks(day), groupClick("UFPE", time.Time{})), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeeklyGrowth(tt.events, base))
		})
	}
}

func TestMostActiveHour(t *testing.T) {
	at := func(hours ...int) []Event {
		var out []Event
		for _, h := range hours {
			out = append(out, groupClick("UFPE", time.Date(2024, 3, 20, h, 15, 0, 0, time.UTC)))
		}
		return out
	}

	tests := []struct {
		name     string
		events   []Event
		expected string
	}{
		{"empty batch", nil, NoData},
		{"only untimestamped", []Event{groupClick("UFPE", time.Time{})}, NoData},
		{"midnight", at(0), "12 AM"},
		{"noon", at(12, 12, 3), "12 PM"},
		{"evening", at(23), "11 PM"},
		{"tie keeps earliest hour", at(15, 9, 15, 9), "9 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MostActiveHour(tt.events, nil))
		})
	}
}

func TestTopDay(t *testing.T) {
	monday := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 3, 23, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 3, 24, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, NoData, TopDay(nil, nil))
	assert.Equal(t, "Monday", TopDay([]Event{groupClick("A", monday), groupClick("A", monday), groupClick("A", saturday)}, nil))
	assert.Equal(t, "Sunday", TopDay([]Event{groupClick("A", saturday), groupClick("A", sunday)}, nil), "tie keeps the earliest weekday")
}

func TestCalendarUsesConfiguredLocation(t *testing.T) {
	recife := time.FixedZone("BRT", -3*60*60)
	late := time.Date(2024, 3, 20, 2, 0, 0, 0, time.UTC) // 23:00 on the 19th in Recife
	events := []Event{groupClick("UFPE", late)}

	assert.Equal(t, "2 AM", MostActiveHour(events, nil))
	assert.Equal(t, "11 PM", MostActiveHour(events, recife))
	assert.Equal(t, "Wednesday", TopDay(events, nil))
	assert.Equal(t, "Tuesday", TopDay(events, recife))

	series := BuildDailySeries(events, recife)
	if assert.Len(t, series, 1) {
		assert.Equal(t, "2024-03-19", series[0].Date)
	}
}

func TestActivitySpikes(t *testing.T) {
	start := base.AddDate(0, 0, -10)

	tests := []struct {
		name     string
		events   []Event
		expected int
	}{
		{"empty batch", nil, 0},
		// nine days of 10 and one of 40: mean 13, stddev 9, threshold 31
		{"one spike", dailyBatch(start, 10, 10, 10, 10, 40, 10, 10, 10, 10, 10), 1},
		{"flat series", dailyBatch(start, 5, 5, 5, 5, 5), 0},
		{"fewer than three days", dailyBatch(start, 1, 50), 0},
		{"near-mean noise", dailyBatch(start, 9, 11, 10, 9, 11, 10, 10, 9, 11, 10), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ActivitySpikes(tt.events, nil))
		})
	}
}

func TestNextWeekForecast(t *testing.T) {
	start := base.AddDate(0, 0, -14)
	flat := []int{10, 10, 10, 10, 10, 10, 10}

	tests := []struct {
		name     string
		lastWeek []int
		prefix   []int
		expected int
	}{
		{"growth", []int{14, 14, 14, 14, 14, 14, 14}, flat, 40},
		{"stable", flat, flat, 0},
		{"clamped high", []int{40, 40, 40, 40, 40, 40, 40}, flat, 100},
		{"clamped low", []int{1, 1, 1, 1, 1, 1, 4}, flat, -50},
		{"only last fourteen days count", flat, append([]int{100, 100}, flat...), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := append(append([]int{}, tt.prefix...), tt.lastWeek...)
			assert.Equal(t, tt.expected, NextWeekForecast(dailyBatch(start, counts...), nil))
		})
	}

	t.Run("needs fourteen days", func(t *testing.T) {
		assert.Equal(t, 0, NextWeekForecast(dailyBatch(start, 1, 1, 1, 1, 1, 1, 1, 9, 9, 9, 9, 9, 9), nil))
	})
}

func TestRetentionRate(t *testing.T) {
	tests := []struct {
		name     string
		events   []Event
		expected int
	}{
		{"empty batch", nil, 0},
		{"no session ids", []Event{suggestion(base), suggestion(base.AddDate(0, 0, -1))}, 0},
		{
			name: "one retained of two",
			events: []Event{
				inSession(suggestion(base), "a"),
				inSession(suggestion(base.AddDate(0, 0, -1)), "a"),
				inSession(suggestion(base), "b"),
				inSession(suggestion(base.Add(-time.Hour)), "b"),
			},
			expected: 50,
		},
		{
			name: "one retained of three rounds",
			events: []Event{
				inSession(suggestion(base), "a"),
				inSession(suggestion(base.AddDate(0, 0, -3)), "a"),
				inSession(suggestion(base), "b"),
				inSession(suggestion(base), "c"),
			},
			expected: 33,
		},
		{
			name: "untimestamped events do not extend a session",
			events: []Event{
				inSession(suggestion(base), "a"),
				inSession(suggestion(time.Time{}), "a"),
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RetentionRate(tt.events, nil))
		})
	}
}

func TestRecommendationScore(t *testing.T) {
	batch := func(searches, selects int) []Event {
		var out []Event
		for i := 0; i < searches; i++ {
			out = append(out, searchEvent("q", SearchTypeAll, base))
		}
		for i := 0; i < selects; i++ {
			out = append(out, suggestion(base))
		}
		return out
	}

	tests := []struct {
		name              string
		searches, selects int
		expected          int
	}{
		{"no searches", 0, 4, 0},
		{"no selects", 5, 0, 0},
		{"twenty percent", 10, 2, 50},
		{"rounded", 3, 1, 83},
		{"capped", 10, 5, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RecommendationScore(batch(tt.searches, tt.selects)))
		})
	}
}

func TestSummarize_EmptyBatch(t *testing.T) {
	got := Summarize(nil, Options{Now: base})
	assert.Equal(t, Stats{MostActiveHour: NoData, TopDay: NoData}, got)
}
