package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(insights []Insight) []string {
	out := make([]string, 0, len(insights))
	for _, in := range insights {
		out = append(out, in.Title)
	}
	return out
}

func repeat(e Event, n int) []Event {
	out := make([]Event, n)
	for i := range out {
		out[i] = e
	}
	return out
}

func TestGenerateInsights_EmptyBatchOnlyDeviceInsight(t *testing.T) {
	got := GenerateInsights(nil, base)

	require.Len(t, got, 1)
	assert.Equal(t, TitleDeviceInsights, got[0].Title)
	assert.Equal(t, "blue", got[0].Color)
}

func TestGenerateInsights_ZeroResultThreshold(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		present bool
	}{
		{"two searches", 2, false},
		{"three searches", 3, true},
		{"four searches", 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(GenerateInsights(repeat(zeroResultSearch("chess"), tt.count), base))
			if tt.present {
				assert.Contains(t, got, TitleZeroResults)
			} else {
				assert.NotContains(t, got, TitleZeroResults)
			}
		})
	}

	t.Run("searches without a result count are not zero-result", func(t *testing.T) {
		got := titles(GenerateInsights(repeat(searchEvent("chess", SearchTypeAll, time.Time{}), 4), base))
		assert.NotContains(t, got, TitleZeroResults)
	})
}

func TestGenerateInsights_PopularTerm(t *testing.T) {
	events := append(repeat(searchEvent("robotics", SearchTypeAll, time.Time{}), 5),
		repeat(searchEvent("chess", SearchTypeAll, time.Time{}), 5)...)

	got := GenerateInsights(events, base)

	require.Equal(t, TitlePopularTerm, got[0].Title)
	assert.Contains(t, got[0].Description, `"chess"`, "ties go to the alphabetically first term")
	assert.Contains(t, got[0].Description, "5 times")

	below := GenerateInsights(repeat(searchEvent("robotics", SearchTypeAll, time.Time{}), 4), base)
	assert.NotContains(t, titles(below), TitlePopularTerm)
}

func TestGenerateInsights_SearchTrend(t *testing.T) {
	day := 24 * time.Hour
	weeks := func(thisWeek, lastWeek int) []Event {
		out := repeat(searchEvent("q", SearchTypeAll, base.Add(-day)), thisWeek)
		out = append(out, repeat(searchEvent("p", SearchTypeAll, base.Add(-8*day)), lastWeek)...)
		// clicks never affect the search trend
		return append(out, repeat(groupClick("UFPE", base.Add(-day)), 20)...)
	}

	tests := []struct {
		name     string
		events   []Event
		expected string
	}{
		{"growth at threshold", weeks(6, 5), TitleSearchGrowth},
		{"decline at threshold", weeks(4, 5), TitleSearchDecline},
		{"flat", weeks(3, 3), ""},
		{"below threshold", weeks(4, 4), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateInsights(tt.events, base)
			if tt.expected == "" {
				assert.NotContains(t, titles(got), TitleSearchGrowth)
				assert.NotContains(t, titles(got), TitleSearchDecline)
				return
			}
			assert.Equal(t, tt.expected, got[0].Title)
		})
	}
}

func TestGenerateInsights_TopUniversity(t *testing.T) {
	events := []Event{
		groupClick("UFRPE", time.Time{}),
		groupClick(" UFPE", time.Time{}),
		groupClick("UFPE ", time.Time{}),
		groupClick("UNICAP", time.Time{}),
		{Payload: GroupClickPayload{Location: Location{City: "Recife"}}},
	}

	got := GenerateInsights(events, base)

	require.Len(t, got, 2)
	assert.Equal(t, TitleTopUniversity, got[0].Title)
	assert.Contains(t, got[0].Description, "UFPE leads group clicks with 2 interactions")
	assert.Equal(t, "green", got[0].Color)
}

func TestGenerateInsights_RuleOrder(t *testing.T) {
	var events []Event
	events = append(events, repeat(searchEvent("robotics", SearchTypeAll, base.Add(-time.Hour)), 5)...)
	events = append(events, repeat(zeroResultSearch("chess"), 3)...)
	events = append(events, groupClick("UFPE", base))

	assert.Equal(t, []string{
		TitleSearchGrowth,
		TitlePopularTerm,
		TitleZeroResults,
		TitleTopUniversity,
		TitleDeviceInsights,
	}, titles(GenerateInsights(events, base)))
}
