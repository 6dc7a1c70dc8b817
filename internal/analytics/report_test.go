package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_PermutationInvariant(t *testing.T) {
	events := mixedBatch()
	opts := Options{Now: base}
	want := Analyze(events, opts)

	for seed := int64(1); seed <= 5; seed++ {
		got := Analyze(shuffled(events, seed), opts)
		assert.Equal(t, want, got, "seed %d", seed)
	}
}

func TestAnalyze_EmptyBatch(t *testing.T) {
	got := Analyze(nil, Options{Now: base})

	assert.Len(t, got.Dimensions, len(Dimensions))
	for _, dim := range Dimensions {
		assert.Empty(t, got.Dimensions[dim])
	}
	assert.Empty(t, got.Daily)
	assert.Equal(t, Stats{MostActiveHour: NoData, TopDay: NoData}, got.Stats)
	assert.Equal(t, []string{TitleDeviceInsights}, titles(got.Insights))
	assert.Zero(t, got.EventCount)
}

func TestAnalyze_DoesNotMutateBatch(t *testing.T) {
	events := mixedBatch()
	snapshot := make([]Event, len(events))
	copy(snapshot, events)

	Analyze(events, Options{Now: base})

	assert.Equal(t, snapshot, events)
}

func TestBuildDailySeries(t *testing.T) {
	events := []Event{
		searchEvent("q", SearchTypeAll, base),
		groupClick("UFPE", base.Add(-24*time.Hour)),
		suggestion(base.Add(2 * time.Hour)),
		{Payload: LocationUsePayload{}, CreatedAt: base},
		{Payload: ButtonClickPayload{ButtonType: ButtonMaps}, CreatedAt: base.AddDate(0, 0, -3)},
		groupClick("UFPE", base.Add(-2*time.Hour)),
		searchEvent("no time", SearchTypeAll, time.Time{}),
	}

	got := BuildDailySeries(events, nil)

	assert.Equal(t, []DailyActivity{
		{Date: "2024-03-17", Total: 1},
		{Date: "2024-03-19", GroupClick: 1, Total: 1},
		{Date: "2024-03-20", Search: 1, GroupClick: 1, SuggestionSelect: 1, Total: 4},
	}, got)
}
