package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_ClickAndInstagramOnSameUniversity(t *testing.T) {
	events := []Event{
		groupClick("UFPE", time.Time{}),
		buttonClick(ButtonInstagram, Location{University: "UFPE"}),
	}

	got := Aggregate(events, DimensionUniversity)

	require.Len(t, got, 1)
	assert.Equal(t, DimensionMetric{Entity: "UFPE", Clicks: 1, Instagram: 1, TotalInteractions: 2}, got[0])
	assert.Nil(t, got[0].LastActivity)
}

func TestAggregate_InclusionRules(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		dim    Dimension
		expect *DimensionMetric
	}{
		{
			name:   "search matching dimension uses query",
			event:  searchEvent("  UFPE ", "university", time.Time{}),
			dim:    DimensionUniversity,
			expect: &DimensionMetric{Entity: "UFPE", Searches: 1, TotalInteractions: 1},
		},
		{
			name:  "search of another dimension is ignored",
			event: searchEvent("Recife", "city", time.Time{}),
			dim:   DimensionUniversity,
		},
		{
			name:  "search without type is ignored",
			event: searchEvent("UFPE", SearchTypeAll, time.Time{}),
			dim:   DimensionUniversity,
		},
		{
			name:   "group click uses dimension field",
			event:  Event{Payload: GroupClickPayload{Location: Location{Country: "Brazil"}}},
			dim:    DimensionCountry,
			expect: &DimensionMetric{Entity: "Brazil", Clicks: 1, TotalInteractions: 1},
		},
		{
			name:  "group click without dimension field is ignored",
			event: groupClick("UFPE", time.Time{}),
			dim:   DimensionState,
		},
		{
			name:   "maps button counts maps",
			event:  buttonClick(ButtonMaps, Location{State: "PE"}),
			dim:    DimensionState,
			expect: &DimensionMetric{Entity: "PE", Maps: 1, TotalInteractions: 1},
		},
		{
			name:  "other buttons are ignored",
			event: buttonClick("whatsapp", Location{State: "PE"}),
			dim:   DimensionState,
		},
		{
			name:  "whitespace-only entity is ignored",
			event: groupClick("   ", time.Time{}),
			dim:   DimensionUniversity,
		},
		{
			name:  "suggestion select never contributes",
			event: suggestion(base),
			dim:   DimensionUniversity,
		},
		{
			name:  "location use never contributes",
			event: Event{Payload: LocationUsePayload{Location: Location{City: "Recife"}}},
			dim:   DimensionCity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate([]Event{tt.event}, tt.dim)
			if tt.expect == nil {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, *tt.expect, got[0])
		})
	}
}

func TestAggregate_CityKeyedByState(t *testing.T) {
	events := []Event{
		buttonClick(ButtonMaps, Location{City: "Springfield", State: "IL"}),
		buttonClick(ButtonMaps, Location{City: "Springfield", State: " IL "}),
		buttonClick(ButtonMaps, Location{City: "Springfield", State: "MO"}),
		{Payload: SearchPayload{Query: "Springfield", SearchType: "city", Location: Location{State: "MO"}}},
	}

	got := Aggregate(events, DimensionCity)

	require.Len(t, got, 2)
	assert.Equal(t, "Springfield", got[0].Entity)
	assert.Equal(t, "IL", got[0].State)
	assert.Equal(t, 2, got[0].Maps)
	assert.Equal(t, "MO", got[1].State)
	assert.Equal(t, 1, got[1].Searches)
	assert.Equal(t, 1, got[1].Maps)
}

func TestAggregate_CaseSensitiveEntities(t *testing.T) {
	got := Aggregate([]Event{groupClick("UFPE", time.Time{}), groupClick("ufpe", time.Time{})}, DimensionUniversity)
	assert.Len(t, got, 2)
}

func TestAggregate_LastActivity(t *testing.T) {
	older := base.Add(-48 * time.Hour)
	events := []Event{
		groupClick("UFPE", older),
		groupClick("UFPE", time.Time{}),
		groupClick("UFPE", base),
		groupClick("UFRPE", time.Time{}),
	}

	got := Aggregate(events, DimensionUniversity)

	require.Len(t, got, 2)
	require.NotNil(t, got[0].LastActivity)
	assert.True(t, got[0].LastActivity.Equal(base))
	assert.Nil(t, got[1].LastActivity, "entity without timestamps keeps unknown activity")
}

func TestAggregate_LastActivitySameInstantOtherZone(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	utc, local := groupClick("UFPE", base), groupClick("UFPE", base.In(brt))

	a := Aggregate([]Event{utc, local}, DimensionUniversity)
	b := Aggregate([]Event{local, utc}, DimensionUniversity)

	require.Len(t, a, 1)
	require.NotNil(t, a[0].LastActivity)
	assert.Equal(t, time.UTC, a[0].LastActivity.Location())
	assert.Equal(t, a, b, "input order does not change the result")
}

func TestAggregate_OrderingByInteractionsThenEntity(t *testing.T) {
	events := []Event{
		groupClick("C", time.Time{}),
		groupClick("B", time.Time{}),
		groupClick("A", time.Time{}),
		groupClick("C", time.Time{}),
	}

	got := Aggregate(events, DimensionUniversity)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{got[0].Entity, got[1].Entity, got[2].Entity})
}

func TestAggregate_TotalCountsContributingEvents(t *testing.T) {
	events := mixedBatch()

	for _, dim := range Dimensions {
		contributing := 0
		for _, e := range events {
			if _, _, ok := contribution(e, dim); ok {
				contributing++
			}
		}

		sum := 0
		for _, m := range Aggregate(events, dim) {
			sum += m.TotalInteractions
			assert.Equal(t, m.Searches+m.Clicks+m.Instagram+m.Maps, m.TotalInteractions,
				"each contributing event increments exactly one counter (%s/%s)", dim, m.Entity)
		}
		assert.Equal(t, contributing, sum, "dimension %s", dim)
	}
}

func TestAggregate_EmptyBatch(t *testing.T) {
	for _, dim := range Dimensions {
		got := Aggregate(nil, dim)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestAggregateAll_MatchesSingleDimension(t *testing.T) {
	events := mixedBatch()
	all := AggregateAll(events)

	require.Len(t, all, len(Dimensions))
	for _, dim := range Dimensions {
		assert.Equal(t, Aggregate(events, dim), all[dim], "dimension %s", dim)
	}
}

func TestParseDimension(t *testing.T) {
	d, err := ParseDimension(" City ")
	require.NoError(t, err)
	assert.Equal(t, DimensionCity, d)

	_, err = ParseDimension("campus")
	assert.Error(t, err)
}
