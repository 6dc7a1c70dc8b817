package analytics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Dimension is a grouping axis for interaction metrics.
type Dimension string

const (
	DimensionUniversity Dimension = "university"
	DimensionCountry    Dimension = "country"
	DimensionState      Dimension = "state"
	DimensionCity       Dimension = "city"
)

// Dimensions lists the four supported dimensions.
var Dimensions = []Dimension{DimensionUniversity, DimensionCountry, DimensionState, DimensionCity}

// ParseDimension validates a dimension name taken from user input.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(s))); d {
	case DimensionUniversity, DimensionCountry, DimensionState, DimensionCity:
		return d, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// DimensionMetric is the interaction rollup for one entity of a dimension.
type DimensionMetric struct {
	Entity string `json:"entity"`
	// State disambiguates same-named cities; empty for other dimensions.
	State     string `json:"state,omitempty"`
	Searches  int    `json:"searches"`
	Clicks    int    `json:"clicks"`
	Instagram int    `json:"instagram"`
	Maps      int    `json:"maps"`
	// TotalInteractions counts contributing events, one per event.
	TotalInteractions int `json:"totalInteractions"`
	// LastActivity is nil when no contributing event carried a timestamp.
	LastActivity *time.Time `json:"lastActivity,omitempty"`
}

type entityKey struct {
	entity string
	state  string
}

func (k entityKey) less(o entityKey) bool {
	if k.entity != o.entity {
		return k.entity < o.entity
	}
	return k.state < o.state
}

// Aggregate groups the batch into per-entity metric rows for one dimension.
// Rows are ordered by TotalInteractions descending, ties by entity (then state)
// ascending, so the result does not depend on input order.
func Aggregate(events []Event, dim Dimension) []DimensionMetric {
	rows := make(map[entityKey]*DimensionMetric)

	for _, e := range events {
		key, counter, ok := contribution(e, dim)
		if !ok {
			continue
		}

		m, exists := rows[key]
		if !exists {
			m = &DimensionMetric{Entity: key.entity, State: key.state}
			rows[key] = m
		}
		counter(m)
		m.TotalInteractions++

		// Stored in UTC so equal instants from different zones serialize alike.
		if e.HasTimestamp() && (m.LastActivity == nil || e.CreatedAt.After(*m.LastActivity)) {
			t := e.CreatedAt.UTC()
			m.LastActivity = &t
		}
	}

	keys := make([]entityKey, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := rows[keys[i]], rows[keys[j]]
		if a.TotalInteractions != b.TotalInteractions {
			return a.TotalInteractions > b.TotalInteractions
		}
		return keys[i].less(keys[j])
	})

	out := make([]DimensionMetric, 0, len(keys))
	for _, k := range keys {
		out = append(out, *rows[k])
	}
	return out
}

// AggregateAll runs Aggregate for every dimension concurrently over the same
// read-only batch. Each goroutine owns its result map.
func AggregateAll(events []Event) map[Dimension][]DimensionMetric {
	results := make([][]DimensionMetric, len(Dimensions))

	var wg sync.WaitGroup
	for i, dim := range Dimensions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = Aggregate(events, dim)
		}()
	}
	wg.Wait()

	out := make(map[Dimension][]DimensionMetric, len(Dimensions))
	for i, dim := range Dimensions {
		out[dim] = results[i]
	}
	return out
}

// contribution decides whether e counts toward dim and, if so, under which key
// and which sub-counter.
func contribution(e Event, dim Dimension) (entityKey, func(*DimensionMetric), bool) {
	var (
		value   string
		loc     Location
		counter func(*DimensionMetric)
	)

	switch p := e.Payload.(type) {
	case SearchPayload:
		if p.SearchType != string(dim) {
			return entityKey{}, nil, false
		}
		value, loc = p.Query, p.Location
		counter = func(m *DimensionMetric) { m.Searches++ }
	case GroupClickPayload:
		value, loc = p.Location.Field(dim), p.Location
		counter = func(m *DimensionMetric) { m.Clicks++ }
	case ButtonClickPayload:
		switch p.ButtonType {
		case ButtonInstagram:
			counter = func(m *DimensionMetric) { m.Instagram++ }
		case ButtonMaps:
			counter = func(m *DimensionMetric) { m.Maps++ }
		default:
			return entityKey{}, nil, false
		}
		value, loc = p.Location.Field(dim), p.Location
	default:
		return entityKey{}, nil, false
	}

	value = normalizeEntity(value)
	if value == "" {
		return entityKey{}, nil, false
	}
	key := entityKey{entity: value}
	if dim == DimensionCity {
		key.state = normalizeEntity(loc.State)
	}
	return key, counter, true
}

// normalizeEntity is the single normalization rule applied to every dimension:
// surrounding whitespace is trimmed, case is preserved.
func normalizeEntity(s string) string {
	return strings.TrimSpace(s)
}
