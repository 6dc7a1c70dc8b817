package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Severity tags an insight for display.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Color is the badge color the dashboard uses for the severity.
func (s Severity) Color() string {
	switch s {
	case SeveritySuccess:
		return "green"
	case SeverityWarning:
		return "orange"
	default:
		return "blue"
	}
}

// Insight is a short human-readable observation with a suggested next step.
type Insight struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Action      string   `json:"action"`
	Severity    Severity `json:"severity"`
	Color       string   `json:"color"`
}

// Rule thresholds.
const (
	searchTrendThreshold = 20
	popularTermMinCount  = 5
	zeroResultMinCount   = 3
)

// Insight titles, stable enough for clients to key on.
const (
	TitleSearchGrowth   = "Search Volume Growing"
	TitleSearchDecline  = "Search Volume Declining"
	TitlePopularTerm    = "Popular Search Term"
	TitleZeroResults    = "Zero Result Searches"
	TitleTopUniversity  = "Most Clicked University"
	TitleDeviceInsights = "Device Insights"
)

type insightRule func(events []Event, now time.Time) (Insight, bool)

// insightRules run in order; each contributes at most one insight.
var insightRules = []insightRule{
	searchTrendRule,
	popularTermRule,
	zeroResultRule,
	topUniversityRule,
	deviceRule,
}

// GenerateInsights evaluates the fixed rule list against the batch.
func GenerateInsights(events []Event, now time.Time) []Insight {
	out := make([]Insight, 0, len(insightRules))
	for _, rule := range insightRules {
		if in, ok := rule(events, now); ok {
			in.Color = in.Severity.Color()
			out = append(out, in)
		}
	}
	return out
}

func isSearch(e Event) bool { return e.Kind() == KindSearch }

func searchTrendRule(events []Event, now time.Time) (Insight, bool) {
	thisWeek, lastWeek := weeklyCounts(events, now, isSearch)
	change := percentChange(thisWeek, lastWeek)

	switch {
	case change >= searchTrendThreshold:
		return Insight{
			Title:       TitleSearchGrowth,
			Description: fmt.Sprintf("Searches grew %d%% compared to the previous week (%d vs %d).", change, thisWeek, lastWeek),
			Action:      "Feature trending groups on the home page to convert the extra traffic.",
			Severity:    SeveritySuccess,
		}, true
	case change <= -searchTrendThreshold:
		return Insight{
			Title:       TitleSearchDecline,
			Description: fmt.Sprintf("Searches dropped %d%% compared to the previous week (%d vs %d).", -change, thisWeek, lastWeek),
			Action:      "Review recent changes and promote the directory with group leaders.",
			Severity:    SeverityWarning,
		}, true
	}
	return Insight{}, false
}

func popularTermRule(events []Event, _ time.Time) (Insight, bool) {
	tally := make(map[string]int)
	for _, e := range events {
		p, ok := e.Payload.(SearchPayload)
		if !ok {
			continue
		}
		q := strings.TrimSpace(p.Query)
		if q == "" {
			continue
		}
		tally[q]++
	}

	term, count := topOf(tally)
	if count < popularTermMinCount {
		return Insight{}, false
	}
	return Insight{
		Title:       TitlePopularTerm,
		Description: fmt.Sprintf("%q was searched %d times.", term, count),
		Action:      "Make sure groups matching this term have complete, up-to-date profiles.",
		Severity:    SeverityInfo,
	}, true
}

func zeroResultRule(events []Event, _ time.Time) (Insight, bool) {
	zero := 0
	for _, e := range events {
		p, ok := e.Payload.(SearchPayload)
		if ok && p.ResultCount != nil && *p.ResultCount == 0 {
			zero++
		}
	}
	if zero < zeroResultMinCount {
		return Insight{}, false
	}
	return Insight{
		Title:       TitleZeroResults,
		Description: fmt.Sprintf("%d searches returned no results.", zero),
		Action:      "Check the unmatched queries and register the missing groups or aliases.",
		Severity:    SeverityWarning,
	}, true
}

func topUniversityRule(events []Event, _ time.Time) (Insight, bool) {
	tally := make(map[string]int)
	for _, e := range events {
		p, ok := e.Payload.(GroupClickPayload)
		if !ok {
			continue
		}
		u := normalizeEntity(p.University)
		if u == "" {
			continue
		}
		tally[u]++
	}

	name, count := topOf(tally)
	if count == 0 {
		return Insight{}, false
	}
	return Insight{
		Title:       TitleTopUniversity,
		Description: fmt.Sprintf("%s leads group clicks with %d interactions.", name, count),
		Action:      "Reach out to its group leaders to share what is working.",
		Severity:    SeveritySuccess,
	}, true
}

// deviceRule always fires; events do not carry a device class yet.
func deviceRule([]Event, time.Time) (Insight, bool) {
	return Insight{
		Title:       TitleDeviceInsights,
		Description: "Most visitors browse the directory from mobile devices.",
		Action:      "Prioritise the mobile layout when changing group pages.",
		Severity:    SeverityInfo,
	}, true
}

// topOf returns the key with the highest count, ties broken by key ascending.
func topOf(tally map[string]int) (string, int) {
	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if tally[k] > bestCount {
			best, bestCount = k, tally[k]
		}
	}
	return best, bestCount
}
