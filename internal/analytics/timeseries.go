package analytics

import (
	"sort"
	"time"
)

// DayLayout is the wire format of DailyActivity.Date.
const DayLayout = "2006-01-02"

// DailyActivity counts one calendar day's events.
type DailyActivity struct {
	Date             string `json:"date"`
	Search           int    `json:"search"`
	GroupClick       int    `json:"group_click"`
	SuggestionSelect int    `json:"suggestion_select"`
	// Total includes kinds without a named counter.
	Total int `json:"total"`
}

// Day parses Date back into midnight of that day in loc.
func (d DailyActivity) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, d.Date, locationOrUTC(loc))
}

// BuildDailySeries buckets timestamped events by calendar day in loc (UTC when
// nil) and returns the buckets ascending by date. Days without events are not
// filled in.
func BuildDailySeries(events []Event, loc *time.Location) []DailyActivity {
	loc = locationOrUTC(loc)
	days := make(map[string]*DailyActivity)

	for _, e := range events {
		if !e.HasTimestamp() {
			continue
		}
		key := dayKey(e.CreatedAt, loc)
		d, ok := days[key]
		if !ok {
			d = &DailyActivity{Date: key}
			days[key] = d
		}
		d.Total++
		switch e.Kind() {
		case KindSearch:
			d.Search++
		case KindGroupClick:
			d.GroupClick++
		case KindSuggestionSelect:
			d.SuggestionSelect++
		}
	}

	series := make([]DailyActivity, 0, len(days))
	for _, d := range days {
		series = append(series, *d)
	}
	// DayLayout sorts lexically in date order.
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
