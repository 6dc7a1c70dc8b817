package analytics

import (
	"fmt"
	"math"
	"time"
)

// NoData is returned by label-valued statistics when no event has a timestamp.
const NoData = "N/A"

const (
	week = 7 * 24 * time.Hour

	// spikeSigma is how many standard deviations above the mean a day must be
	// to count as a spike.
	spikeSigma = 2.0
	// minSpikeDays is the smallest series that yields a spike count.
	minSpikeDays = 3
	// minForecastDays is the smallest series that yields a forecast.
	minForecastDays = 14

	forecastFloor = -50
	forecastCeil  = 100

	// recommendationScale stretches the select/search ratio into a 0-100 score.
	recommendationScale = 2.5
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Options carries the clock and calendar every time-based statistic needs.
type Options struct {
	Now time.Time
	// Location defines calendar days, hours and weekdays; nil means UTC.
	Location *time.Location
}

// Stats bundles the scalar statistics shown on the dashboard.
type Stats struct {
	WeeklyGrowth        int    `json:"weeklyGrowth"`
	MostActiveHour      string `json:"mostActiveHour"`
	TopDay              string `json:"topDay"`
	ActivitySpikes      int    `json:"activitySpikes"`
	NextWeekForecast    int    `json:"nextWeekForecast"`
	RetentionRate       int    `json:"retentionRate"`
	RecommendationScore int    `json:"recommendationScore"`
}

// Summarize computes every statistic over one batch.
func Summarize(events []Event, opts Options) Stats {
	return Stats{
		WeeklyGrowth:        WeeklyGrowth(events, opts.Now),
		MostActiveHour:      MostActiveHour(events, opts.Location),
		TopDay:              TopDay(events, opts.Location),
		ActivitySpikes:      ActivitySpikes(events, opts.Location),
		NextWeekForecast:    NextWeekForecast(events, opts.Location),
		RetentionRate:       RetentionRate(events, opts.Location),
		RecommendationScore: RecommendationScore(events),
	}
}

// WeeklyGrowth compares events in [now-7d, now] with [now-14d, now-7d) and
// returns the percentage change.
func WeeklyGrowth(events []Event, now time.Time) int {
	thisWeek, lastWeek := weeklyCounts(events, now, nil)
	return percentChange(thisWeek, lastWeek)
}

// weeklyCounts splits the batch into the two trailing weeks ending at now.
// keep, when non-nil, restricts which events are counted.
func weeklyCounts(events []Event, now time.Time, keep func(Event) bool) (thisWeek, lastWeek int) {
	weekAgo := now.Add(-week)
	twoWeeksAgo := now.Add(-2 * week)

	for _, e := range events {
		if !e.HasTimestamp() || (keep != nil && !keep(e)) {
			continue
		}
		t := e.CreatedAt
		switch {
		case !t.Before(weekAgo) && !t.After(now):
			thisWeek++
		case !t.Before(twoWeeksAgo) && t.Before(weekAgo):
			lastWeek++
		}
	}
	return thisWeek, lastWeek
}

// percentChange returns the rounded change from prev to cur, 100 when prev is
// zero and cur is not, 0 when both are zero.
func percentChange(cur, prev int) int {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return roundHalfUp(float64(cur-prev) / float64(prev) * 100)
}

// MostActiveHour returns the busiest hour of day as a 12-hour label ("3 PM").
// On ties the earliest hour wins.
func MostActiveHour(events []Event, loc *time.Location) string {
	var hours [24]int
	loc = locationOrUTC(loc)
	total := 0
	for _, e := range events {
		if !e.HasTimestamp() {
			continue
		}
		hours[e.CreatedAt.In(loc).Hour()]++
		total++
	}
	if total == 0 {
		return NoData
	}
	return formatHour(peakIndex(hours[:]))
}

// TopDay returns the English name of the busiest weekday. On ties the earliest
// day of the week (Sunday first) wins.
func TopDay(events []Event, loc *time.Location) string {
	var days [7]int
	loc = locationOrUTC(loc)
	total := 0
	for _, e := range events {
		if !e.HasTimestamp() {
			continue
		}
		days[e.CreatedAt.In(loc).Weekday()]++
		total++
	}
	if total == 0 {
		return NoData
	}
	return dayNames[peakIndex(days[:])]
}

// peakIndex scans ascending and only moves on a strictly greater count, so the
// first maximum is kept.
func peakIndex(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

func formatHour(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}

// ActivitySpikes counts days whose total exceeds mean + 2 standard deviations
// of the daily series. Fewer than three days yields 0.
func ActivitySpikes(events []Event, loc *time.Location) int {
	return countSpikes(BuildDailySeries(events, loc))
}

func countSpikes(series []DailyActivity) int {
	if len(series) < minSpikeDays {
		return 0
	}
	totals := make([]float64, len(series))
	for i, d := range series {
		totals[i] = float64(d.Total)
	}
	mean, stddev := meanStddev(totals)
	threshold := mean + spikeSigma*stddev

	spikes := 0
	for _, v := range totals {
		if v > threshold {
			spikes++
		}
	}
	return spikes
}

// meanStddev returns the mean and population standard deviation.
func meanStddev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// NextWeekForecast extrapolates the change between the last seven series days
// and the seven before them, clamped to [-50, 100]. It needs at least 14 days
// of data and returns 0 otherwise.
func NextWeekForecast(events []Event, loc *time.Location) int {
	return forecast(BuildDailySeries(events, loc))
}

func forecast(series []DailyActivity) int {
	n := len(series)
	if n < minForecastDays {
		return 0
	}
	lastWeek := sumTotals(series[n-7:])
	prevWeek := sumTotals(series[n-14 : n-7])

	change := percentChange(lastWeek, prevWeek)
	if change < forecastFloor {
		return forecastFloor
	}
	if change > forecastCeil {
		return forecastCeil
	}
	return change
}

func sumTotals(days []DailyActivity) int {
	sum := 0
	for _, d := range days {
		sum += d.Total
	}
	return sum
}

// RetentionRate is the percentage of sessions whose events span more than one
// calendar day. Events without a session id or without a timestamp are
// ignored.
func RetentionRate(events []Event, loc *time.Location) int {
	loc = locationOrUTC(loc)
	sessions := make(map[string]map[string]struct{})

	for _, e := range events {
		if e.SessionID == "" || !e.HasTimestamp() {
			continue
		}
		days, ok := sessions[e.SessionID]
		if !ok {
			days = make(map[string]struct{})
			sessions[e.SessionID] = days
		}
		days[dayKey(e.CreatedAt, loc)] = struct{}{}
	}
	if len(sessions) == 0 {
		return 0
	}

	retained := 0
	for _, days := range sessions {
		if len(days) > 1 {
			retained++
		}
	}
	return roundHalfUp(100 * float64(retained) / float64(len(sessions)))
}

// RecommendationScore is the suggestion-select to search ratio scaled by 2.5
// and capped at 100. A batch without searches scores 0.
func RecommendationScore(events []Event) int {
	searches, selects := 0, 0
	for _, e := range events {
		switch e.Kind() {
		case KindSearch:
			searches++
		case KindSuggestionSelect:
			selects++
		}
	}
	if searches == 0 {
		return 0
	}
	score := float64(selects) / float64(searches) * 100 * recommendationScale
	if score > 100 {
		return 100
	}
	return roundHalfUp(score)
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
