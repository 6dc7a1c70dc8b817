package analytics

import (
	"math/rand"
	"time"
)

// base is a Wednesday at noon UTC.
var base = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

func searchEvent(query, searchType string, at time.Time) Event {
	return Event{Payload: SearchPayload{Query: query, SearchType: searchType}, CreatedAt: at}
}

func zeroResultSearch(query string) Event {
	return Event{Payload: SearchPayload{Query: query, SearchType: SearchTypeAll, ResultCount: intPtr(0)}}
}

func groupClick(university string, at time.Time) Event {
	return Event{Payload: GroupClickPayload{Location: Location{University: university}}, CreatedAt: at}
}

func buttonClick(buttonType string, loc Location) Event {
	return Event{Payload: ButtonClickPayload{ButtonType: buttonType, Location: loc}}
}

func suggestion(at time.Time) Event {
	return Event{Payload: SuggestionSelectPayload{Suggestion: "UFPE"}, CreatedAt: at}
}

func inSession(e Event, session string) Event {
	e.SessionID = session
	return e
}

// dailyBatch emits counts[i] group clicks on the i-th day after start.
func dailyBatch(start time.Time, counts ...int) []Event {
	var out []Event
	for i, n := range counts {
		day := start.AddDate(0, 0, i)
		for j := 0; j < n; j++ {
			out = append(out, groupClick("UFPE", day.Add(time.Duration(j)*time.Minute)))
		}
	}
	return out
}

func shuffled(events []Event, seed int64) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// mixedBatch covers every kind, dimension and timestamp edge the engine handles.
func mixedBatch() []Event {
	var out []Event
	out = append(out, dailyBatch(base.AddDate(0, 0, -20), 3, 4, 2, 5, 1, 3, 2, 4, 6, 2, 3, 1, 2, 9, 2, 3, 4, 2, 5, 3)...)
	out = append(out,
		searchEvent("UFPE", "university", base.Add(-2*time.Hour)),
		searchEvent("Recife", "city", base.Add(-30*time.Hour)),
		searchEvent("Brazil", "country", base.AddDate(0, 0, -9)),
		searchEvent("Pernambuco", "state", time.Time{}),
		zeroResultSearch("quidditch"),
		zeroResultSearch("quidditch"),
		zeroResultSearch("chess"),
		groupClick("UFRPE", base.Add(-5*time.Hour)),
		groupClick("UFRPE", time.Time{}),
		buttonClick(ButtonInstagram, Location{University: "UFPE", City: "Recife", State: "PE", Country: "Brazil"}),
		buttonClick(ButtonMaps, Location{University: "UNICAP", City: "Recife", State: "PE"}),
		buttonClick("whatsapp", Location{University: "UFPE"}),
		inSession(suggestion(base.Add(-time.Hour)), "s1"),
		inSession(suggestion(base.AddDate(0, 0, -1)), "s1"),
		inSession(suggestion(base.Add(-3*time.Hour)), "s2"),
		Event{Payload: LocationUsePayload{Type: "gps", Location: Location{City: "Olinda", State: "PE"}}, CreatedAt: base},
	)
	return out
}
