package analytics

import "time"

// Kind is the closed set of interaction types the admin console records.
type Kind string

const (
	KindSearch           Kind = "search"
	KindGroupClick       Kind = "group_click"
	KindSuggestionSelect Kind = "suggestion_select"
	KindButtonClick      Kind = "button_click"
	KindLocationUse      Kind = "location_use"
)

// Kinds lists every known kind in a stable order.
var Kinds = []Kind{KindSearch, KindGroupClick, KindSuggestionSelect, KindButtonClick, KindLocationUse}

// ParseKind maps a raw event_type to a Kind. The second result is false for
// anything outside the closed set.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindSearch, KindGroupClick, KindSuggestionSelect, KindButtonClick, KindLocationUse:
		return k, true
	}
	return "", false
}

// Location holds the geographic/organizational fields several payloads share.
// Empty strings mean the field was absent.
type Location struct {
	University string `json:"university,omitempty"`
	Country    string `json:"country,omitempty"`
	State      string `json:"state,omitempty"`
	City       string `json:"city,omitempty"`
}

// Field returns the location field backing the given dimension.
func (l Location) Field(d Dimension) string {
	switch d {
	case DimensionUniversity:
		return l.University
	case DimensionCountry:
		return l.Country
	case DimensionState:
		return l.State
	case DimensionCity:
		return l.City
	}
	return ""
}

// Payload is the per-kind body of an event. The set of implementations is
// sealed to this package.
type Payload interface {
	Kind() Kind
	isPayload()
}

// SearchPayload is emitted when a user runs a search. SearchType names the
// dimension searched ("university", "city", ...) or "all" when unspecified.
type SearchPayload struct {
	Query      string
	SearchType string
	// ResultCount is nil when the client did not report a count.
	ResultCount *int
	Location
}

// GroupClickPayload is emitted when a user opens a group card.
type GroupClickPayload struct {
	GroupID string
	Location
}

// ButtonClickPayload is emitted for call-to-action buttons on a group card.
type ButtonClickPayload struct {
	ButtonType string
	Location
}

// SuggestionSelectPayload is emitted when an autocomplete suggestion is picked.
type SuggestionSelectPayload struct {
	Suggestion string
	Type       string
}

// LocationUsePayload is emitted when the user shares their position.
type LocationUsePayload struct {
	Type string
	Location
}

func (SearchPayload) Kind() Kind           { return KindSearch }
func (GroupClickPayload) Kind() Kind       { return KindGroupClick }
func (ButtonClickPayload) Kind() Kind      { return KindButtonClick }
func (SuggestionSelectPayload) Kind() Kind { return KindSuggestionSelect }
func (LocationUsePayload) Kind() Kind      { return KindLocationUse }

func (SearchPayload) isPayload()           {}
func (GroupClickPayload) isPayload()       {}
func (ButtonClickPayload) isPayload()      {}
func (SuggestionSelectPayload) isPayload() {}
func (LocationUsePayload) isPayload()      {}

// Button types that feed dimension counters.
const (
	ButtonInstagram = "instagram"
	ButtonMaps      = "maps"
)

// SearchTypeAll is the search type assumed when a search event omits one.
const SearchTypeAll = "all"

// Event is one immutable user interaction. Events are values; nothing in this
// package modifies a batch it is given.
type Event struct {
	Payload   Payload
	SessionID string
	// CreatedAt is the zero time when the producer supplied no timestamp.
	CreatedAt time.Time
}

// Kind reports the event's kind, or "" for an event without payload.
func (e Event) Kind() Kind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// HasTimestamp reports whether the event can take part in time-based computations.
func (e Event) HasTimestamp() bool {
	return !e.CreatedAt.IsZero()
}

// Location returns the location fields carried by the payload, if any.
func (e Event) Location() (Location, bool) {
	switch p := e.Payload.(type) {
	case SearchPayload:
		return p.Location, true
	case GroupClickPayload:
		return p.Location, true
	case ButtonClickPayload:
		return p.Location, true
	case LocationUsePayload:
		return p.Location, true
	}
	return Location{}, false
}
