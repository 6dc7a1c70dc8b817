package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownKind is returned by Decode for an event_type outside the closed set.
var ErrUnknownKind = errors.New("unknown event type")

// Decode builds an Event from the loose key/value payload stored by the event
// store. Missing fields decode to their zero value; only an unknown type is an
// error.
func Decode(eventType string, data map[string]any, sessionID string, createdAt time.Time) (Event, error) {
	kind, ok := ParseKind(eventType)
	if !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownKind, eventType)
	}

	loc := Location{
		University: stringField(data, "university"),
		Country:    stringField(data, "country"),
		State:      stringField(data, "state"),
		City:       stringField(data, "city"),
	}

	var p Payload
	switch kind {
	case KindSearch:
		st := stringField(data, "search_type")
		if st == "" {
			st = SearchTypeAll
		}
		p = SearchPayload{
			Query:       stringField(data, "query"),
			SearchType:  st,
			ResultCount: intField(data, "result_count"),
			Location:    loc,
		}
	case KindGroupClick:
		p = GroupClickPayload{GroupID: stringField(data, "group_id"), Location: loc}
	case KindButtonClick:
		p = ButtonClickPayload{ButtonType: stringField(data, "button_type"), Location: loc}
	case KindSuggestionSelect:
		p = SuggestionSelectPayload{
			Suggestion: stringField(data, "suggestion"),
			Type:       stringField(data, "type"),
		}
	case KindLocationUse:
		p = LocationUsePayload{Type: stringField(data, "type"), Location: loc}
	}

	return Event{Payload: p, SessionID: strings.TrimSpace(sessionID), CreatedAt: createdAt}, nil
}

// Encode flattens an event payload back into the key/value shape Decode accepts.
func Encode(p Payload) map[string]any {
	out := map[string]any{}
	putLocation := func(l Location) {
		for k, v := range map[string]string{
			"university": l.University,
			"country":    l.Country,
			"state":      l.State,
			"city":       l.City,
		} {
			if v != "" {
				out[k] = v
			}
		}
	}
	switch v := p.(type) {
	case SearchPayload:
		out["query"] = v.Query
		out["search_type"] = v.SearchType
		if v.ResultCount != nil {
			out["result_count"] = *v.ResultCount
		}
		putLocation(v.Location)
	case GroupClickPayload:
		if v.GroupID != "" {
			out["group_id"] = v.GroupID
		}
		putLocation(v.Location)
	case ButtonClickPayload:
		out["button_type"] = v.ButtonType
		putLocation(v.Location)
	case SuggestionSelectPayload:
		out["suggestion"] = v.Suggestion
		if v.Type != "" {
			out["type"] = v.Type
		}
	case LocationUsePayload:
		if v.Type != "" {
			out["type"] = v.Type
		}
		putLocation(v.Location)
	}
	return out
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// intField accepts the numeric shapes JSON decoding produces. Fractional or
// unparsable values are treated as absent.
func intField(data map[string]any, key string) *int {
	var n int
	switch v := data[key].(type) {
	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil
		}
		n = int(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil
		}
		n = int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}
