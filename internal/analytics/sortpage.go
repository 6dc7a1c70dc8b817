package analytics

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder defines the direction of sorting.
type SortOrder int

const (
	Descending SortOrder = iota
	Ascending
)

// SortField names a DimensionMetric column.
type SortField string

const (
	SortByInteractions SortField = "interactions"
	SortBySearches     SortField = "searches"
	SortByClicks       SortField = "clicks"
	SortByInstagram    SortField = "instagram"
	SortByMaps         SortField = "maps"
	SortByEntity       SortField = "entity"
	SortByLastActivity SortField = "last_activity"
)

// SortConfig holds sorting configuration.
type SortConfig struct {
	Field SortField
	Order SortOrder
}

// DefaultSort matches the order Aggregate returns.
var DefaultSort = SortConfig{Field: SortByInteractions, Order: Descending}

// ParseSortConfig reads the "sort" and "order" request parameters. Empty values
// fall back to DefaultSort.
func ParseSortConfig(field, order string) (SortConfig, error) {
	cfg := DefaultSort
	if field != "" {
		switch f := SortField(strings.ToLower(field)); f {
		case SortByInteractions, SortBySearches, SortByClicks, SortByInstagram, SortByMaps, SortByEntity, SortByLastActivity:
			cfg.Field = f
		default:
			return SortConfig{}, fmt.Errorf("unknown sort field %q", field)
		}
	}
	switch strings.ToLower(order) {
	case "", "desc":
		cfg.Order = Descending
	case "asc":
		cfg.Order = Ascending
	default:
		return SortConfig{}, fmt.Errorf("unknown sort order %q", order)
	}
	return cfg, nil
}

// compareMetrics orders a before b on the field ascending; ok is false on a tie.
func compareMetrics(a, b DimensionMetric, field SortField) (less, ok bool) {
	switch field {
	case SortBySearches:
		return a.Searches < b.Searches, a.Searches != b.Searches
	case SortByClicks:
		return a.Clicks < b.Clicks, a.Clicks != b.Clicks
	case SortByInstagram:
		return a.Instagram < b.Instagram, a.Instagram != b.Instagram
	case SortByMaps:
		return a.Maps < b.Maps, a.Maps != b.Maps
	case SortByEntity:
		if a.Entity != b.Entity {
			return a.Entity < b.Entity, true
		}
		return a.State < b.State, a.State != b.State
	case SortByLastActivity:
		// Unknown activity sorts before any known time.
		switch {
		case a.LastActivity == nil && b.LastActivity == nil:
			return false, false
		case a.LastActivity == nil:
			return true, true
		case b.LastActivity == nil:
			return false, true
		}
		return a.LastActivity.Before(*b.LastActivity), !a.LastActivity.Equal(*b.LastActivity)
	default:
		return a.TotalInteractions < b.TotalInteractions, a.TotalInteractions != b.TotalInteractions
	}
}

// SortMetrics reorders metrics in place. Ties keep their existing relative
// order.
func SortMetrics(metrics []DimensionMetric, cfg SortConfig) {
	sort.SliceStable(metrics, func(i, j int) bool {
		less, ok := compareMetrics(metrics[i], metrics[j], cfg.Field)
		if !ok {
			return false
		}
		if cfg.Order == Descending {
			return !less
		}
		return less
	})
}

// Paging limits.
const (
	DefaultPageLimit = 25
	MaxPageLimit     = 200
)

// Page is one window over a larger ordered result.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// Paginate slices items to [offset, offset+limit). A non-positive limit uses
// DefaultPageLimit; limits above MaxPageLimit are clamped.
func Paginate[T any](items []T, offset, limit int) Page[T] {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)

	window := make([]T, end-start)
	copy(window, items[start:end])
	return Page[T]{
		Items:   window,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasMore: end < total,
	}
}
