package candidate

import (
	"slices"
	"strings"
)

const (
	// DefaultRadius is the search radius used when none is supplied.
	DefaultRadius = 5000
	// DefaultType is the category tag used when no tags are supplied.
	DefaultType = "restaurant"
	// MaxPriceLevel is the most expensive price tier.
	MaxPriceLevel = 4
)

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Candidate is a restaurant eligible for voting within one session.
type Candidate struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Phone       *string    `json:"phone,omitempty"`
	Website     *string    `json:"website,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	RatingCount *int       `json:"rating_count,omitempty"`
	PriceLevel  *int       `json:"price_level,omitempty"`
	Types       []string   `json:"types"`
	Photos      []string   `json:"photos,omitempty"`
	OpenNow     *bool      `json:"open_now,omitempty"`
	Location    Coordinate `json:"location"`
}

// HasType reports whether the candidate carries the tag, ignoring case.
func (c Candidate) HasType(tag string) bool {
	return slices.ContainsFunc(c.Types, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// Filters are the search parameters a candidate list was produced with.
type Filters struct {
	Radius     float64  `json:"radius"`
	PriceLevel int      `json:"price_level"`
	Types      []string `json:"types"`
	Keyword    string   `json:"keyword,omitempty"`
}

// Normalize returns a copy with defaults applied to unset fields.
func (f Filters) Normalize() Filters {
	out := f
	if out.Radius == 0 {
		out.Radius = DefaultRadius
	}
	types := make([]string, 0, len(f.Types))
	for _, t := range f.Types {
		if t = strings.TrimSpace(t); t != "" && !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		types = []string{DefaultType}
	}
	out.Types = types
	out.Keyword = strings.TrimSpace(f.Keyword)
	return out
}

// Validate checks the filter ranges. Call Normalize first.
func (f Filters) Validate() error {
	if f.Radius <= 0 {
		return ErrInvalidFilters
	}
	if f.PriceLevel < 0 || f.PriceLevel > MaxPriceLevel {
		return ErrInvalidFilters
	}
	if len(f.Types) == 0 {
		return ErrInvalidFilters
	}
	return nil
}

// Contains reports whether id is one of the candidates.
func Contains(candidates []Candidate, id string) bool {
	return slices.ContainsFunc(candidates, func(c Candidate) bool {
		return c.ID == id
	})
}
