package filter

import (
	"errors"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rsilvagit/tutorfind/internal/model"
)

// DefaultNearLocation is the bucket "near me" resolves to until real
// geolocation is available.
const DefaultNearLocation = "New York"

// ErrInvalidArgument is returned when Apply is called without records or criteria.
var ErrInvalidArgument = errors.New("filter: invalid argument")

// Criteria holds a snapshot of every filter input. Zero-valued enum fields
// and empty sets mean "no filter"; numeric ranges are always evaluated, so
// callers should start from Defaults.
type Criteria struct {
	Query              string // lowercase free text
	Genders            []model.Gender
	NearMe             bool
	NearLocation       string
	TrainingCenterOnly bool
	FavoriteOnly       bool
	SearchHistoryOnly  bool
	MinRating          float64
	MaxRating          float64
	LearningMethod     model.LearningMethod
	CourseType         model.CourseType
	Grade              string // only meaningful with CourseType academics
	MinPrice           float64
	MaxPrice           float64
}

// Defaults returns criteria that match every well-formed listing.
func Defaults() Criteria {
	return Criteria{
		NearLocation: DefaultNearLocation,
		MinRating:    0,
		MaxRating:    model.MaxRating,
		MinPrice:     0,
		MaxPrice:     math.Inf(1),
	}
}

// Apply returns the listings that satisfy all active criteria, in their
// original order. The input slice is never modified or aliased.
func Apply(listings []model.Listing, c *Criteria) ([]model.Listing, error) {
	if listings == nil || c == nil {
		return nil, ErrInvalidArgument
	}
	if c.IsDefault() {
		return slices.Clone(listings), nil
	}

	result := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if Match(l, c) {
			result = append(result, l)
		}
	}
	return result, nil
}

// Match evaluates every predicate against a single listing.
func Match(l model.Listing, c *Criteria) bool {
	if c.Query != "" && !MatchesText(l, c.Query) {
		return false
	}
	if len(c.Genders) > 0 {
		if l.Gender == model.Center || !slices.Contains(c.Genders, l.Gender) {
			return false
		}
	}
	if c.NearMe && l.Location != c.NearLocation {
		return false
	}
	if c.TrainingCenterOnly && !l.IsTrainingCenter {
		return false
	}
	if c.FavoriteOnly && !l.Favorite {
		return false
	}
	if c.SearchHistoryOnly && !l.InSearchHistory {
		return false
	}
	// Negated inclusive tests so a NaN rating or bound never matches.
	if !(l.Rating >= c.MinRating && l.Rating <= c.MaxRating) {
		return false
	}
	if c.LearningMethod != "" && l.LearningMethod != c.LearningMethod {
		return false
	}
	if c.CourseType != "" {
		if l.CourseType != c.CourseType {
			return false
		}
		// No wildcard: a listing without grades fails a grade request.
		if c.CourseType == model.Academics && c.Grade != "" && !l.HasGrade(c.Grade) {
			return false
		}
	}
	if !(l.Price >= c.MinPrice && l.Price <= c.MaxPrice) {
		return false
	}
	return true
}

// MatchesText reports whether query is a substring of any searchable field.
// query must already be normalized.
func MatchesText(l model.Listing, query string) bool {
	if query == "" {
		return true
	}
	lower := cases.Lower(language.Und)
	for _, field := range l.SearchFields() {
		if strings.Contains(lower.String(field), query) {
			return true
		}
	}
	return false
}

// NormalizeQuery trims and lower-cases free text input.
func NormalizeQuery(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// IsDefault reports whether no predicate can exclude a well-formed listing.
func (c Criteria) IsDefault() bool {
	return c.Query == "" &&
		len(c.Genders) == 0 &&
		!c.NearMe &&
		!c.TrainingCenterOnly &&
		!c.FavoriteOnly &&
		!c.SearchHistoryOnly &&
		c.MinRating <= 0 && c.MaxRating >= model.MaxRating &&
		c.LearningMethod == "" &&
		c.CourseType == "" &&
		c.MinPrice <= 0 && math.IsInf(c.MaxPrice, 1)
}
