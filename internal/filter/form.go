package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/rsilvagit/tutorfind/internal/model"
)

// Query parameter names understood by FromValues.
const (
	ParamQuery          = "q"
	ParamGender         = "gender"
	ParamNearMe         = "near_me"
	ParamTrainingCenter = "training_center"
	ParamFavorite       = "favorite"
	ParamHistory        = "history"
	ParamMinRating      = "min_rating"
	ParamMaxRating      = "max_rating"
	ParamMethod         = "method"
	ParamCourseType     = "course_type"
	ParamGrade          = "grade"
	ParamMinPrice       = "min_price"
	ParamMaxPrice       = "max_price"
)

// ParseBound parses a numeric filter field. Blank or unparsable input yields
// fallback, so an empty box leaves the range open instead of excluding everything.
func ParseBound(raw string, fallback float64) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return fallback
	}
	return v
}

// ParseFlag treats "1", "true", "on" and "yes" as set.
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// FromValues builds a criteria snapshot from form or query parameters.
// Unknown enum values are ignored rather than rejected.
func FromValues(v url.Values, nearLocation string) Criteria {
	c := Defaults()
	if nearLocation != "" {
		c.NearLocation = nearLocation
	}

	c.Query = NormalizeQuery(v.Get(ParamQuery))

	for _, raw := range v[ParamGender] {
		for _, part := range strings.Split(raw, ",") {
			if g, ok := model.ParseGender(part); ok {
				c.Genders = append(c.Genders, g)
			}
		}
	}

	c.NearMe = ParseFlag(v.Get(ParamNearMe))
	c.TrainingCenterOnly = ParseFlag(v.Get(ParamTrainingCenter))
	c.FavoriteOnly = ParseFlag(v.Get(ParamFavorite))
	c.SearchHistoryOnly = ParseFlag(v.Get(ParamHistory))

	c.MinRating = ParseBound(v.Get(ParamMinRating), c.MinRating)
	c.MaxRating = ParseBound(v.Get(ParamMaxRating), c.MaxRating)
	c.MinPrice = ParseBound(v.Get(ParamMinPrice), c.MinPrice)
	c.MaxPrice = ParseBound(v.Get(ParamMaxPrice), c.MaxPrice)

	if m, ok := model.ParseLearningMethod(v.Get(ParamMethod)); ok {
		c.LearningMethod = m
	}
	if ct, ok := model.ParseCourseType(v.Get(ParamCourseType)); ok {
		c.CourseType = ct
	}
	c.Grade = strings.TrimSpace(v.Get(ParamGrade))

	return c
}
