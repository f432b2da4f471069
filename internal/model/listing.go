package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// CourseType tags what kind of courses a listing offers.
type CourseType string

const (
	Academics      CourseType = "academics"
	Certifications CourseType = "certifications"
)

// Gender of the tutor. Center marks an institutional listing.
type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
	Center Gender = "Center"
)

// LearningMethod is how lessons are delivered.
type LearningMethod string

const (
	Online   LearningMethod = "Online"
	InPerson LearningMethod = "In-person"
	Hybrid   LearningMethod = "Hybrid"
)

// MaxRating is the top of the rating scale.
const MaxRating = 5.0

var ErrInvalidListing = errors.New("invalid listing")

// listingNamespace seeds deterministic IDs for listings loaded without one.
var listingNamespace = uuid.MustParse("6f1c2e0a-8d7b-4c1e-9a55-3b2f7d4e9c10")

// Listing represents a single tutor or training center searchable in the marketplace.
type Listing struct {
	ID               string         `json:"id" yaml:"id"`
	Name             string         `json:"name" yaml:"name"`
	CourseType       CourseType     `json:"courseType" yaml:"courseType"`
	Courses          []string       `json:"courses" yaml:"courses"`
	Grades           []string       `json:"grades" yaml:"grades"`
	Location         string         `json:"location" yaml:"location"`
	TeachesAt        string         `json:"teachesAt" yaml:"teachesAt"`
	Bio              string         `json:"bio" yaml:"bio"`
	Gender           Gender         `json:"gender" yaml:"gender"`
	LearningMethod   LearningMethod `json:"learningMethod" yaml:"learningMethod"`
	Rating           float64        `json:"rating" yaml:"rating"`
	Price            float64        `json:"price" yaml:"price"`
	IsTrainingCenter bool           `json:"isTrainingCenter" yaml:"isTrainingCenter"`
	Favorite         bool           `json:"favorite" yaml:"favorite"`
	InSearchHistory  bool           `json:"inSearchHistory" yaml:"inSearchHistory"`
}

// SearchFields returns every text field the free-text search looks at:
// name, courses, grades, institution and bio.
func (l Listing) SearchFields() []string {
	fields := make([]string, 0, 3+len(l.Courses)+len(l.Grades))
	fields = append(fields, l.Name)
	fields = append(fields, l.Courses...)
	fields = append(fields, l.Grades...)
	fields = append(fields, l.TeachesAt, l.Bio)
	return fields
}

// HasGrade reports whether grade is one of the listing's grade bands,
// ignoring case and surrounding space.
func (l Listing) HasGrade(grade string) bool {
	grade = strings.TrimSpace(grade)
	for _, g := range l.Grades {
		if strings.EqualFold(strings.TrimSpace(g), grade) {
			return true
		}
	}
	return false
}

// Key returns a deduplication key for this listing.
// Uses ID when available, otherwise falls back to the name.
func (l Listing) Key() string {
	if l.ID != "" {
		return strings.ToLower(l.ID)
	}
	return strings.ToLower(strings.TrimSpace(l.Name))
}

// EnsureID derives a stable ID from the name when none was supplied.
func (l *Listing) EnsureID() {
	if l.ID != "" {
		return
	}
	l.ID = uuid.NewSHA1(listingNamespace, []byte(strings.ToLower(strings.TrimSpace(l.Name)))).String()
}

// Validate checks the enumerated fields and numeric ranges.
func (l Listing) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidListing)
	}
	switch l.CourseType {
	case Academics, Certifications:
	default:
		return fmt.Errorf("%w: %s: unknown course type %q", ErrInvalidListing, l.Name, l.CourseType)
	}
	if len(l.Courses) == 0 {
		return fmt.Errorf("%w: %s: no courses", ErrInvalidListing, l.Name)
	}
	switch l.Gender {
	case Male, Female, Center:
	default:
		return fmt.Errorf("%w: %s: unknown gender %q", ErrInvalidListing, l.Name, l.Gender)
	}
	switch l.LearningMethod {
	case Online, InPerson, Hybrid:
	default:
		return fmt.Errorf("%w: %s: unknown learning method %q", ErrInvalidListing, l.Name, l.LearningMethod)
	}
	if !(l.Rating >= 0 && l.Rating <= MaxRating) {
		return fmt.Errorf("%w: %s: rating %.2f out of range", ErrInvalidListing, l.Name, l.Rating)
	}
	if !(l.Price >= 0) || math.IsInf(l.Price, 1) {
		return fmt.Errorf("%w: %s: price %v out of range", ErrInvalidListing, l.Name, l.Price)
	}
	return nil
}

// ParseGender maps user input onto a Gender, case-insensitively.
func ParseGender(s string) (Gender, bool) {
	for _, g := range []Gender{Male, Female, Center} {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, true
		}
	}
	return "", false
}

// ParseLearningMethod accepts "online", "in-person", "inperson" and "hybrid".
func ParseLearningMethod(s string) (LearningMethod, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-")) {
	case "online":
		return Online, true
	case "in-person", "inperson":
		return InPerson, true
	case "hybrid":
		return Hybrid, true
	}
	return "", false
}

// ParseCourseType maps user input onto a CourseType.
func ParseCourseType(s string) (CourseType, bool) {
	switch CourseType(strings.ToLower(strings.TrimSpace(s))) {
	case Academics:
		return Academics, true
	case Certifications:
		return Certifications, true
	}
	return "", false
}
