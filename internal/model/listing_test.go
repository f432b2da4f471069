package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validListing() Listing {
	return Listing{
		Name:           "John Doe",
		CourseType:     Academics,
		Courses:        []string{"Math"},
		Grades:         []string{"Grade 9"},
		Gender:         Male,
		LearningMethod: Online,
		Rating:         4.4,
		Price:          50,
	}
}

func TestListingKey(t *testing.T) {
	l := validListing()
	assert.Equal(t, "john doe", l.Key())

	l.ID = "ABC-1"
	assert.Equal(t, "abc-1", l.Key())
}

func TestListingEnsureIDIsDeterministic(t *testing.T) {
	a := validListing()
	b := validListing()
	b.Name = "  JOHN DOE "

	a.EnsureID()
	b.EnsureID()

	require.NotEmpty(t, a.ID)
	assert.Equal(t, a.ID, b.ID)

	c := validListing()
	c.ID = "keep-me"
	c.EnsureID()
	assert.Equal(t, "keep-me", c.ID)
}

func TestListingSearchFields(t *testing.T) {
	l := validListing()
	l.TeachesAt = "Lincoln High"
	l.Bio = "patient"

	assert.Equal(t, []string{"John Doe", "Math", "Grade 9", "Lincoln High", "patient"}, l.SearchFields())
}

func TestListingValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Listing)
		ok     bool
	}{
		{"valid", func(*Listing) {}, true},
		{"empty name", func(l *Listing) { l.Name = " " }, false},
		{"bad course type", func(l *Listing) { l.CourseType = "music" }, false},
		{"no courses", func(l *Listing) { l.Courses = nil }, false},
		{"bad gender", func(l *Listing) { l.Gender = "other" }, false},
		{"bad method", func(l *Listing) { l.LearningMethod = "mail" }, false},
		{"rating too high", func(l *Listing) { l.Rating = 5.1 }, false},
		{"negative price", func(l *Listing) { l.Price = -1 }, false},
		{"NaN rating", func(l *Listing) { l.Rating = math.NaN() }, false},
		{"NaN price", func(l *Listing) { l.Price = math.NaN() }, false},
		{"infinite price", func(l *Listing) { l.Price = math.Inf(1) }, false},
		{"top rating", func(l *Listing) { l.Rating = MaxRating }, true},
		{"empty grades allowed", func(l *Listing) { l.Grades = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validListing()
			tt.mutate(&l)
			err := l.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidListing)
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	g, ok := ParseGender("female")
	assert.True(t, ok)
	assert.Equal(t, Female, g)

	_, ok = ParseGender("x")
	assert.False(t, ok)

	m, ok := ParseLearningMethod("In Person")
	assert.True(t, ok)
	assert.Equal(t, InPerson, m)

	ct, ok := ParseCourseType("Certifications")
	assert.True(t, ok)
	assert.Equal(t, Certifications, ct)
}

func TestListingHasGrade(t *testing.T) {
	l := Listing{Grades: []string{"Grade 5", "Grade 6"}}

	assert.True(t, l.HasGrade("Grade 5"))
	assert.True(t, l.HasGrade("grade 5"))
	assert.True(t, l.HasGrade(" GRADE 6 "))
	assert.False(t, l.HasGrade("5"))
	assert.False(t, l.HasGrade("Grade 7"))
	assert.False(t, Listing{}.HasGrade("Grade 5"))
}
