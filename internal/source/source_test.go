package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rsilvagit/tutorfind/internal/cache"
	"github.com/rsilvagit/tutorfind/internal/config"
	"github.com/rsilvagit/tutorfind/internal/httpclient"
	"github.com/rsilvagit/tutorfind/internal/model"
)

type stubSource struct {
	name     string
	listings []model.Listing
	err      error
	calls    int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context) ([]model.Listing, error) {
	s.calls++
	return s.listings, s.err
}

func newClient(t *testing.T) *httpclient.Client {
	t.Helper()
	c, err := httpclient.New(httpclient.Options{MaxRetries: 1, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	return c
}

func listing(name string) model.Listing {
	return model.Listing{
		Name: name, CourseType: model.Academics, Courses: []string{"Math"},
		Gender: model.Male, LearningMethod: model.Online, Rating: 4, Price: 20,
	}
}

func TestSample(t *testing.T) {
	got, err := NewSample().Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 6)

	assert.Equal(t, "John Doe", got[0].Name)
	assert.Equal(t, model.Center, got[1].Gender)
	assert.Equal(t, model.InPerson, got[1].LearningMethod)
	assert.True(t, got[1].IsTrainingCenter)
	assert.Empty(t, got[3].Grades)
	assert.Equal(t, 4.78, got[2].Rating)
	for _, l := range got {
		assert.NoError(t, l.Validate(), l.Name)
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "listings.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"name":"Ana Lima","courseType":"academics","courses":["Math"],"gender":"Female","learningMethod":"Online","rating":4.1,"price":25}]`), 0o600))

	got, err := NewFile(jsonPath).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana Lima", got[0].Name)
	assert.Equal(t, 25.0, got[0].Price)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("- name: X\n  colour: blue\n"), 0o600))
	_, err = NewFile(badPath).Fetch(context.Background())
	assert.Error(t, err)

	_, err = NewFile(filepath.Join(dir, "missing.yaml")).Fetch(context.Background())
	assert.Error(t, err)

	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o600))
	got, err = NewFile(emptyPath).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	commentPath := filepath.Join(dir, "comment.yaml")
	require.NoError(t, os.WriteFile(commentPath, []byte("# no listings yet\n"), 0o600))
	got, err = NewFile(commentPath).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFile_NaNRatingIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nan.yaml")
	body := "- name: Odd Tutor\n  courseType: academics\n  courses: [Math]\n  gender: Male\n  learningMethod: Online\n  rating: .nan\n  price: 20\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	got, err := NewFile(path).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Validate(), model.ErrInvalidListing)

	collected, err := Collect(context.Background(), []Source{NewFile(path), &stubSource{name: "ok", listings: []model.Listing{listing("Ana Lima")}}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, collected, 1)
	assert.Equal(t, "Ana Lima", collected[0].Name)
}

func TestREST(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"name":"A"},{"name":"B"}]`, 2},
		{"data envelope", `{"data":[{"name":"A"}]}`, 1},
		{"empty", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, listingsPath, r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewREST(newClient(t), srv.URL+"/").Fetch(context.Background())
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestREST_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewREST(newClient(t), srv.URL).Fetch(context.Background())
	assert.Error(t, err)
}

func TestHTML(t *testing.T) {
	page, err := os.ReadFile(filepath.Join("testdata", "directory.html"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(page)
	}))
	defer srv.Close()

	got, err := NewHTML(newClient(t), srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	sarah := got[0]
	assert.Equal(t, "t-100", sarah.ID)
	assert.Equal(t, "Sarah Smith", sarah.Name)
	assert.Equal(t, []string{"English", "Literature"}, sarah.Courses)
	assert.Equal(t, []string{"Grade 6", "Grade 7"}, sarah.Grades)
	assert.Equal(t, model.Female, sarah.Gender)
	assert.Equal(t, 4.78, sarah.Rating)
	assert.Equal(t, 40.0, sarah.Price)
	assert.NoError(t, sarah.Validate())

	center := got[1]
	assert.Equal(t, model.Certifications, center.CourseType)
	assert.True(t, center.IsTrainingCenter)
	assert.Empty(t, center.Grades)
	assert.Equal(t, 1200.50, center.Price)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"$50", 50},
		{"$1,200.50 /hr", 1200.50},
		{"4.8 (12 reviews)", 4.8},
		{"free", 0},
		{"", 0},
		{"5.", 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseNumber(tt.raw), tt.raw)
	}
}

func TestCollect(t *testing.T) {
	log := zaptest.NewLogger(t)
	invalid := listing("Broken")
	invalid.Rating = 9

	a := &stubSource{name: "a", listings: []model.Listing{listing("John Doe"), listing("Sarah Smith")}}
	b := &stubSource{name: "b", err: errors.New("boom")}
	c := &stubSource{name: "c", listings: []model.Listing{listing("john doe"), invalid, listing("Emily Davis")}}

	got, err := Collect(context.Background(), []Source{a, b, c}, log)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "John Doe", got[0].Name)
	assert.Equal(t, "Sarah Smith", got[1].Name)
	assert.Equal(t, "Emily Davis", got[2].Name)
	for _, l := range got {
		assert.NotEmpty(t, l.ID)
	}
}

func TestCollect_AllFail(t *testing.T) {
	s := &stubSource{name: "a", err: errors.New("down")}
	_, err := Collect(context.Background(), []Source{s}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrNoListings)
}

func TestCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	inner := &stubSource{name: "rest", listings: []model.Listing{listing("John Doe")}}
	src := Cached(inner, cache.New(rdb, time.Minute), zaptest.NewLogger(t))

	for range 3 {
		got, err := src.Fetch(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "rest", src.Name())
}

func TestRegistry(t *testing.T) {
	sources, err := Registry(config.SourceConfig{
		Kinds:   []string{"sample", "file", "rest", "html"},
		File:    "x.yaml",
		RESTURL: "http://api",
		HTMLURL: "http://site",
	}, newClient(t))
	require.NoError(t, err)

	var got []string
	for _, s := range sources {
		got = append(got, s.Name())
	}
	assert.Equal(t, []string{"sample", "file", "rest", "html"}, got)

	_, err = Registry(config.SourceConfig{Kinds: []string{"ftp"}}, nil)
	assert.Error(t, err)
}
