package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rsilvagit/tutorfind/internal/httpclient"
	"github.com/rsilvagit/tutorfind/internal/model"
)

// HTML scrapes the public tutor directory page. Each listing is a
// .tutor-card element; enum fields travel in data attributes.
type HTML struct {
	client  *httpclient.Client
	pageURL string
}

func NewHTML(client *httpclient.Client, pageURL string) *HTML {
	return &HTML{
		client:  client,
		pageURL: pageURL,
	}
}

func (h *HTML) Name() string {
	return "html"
}

func (h *HTML) Fetch(ctx context.Context) ([]model.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("html: building request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("html: executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("html: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("html: parsing HTML: %w", err)
	}
	return parseCards(doc), nil
}

func parseCards(doc *goquery.Document) []model.Listing {
	listings := []model.Listing{}
	doc.Find(".tutor-card").Each(func(i int, s *goquery.Selection) {
		name := text(s.Find(".tutor-name"))
		if name == "" {
			return
		}

		l := model.Listing{
			ID:               strings.TrimSpace(s.AttrOr("data-id", "")),
			Name:             name,
			CourseType:       model.CourseType(strings.ToLower(s.AttrOr("data-course-type", ""))),
			Courses:          items(s.Find(".courses li")),
			Grades:           items(s.Find(".grades li")),
			Location:         text(s.Find(".location")),
			TeachesAt:        text(s.Find(".teaches-at")),
			Bio:              text(s.Find(".bio")),
			Gender:           model.Gender(s.AttrOr("data-gender", "")),
			LearningMethod:   model.LearningMethod(s.AttrOr("data-method", "")),
			Rating:           parseNumber(text(s.Find(".rating"))),
			Price:            parseNumber(text(s.Find(".price"))),
			IsTrainingCenter: s.AttrOr("data-training-center", "") == "true",
		}
		listings = append(listings, l)
	})
	return listings
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.First().Text()), " ")
}

func items(s *goquery.Selection) []string {
	out := []string{}
	s.Each(func(_ int, li *goquery.Selection) {
		if t := text(li); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// parseNumber pulls the first decimal number out of strings like "$1,200/hr"
// or "4.8 (32 reviews)". Anything unparsable is 0.
func parseNumber(raw string) float64 {
	raw = strings.ReplaceAll(raw, ",", "")
	start := strings.IndexAny(raw, "0123456789")
	if start < 0 {
		return 0
	}
	end := start
	for end < len(raw) && (raw[end] == '.' || (raw[end] >= '0' && raw[end] <= '9')) {
		end++
	}
	v, err := strconv.ParseFloat(strings.TrimRight(raw[start:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}
