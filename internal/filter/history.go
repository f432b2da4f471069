package filter

import "github.com/rsilvagit/tutorfind/internal/model"

// RecordSearchHits marks every listing whose text matches query as part of
// the search history, in place. It returns the keys of the listings that
// were newly marked. An empty query records nothing.
func RecordSearchHits(listings []model.Listing, query string) []string {
	if query == "" {
		return nil
	}
	var marked []string
	for i := range listings {
		if listings[i].InSearchHistory || !MatchesText(listings[i], query) {
			continue
		}
		listings[i].InSearchHistory = true
		marked = append(marked, listings[i].Key())
	}
	return marked
}
