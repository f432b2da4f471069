package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rsilvagit/tutorfind/internal/httpclient"
	"github.com/rsilvagit/tutorfind/internal/model"
)

const listingsPath = "/api/v1/listings"

// REST fetches listings from the marketplace backend as JSON.
type REST struct {
	client  *httpclient.Client
	baseURL string
}

func NewREST(client *httpclient.Client, baseURL string) *REST {
	return &REST{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (r *REST) Name() string {
	return "rest"
}

// listingsEnvelope also accepts a bare array; some backends wrap it in "data".
type listingsEnvelope struct {
	Data []model.Listing `json:"data"`
}

func (r *REST) Fetch(ctx context.Context) ([]model.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+listingsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("rest: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rest: executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rest: unexpected status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("rest: decoding body: %w", err)
	}

	var listings []model.Listing
	if len(raw) > 0 && raw[0] == '{' {
		var env listingsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("rest: decoding envelope: %w", err)
		}
		listings = env.Data
	} else if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, fmt.Errorf("rest: decoding listings: %w", err)
	}

	if listings == nil {
		listings = []model.Listing{}
	}
	return listings, nil
}
