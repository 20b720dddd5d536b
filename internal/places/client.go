// Package places sources restaurant candidates from the Google Places nearby
// search API, with a fixed fallback pool for when the API can't be reached.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/groupbite/internal/domain/candidate"
)

const (
	// DefaultBaseURL is the Places API root.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	nearbySearchPath = "/nearbysearch/json"
	maxResponseBytes = 4 << 20
)

// Response statuses the API reports for a usable result.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// SearchRequest is one nearby search call.
type SearchRequest struct {
	Location  candidate.Coordinate
	Radius    int
	Type      string
	MaxPrice  int
	Keyword   string
	PageToken string
}

// SearchPage is one page of nearby search results.
type SearchPage struct {
	Candidates    []candidate.Candidate
	NextPageToken string
}

// Client calls the nearby search endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Places client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// NearbySearch performs one search request. Any transport, HTTP, decoding
// or API status failure is reported as candidate.ErrUpstreamUnavailable.
func (c *Client) NearbySearch(ctx context.Context, req SearchRequest) (*SearchPage, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: no api key configured", candidate.ErrUpstreamUnavailable)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+nearbySearchPath+"?"+c.query(req).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", candidate.ErrUpstreamUnavailable, err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", candidate.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %d", candidate.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body nearbyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", candidate.ErrUpstreamUnavailable, err)
	}
	if body.Status != StatusOK && body.Status != StatusZeroResults {
		return nil, fmt.Errorf("%w: api status %s %s", candidate.ErrUpstreamUnavailable, body.Status, body.ErrorMessage)
	}

	page := &SearchPage{
		Candidates:    make([]candidate.Candidate, 0, len(body.Results)),
		NextPageToken: body.NextPageToken,
	}
	for _, p := range body.Results {
		if p.PlaceID == "" {
			continue
		}
		page.Candidates = append(page.Candidates, p.toCandidate())
	}
	return page, nil
}

func (c *Client) query(req SearchRequest) url.Values {
	q := url.Values{}
	q.Set("key", c.apiKey)
	if req.PageToken != "" {
		q.Set("pagetoken", req.PageToken)
		return q
	}
	q.Set("location", formatCoordinate(req.Location))
	q.Set("radius", strconv.Itoa(req.Radius))
	if req.Type != "" {
		q.Set("type", req.Type)
	}
	if req.MaxPrice > 0 {
		q.Set("maxprice", strconv.Itoa(req.MaxPrice))
	}
	if req.Keyword != "" {
		q.Set("keyword", req.Keyword)
	}
	return q
}

func formatCoordinate(c candidate.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

type nearbyResponse struct {
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	NextPageToken string  `json:"next_page_token,omitempty"`
	Results       []place `json:"results"`
}

type place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	Types            []string `json:"types"`
	Photos           []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	OpeningHours *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
	Geometry struct {
		Location candidate.Coordinate `json:"location"`
	} `json:"geometry"`
}

func (p place) toCandidate() candidate.Candidate {
	c := candidate.Candidate{
		ID:          p.PlaceID,
		Name:        p.Name,
		Address:     p.Vicinity,
		Rating:      p.Rating,
		RatingCount: p.UserRatingsTotal,
		PriceLevel:  p.PriceLevel,
		Types:       p.Types,
		Location:    p.Geometry.Location,
	}
	if c.Types == nil {
		c.Types = []string{}
	}
	for _, ph := range p.Photos {
		if ph.PhotoReference != "" {
			c.Photos = append(c.Photos, ph.PhotoReference)
		}
	}
	if p.OpeningHours != nil {
		c.OpenNow = p.OpeningHours.OpenNow
	}
	return c
}
