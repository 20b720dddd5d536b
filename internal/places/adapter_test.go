package places

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/stretchr/testify/require"
)

func placesJSON(status, next string, ids ...string) string {
	results := ""
	for i, id := range ids {
		if i > 0 {
			results += ","
		}
		results += fmt.Sprintf(`{"place_id":%q,"name":"Place %s","vicinity":"1 Road","rating":4.1,
			"price_level":2,"types":["restaurant"],"photos":[{"photo_reference":"ref-%s"}],
			"opening_hours":{"open_now":true},"geometry":{"location":{"lat":1.5,"lng":2.5}}}`, id, id, id)
	}
	return fmt.Sprintf(`{"status":%q,"next_page_token":%q,"results":[%s]}`, status, next, results)
}

func newServer(t *testing.T, handler func(q url.Values) (int, string)) (*httptest.Server, *atomic.Int32, chan url.Values) {
	t.Helper()
	calls := &atomic.Int32{}
	queries := make(chan url.Values, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/nearbysearch/json", r.URL.Path)
		queries <- r.URL.Query()
		status, body := handler(r.URL.Query())
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, calls, queries
}

func TestAdapter_FetchCandidates_RequestShape(t *testing.T) {
	srv, _, queries := newServer(t, func(url.Values) (int, string) {
		return http.StatusOK, placesJSON(StatusOK, "", "a", "b")
	})

	a := NewAdapter(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	got, err := a.FetchCandidates(context.Background(), candidate.Filters{
		Radius:     1500.4,
		PriceLevel: 3,
		Types:      []string{"sushi"},
		Keyword:    "omakase",
	}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	q := <-queries
	require.Equal(t, "k", q.Get("key"))
	require.Equal(t, "37.7749,-122.4194", q.Get("location"))
	require.Equal(t, "1500", q.Get("radius"))
	require.Equal(t, "sushi", q.Get("type"))
	require.Equal(t, "3", q.Get("maxprice"))
	require.Equal(t, "omakase", q.Get("keyword"))

	c := got[0]
	require.Equal(t, "a", c.ID)
	require.Equal(t, "1 Road", c.Address)
	require.Equal(t, []string{"ref-a"}, c.Photos)
	require.True(t, *c.OpenNow)
	require.Equal(t, candidate.Coordinate{Lat: 1.5, Lng: 2.5}, c.Location)
}

func TestAdapter_FetchCandidates_OmitsOptionalParams(t *testing.T) {
	srv, _, queries := newServer(t, func(url.Values) (int, string) {
		return http.StatusOK, placesJSON(StatusOK, "", "a")
	})

	a := NewAdapter(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := a.FetchCandidates(context.Background(), candidate.Filters{}, &candidate.Coordinate{Lat: 40.5, Lng: -73.25})
	require.NoError(t, err)

	q := <-queries
	require.Equal(t, "40.5,-73.25", q.Get("location"))
	require.Equal(t, "5000", q.Get("radius"))
	require.Equal(t, "restaurant", q.Get("type"))
	require.False(t, q.Has("maxprice"))
	require.False(t, q.Has("keyword"))
}

func TestAdapter_FetchCandidates_DedupesAndBounds(t *testing.T) {
	ids := []string{"a", "b", "a", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	srv, _, _ := newServer(t, func(url.Values) (int, string) {
		return http.StatusOK, placesJSON(StatusOK, "", ids...)
	})

	a := NewAdapter(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	got, err := a.FetchCandidates(context.Background(), candidate.Filters{}, nil)
	require.NoError(t, err)
	require.Len(t, got, DefaultMaxCandidates)

	gotIDs := make([]string, 0, len(got))
	for _, c := range got {
		gotIDs = append(gotIDs, c.ID)
	}
	require.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}, gotIDs)
}

func TestAdapter_FetchCandidates_FollowsPages(t *testing.T) {
	srv, calls, _ := newServer(t, func(q url.Values) (int, string) {
		if q.Get("pagetoken") == "next" {
			return http.StatusOK, placesJSON(StatusOK, "", "b", "c")
		}
		return http.StatusOK, placesJSON(StatusOK, "next", "a", "b")
	})

	a := NewAdapter(Config{APIKey: "k", BaseURL: srv.URL, MaxPages: 3}, nil)
	got, err := a.FetchCandidates(context.Background(), candidate.Filters{}, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int32(2), calls.Load())

	single := NewAdapter(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	got, err = single.FetchCandidates(context.Background(), candidate.Filters{}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestAdapter_FetchCandidates_KeepsPagesOnLaterFailure(t *testing.T) {
	srv, calls, _ := newServer(t, func(q url.Values) (int, string) {
		if q.Get("pagetoken") == "next" {
			return http.StatusInternalServerError, "boom"
		}
		return http.StatusOK, placesJSON(StatusOK, "next", "a", "b")
	})

	var fallbacks int
	a := NewAdapter(Config{APIKey: "k", BaseURL: srv.URL, MaxPages: 3}, nil, WithFallbackHook(func(string) { fallbacks++ }))
	got, err := a.FetchCandidates(context.Background(), candidate.Filters{}, nil)
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)
	require.Zero(t, fallbacks)
}

func TestAdapter_FetchCandidates_ZeroResultsIsNotFailure(t *testing.T) {
	srv, _, _ := newServer(t, func(url.Values) (int, string) {
		return http.StatusOK, placesJSON(StatusZeroResults, "")
	})

	var fallbacks int
	a := NewAdapter(Config{APIKey: "k", BaseURL: srv.URL}, nil, WithFallbackHook(func(string) { fallbacks++ }))
	got, err := a.FetchCandidates(context.Background(), candidate.Filters{}, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Zero(t, fallbacks)
}

func TestAdapter_FetchCandidates_FallsBackOnFailure(t *testing.T) {
	cases := map[string]func(url.Values) (int, string){
		"http error":     func(url.Values) (int, string) { return http.StatusInternalServerError, "boom" },
		"malformed json": func(url.Values) (int, string) { return http.StatusOK, "{not json" },
		"denied status":  func(url.Values) (int, string) { return http.StatusOK, placesJSON("REQUEST_DENIED", "") },
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _, _ := newServer(t, handler)

			var reasons []string
			a := NewAdapter(Config{APIKey: "k", BaseURL: srv.URL}, nil, WithFallbackHook(func(r string) { reasons = append(reasons, r) }))
			got, err := a.FetchCandidates(context.Background(), candidate.Filters{}, nil)
			require.NoError(t, err)
			require.Len(t, got, DefaultMaxCandidates)
			require.Equal(t, "fallback-1", got[0].ID)
			require.Equal(t, []string{"upstream_error"}, reasons)
		})
	}
}

func TestAdapter_FetchCandidates_NoAPIKey(t *testing.T) {
	var reasons []string
	a := NewAdapter(Config{BaseURL: "http://127.0.0.1:1"}, nil, WithFallbackHook(func(r string) { reasons = append(reasons, r) }))
	got, err := a.FetchCandidates(context.Background(), candidate.Filters{Types: []string{"japanese"}}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"no_api_key"}, reasons)

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"Sushi Master", "Ramen Shop"}, names)
}

func TestAdapter_FetchCandidates_FallbackEmptyAfterFilter(t *testing.T) {
	filters := candidate.Filters{Keyword: "unicorn"}

	strict := NewAdapter(Config{}, nil)
	got, err := strict.FetchCandidates(context.Background(), filters, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	quirk := NewAdapter(Config{FallbackUnfilteredOnEmpty: true}, nil)
	got, err = quirk.FetchCandidates(context.Background(), filters, nil)
	require.NoError(t, err)
	require.Len(t, got, DefaultMaxCandidates)
}

func TestAdapter_FetchCandidates_CanceledContext(t *testing.T) {
	srv, _, _ := newServer(t, func(url.Values) (int, string) {
		return http.StatusOK, placesJSON(StatusOK, "", "a")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAdapter(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := a.FetchCandidates(ctx, candidate.Filters{}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFilterFallback(t *testing.T) {
	pool := FallbackPool()
	require.Len(t, pool, 15)

	byPrice := FilterFallback(pool, candidate.Filters{PriceLevel: 4, Types: []string{"restaurant"}})
	require.Len(t, byPrice, 1)
	require.Equal(t, "Steak House", byPrice[0].Name)

	byKeyword := FilterFallback(pool, candidate.Filters{Keyword: "RAMEN", Types: []string{"restaurant"}})
	require.Len(t, byKeyword, 1)
	require.Equal(t, "fallback-9", byKeyword[0].ID)

	byType := FilterFallback(pool, candidate.Filters{Types: []string{"american"}, PriceLevel: 3})
	require.Len(t, byType, 1)
	require.Equal(t, "BBQ Pit", byType[0].Name)

	require.Len(t, FilterFallback(pool, candidate.Filters{Types: []string{"restaurant", "thai"}}), 15)
}
