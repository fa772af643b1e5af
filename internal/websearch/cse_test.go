package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDateRestrict(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"d1", "d1"},
		{"D3", "d3"},
		{" w2 ", "w2"},
		{"m6", "m6"},
		{"y1", "y1"},
		{"h6", "d1"}, // no hour granularity upstream
		{"h", "d1"},
		{"d0", "d1"},
		{"w-2", ""},
		{"x9", ""},
		{"dx", ""},
		{"7d", ""},
	}
	for _, c := range cases {
		if got := NormalizeDateRestrict(c.in); got != c.want {
			t.Errorf("NormalizeDateRestrict(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSearchMissingCredentials(t *testing.T) {
	c := NewClient("", "", nil)
	results, diag := c.Search(context.Background(), "anything", Options{})
	assert.Empty(t, results)
	assert.False(t, diag.OK)
	assert.Contains(t, diag.Error, "credentials missing")
}

func TestSearchParsesAndBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "d1", r.URL.Query().Get("dateRestrict"))
		assert.Equal(t, "2", r.URL.Query().Get("num"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"title": "First", "link": "https://a.example", "displayLink": "a.example", "snippet": "s1",
					"pagemap": map[string]any{"metatags": []map[string]string{{"article:published_time": "2026-08-27"}}}},
				{"title": "Second", "link": "https://b.example", "displayLink": "b.example", "snippet": "s2"},
				{"title": "Third", "link": "https://c.example", "displayLink": "c.example", "snippet": "s3"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("key", "cx", nil)
	c.SetBaseURL(srv.URL)
	results, diag := c.Search(context.Background(), "fresh news", Options{Count: 2, DateRestrict: "h3"})
	require.True(t, diag.OK)
	require.Len(t, results, 2)
	assert.Equal(t, "First", results[0].Title)
	assert.Equal(t, "2026-08-27", results[0].PublishedAt)
	assert.Empty(t, results[1].PublishedAt)
}

func TestSearchNewsBiasRewritesQuery(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	c := NewClient("key", "cx", nil)
	c.SetBaseURL(srv.URL)
	_, diag := c.Search(context.Background(), "elections", Options{NewsBias: true})
	assert.True(t, diag.OK)
	assert.Contains(t, gotQ, "elections (site:news.google.com OR site:reuters.com")
	// Empty result set is still OK, with an explanatory hint.
	assert.Contains(t, diag.Error, "No items returned")
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClient("key", "cx", nil)
	c.SetBaseURL(srv.URL)
	results, diag := c.Search(context.Background(), "q", Options{})
	assert.Empty(t, results)
	assert.False(t, diag.OK)
	assert.Equal(t, http.StatusForbidden, diag.Status)
	assert.Equal(t, "quota exceeded", diag.Error)
}

func TestSearchUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewCache(mr.Addr())

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"items":[{"title":"Cached","link":"https://x.example","displayLink":"x.example","snippet":"s"}]}`))
	}))
	defer srv.Close()

	c := NewClient("key", "cx", cache)
	c.SetBaseURL(srv.URL)

	opts := Options{Count: 3, DateRestrict: "d1"}
	first, diag := c.Search(context.Background(), "repeat me", opts)
	require.True(t, diag.OK)
	require.Len(t, first, 1)

	second, diag := c.Search(context.Background(), "repeat me", opts)
	require.True(t, diag.OK)
	require.Len(t, second, 1)
	assert.Equal(t, "Cached", second[0].Title)
	assert.Equal(t, 1, calls, "second search must be served from cache")

	// Different options miss the cache.
	c.Search(context.Background(), "repeat me", Options{Count: 5, DateRestrict: "w1"})
	assert.Equal(t, 2, calls)
}
