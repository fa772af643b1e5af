// Package websearch is the search augmenter: it queries a Google CSE shaped
// provider, normalizes results, and formats either a headline digest or a
// citation-ready context block for grounded generation.
package websearch

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
)

const DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Result is one normalized search hit.
type Result struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	DisplayLink string `json:"displayLink"`
	Snippet     string `json:"snippet"`
	PublishedAt string `json:"publishedAt"`
}

// Diagnostics lets callers distinguish "no matches" from "misconfigured
// credentials" instead of a generic failure.
type Diagnostics struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Options tunes one search call.
type Options struct {
	Count        int    // bounded 1..10
	DateRestrict string // dN/wN/mN/yN; hN coerced to d1; else omitted
	Language     string
	Region       string
	NewsBias     bool
}

func (o *Options) defaults() {
	if o.Count <= 0 {
		o.Count = 5
	}
	if o.Count > 10 {
		o.Count = 10
	}
	if o.Language == "" {
		o.Language = "en"
	}
	if o.Region == "" {
		o.Region = "us"
	}
}

// Reputable news domains ORed into the query when news bias is on.
var newsDomains = []string{
	"news.google.com", "reuters.com", "apnews.com",
	"bbc.com", "cnn.com", "aljazeera.com", "theguardian.com",
}

// Page-metadata keys tried in order for a best-effort published timestamp.
var publishedKeys = []string{
	"og:updated_time", "article:modified_time", "article:published_time",
	"pubdate", "date", "og:pubdate",
}

// Client queries the search provider. Cache is optional.
type Client struct {
	apiKey  string
	cseID   string
	baseURL string
	client  *http.Client
	cache   *Cache
}

func NewClient(apiKey, cseID string, cache *Cache) *Client {
	return &Client{
		apiKey:  apiKey,
		cseID:   cseID,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 12 * time.Second},
		cache:   cache,
	}
}

// SetBaseURL overrides the provider endpoint (tests).
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

// NormalizeDateRestrict coerces v to dN/wN/mN/yN with N >= 1. Hour units
// become d1 (the provider has no hour granularity); anything unparseable
// returns "" and must be omitted, never sent upstream.
func NormalizeDateRestrict(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return ""
	}
	if v[0] == 'h' {
		return "d1"
	}
	if len(v) >= 2 && strings.ContainsRune("dwmy", rune(v[0])) {
		digits := v[1:]
		for _, r := range digits {
			if r < '0' || r > '9' {
				return ""
			}
		}
		if n, err := strconv.Atoi(digits); err == nil {
			if n < 1 {
				n = 1
			}
			return fmt.Sprintf("%c%d", v[0], n)
		}
	}
	return ""
}

// Search runs one query. Diagnostics are always populated; results may be
// empty with OK still true (engine restrictions or genuinely no matches).
func (c *Client) Search(ctx context.Context, query string, opts Options) ([]Result, Diagnostics) {
	opts.defaults()
	diag := Diagnostics{}

	if c.apiKey == "" || c.cseID == "" {
		diag.Error = "search credentials missing (GOOGLE_API_KEY or GOOGLE_CSE_ID)"
		return nil, diag
	}

	if hit, ok := c.cache.Get(ctx, query, opts); ok {
		diag.OK = true
		diag.Status = http.StatusOK
		return hit, diag
	}

	q := query
	if opts.NewsBias {
		var sites []string
		for _, d := range newsDomains {
			sites = append(sites, "site:"+d)
		}
		q = fmt.Sprintf("%s (%s)", query, strings.Join(sites, " OR "))
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cseID)
	params.Set("q", q)
	params.Set("num", strconv.Itoa(opts.Count))
	params.Set("hl", opts.Language)
	params.Set("gl", opts.Region)
	params.Set("safe", "off")
	if dr := NormalizeDateRestrict(opts.DateRestrict); dr != "" {
		params.Set("dateRestrict", dr)
	}

	reqURL := c.baseURL + "?" + params.Encode()
	diag.URL = reqURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		diag.Error = err.Error()
		return nil, diag
	}
	resp, err := c.client.Do(req)
	if err != nil {
		diag.Error = err.Error()
		return nil, diag
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	diag.Status = resp.StatusCode

	var parsed cseResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
			diag.Error = parsed.Error.Message
		} else {
			diag.Error = truncate(body)
		}
		return nil, diag
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		diag.Error = "decode: " + err.Error()
		return nil, diag
	}
	if parsed.Error.Message != "" {
		diag.Error = parsed.Error.Message
		return nil, diag
	}

	results := make([]Result, 0, len(parsed.Items))
	for i, it := range parsed.Items {
		if i >= opts.Count {
			break
		}
		results = append(results, Result{
			Title:       it.Title,
			Link:        it.Link,
			DisplayLink: it.DisplayLink,
			Snippet:     it.Snippet,
			PublishedAt: extractPublished(it.PageMap.MetaTags),
		})
	}
	diag.OK = true
	if len(results) == 0 {
		diag.Error = "No items returned (engine restrictions or empty results)."
	} else {
		c.cache.Set(ctx, query, opts, results)
	}
	return results, diag
}

type cseResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
		Snippet     string `json:"snippet"`
		PageMap     struct {
			MetaTags []map[string]string `json:"metatags"`
		} `json:"pagemap"`
	} `json:"items"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func extractPublished(meta []map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	m := meta[0]
	for _, k := range publishedKeys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
