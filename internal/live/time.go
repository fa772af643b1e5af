package live

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultZone is reported when no place resolves to a timezone.
const DefaultZone = "Asia/Bahrain"

// Known city names mapped straight to timezone identifiers; the timezone
// directory is only consulted for places outside this table.
var cityToZone = map[string]string{
	"manama": "Asia/Bahrain", "bahrain": "Asia/Bahrain",
	"dubai": "Asia/Dubai", "abu dhabi": "Asia/Dubai",
	"riyadh": "Asia/Riyadh", "doha": "Asia/Qatar", "kuwait": "Asia/Kuwait",
	"london": "Europe/London", "paris": "Europe/Paris", "berlin": "Europe/Berlin",
	"madrid": "Europe/Madrid", "rome": "Europe/Rome",
	"new york": "America/New_York", "nyc": "America/New_York", "los angeles": "America/Los_Angeles",
	"san francisco": "America/Los_Angeles", "chicago": "America/Chicago", "austin": "America/Chicago",
	"tokyo": "Asia/Tokyo", "singapore": "Asia/Singapore", "hong kong": "Asia/Hong_Kong",
	"mumbai": "Asia/Kolkata", "delhi": "Asia/Kolkata", "sydney": "Australia/Sydney",
	"cairo": "Africa/Cairo", "istanbul": "Europe/Istanbul",
}

// TimeResolver answers "what time is it in X" natively.
type TimeResolver struct {
	baseURL string // timezone directory + current-time provider
	client  *http.Client
	now     func() time.Time
}

func NewTimeResolver() *TimeResolver {
	return &TimeResolver{
		baseURL: "http://worldtimeapi.org/api/timezone",
		client:  &http.Client{Timeout: 8 * time.Second},
		now:     time.Now,
	}
}

// SetBaseURL overrides the provider endpoint (tests).
func (r *TimeResolver) SetBaseURL(u string) { r.baseURL = strings.TrimRight(u, "/") }

// Resolve always returns a displayable sentence. Upstream failure falls back
// to the local process clock with an explicit hedge.
func (r *TimeResolver) Resolve(ctx context.Context, utterance string) string {
	place := ExtractPlace(utterance, "time in")
	zone := ""
	if tz, ok := cityToZone[place]; ok {
		zone = tz
	} else if place != "" {
		zone = r.lookupZone(ctx, place)
	}
	if zone == "" {
		zone = DefaultZone
	}

	if sentence := r.fetchCurrent(ctx, zone); sentence != "" {
		return sentence
	}
	local := r.now().Format("2006-01-02 15:04:05")
	return fmt.Sprintf("Current server time is **%s** (local timezone).", local)
}

// lookupZone scans the timezone directory for the first identifier that
// contains the place token.
func (r *TimeResolver) lookupZone(ctx context.Context, place string) string {
	body, err := r.get(ctx, r.baseURL)
	if err != nil {
		log.Printf("[LIVE] time zone list warn: %v", err)
		return ""
	}
	var zones []string
	if err := json.Unmarshal(body, &zones); err != nil {
		return ""
	}
	needle := strings.ReplaceAll(place, " ", "_")
	for _, z := range zones {
		if strings.Contains(strings.ToLower(z), needle) {
			return z
		}
	}
	return ""
}

func (r *TimeResolver) fetchCurrent(ctx context.Context, zone string) string {
	body, err := r.get(ctx, r.baseURL+"/"+zone)
	if err != nil {
		log.Printf("[LIVE] time fetch warn: %v", err)
		return ""
	}
	var parsed struct {
		Datetime  string `json:"datetime"`
		UTCOffset string `json:"utc_offset"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Datetime == "" {
		return ""
	}
	dt := strings.Replace(parsed.Datetime, "T", " ", 1)
	if i := strings.Index(dt, "."); i >= 0 {
		dt = dt[:i]
	}
	return fmt.Sprintf("Current time in %s is **%s** (UTC%s).", zone, dt, parsed.UTCOffset)
}

func (r *TimeResolver) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status=%d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
