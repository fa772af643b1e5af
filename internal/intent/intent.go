// Package intent classifies a raw utterance into exactly one response
// strategy. Classification is pure and deterministic: an explicit ordered
// rule list, first match wins, so precedence is testable on its own.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the routing decision for one utterance.
type Intent int

const (
	Plain Intent = iota
	NativeTime
	NativeWeather
	HeadlineSearch
	WebGrounded
)

func (i Intent) String() string {
	switch i {
	case NativeTime:
		return "native-time"
	case NativeWeather:
		return "native-weather"
	case HeadlineSearch:
		return "headline-search"
	case WebGrounded:
		return "web-grounded"
	default:
		return "plain"
	}
}

// Trace records which router branches fired; persisted with the turn.
type Trace struct {
	MatchedTime    bool `json:"matched_time"`
	MatchedWeather bool `json:"matched_weather"`
	WebTriggered   bool `json:"web_triggered"`
}

var (
	timeRe    = regexp.MustCompile(`(?i)\b(time|current time|what time is it|time in)\b`)
	weatherRe = regexp.MustCompile(`(?i)\b(weather|forecast|temperature|rain|wind|humidity|uv index)\b`)

	// News / live-topic keywords: fresh events, scores, markets, schedules,
	// policy and economics, named leagues.
	newsyRe = regexp.MustCompile(`(?i)\b(` +
		`latest|today|tonight|now|right\s*now|breaking|this week|this month|recent|update|` +
		`news|headlines|top stories|trending|` +
		`who won|final score|live score|score|results|fixture|match|game|kickoff|tipoff|` +
		`release date|when is|schedule|` +
		`earnings|stock|share price|ipo|crypto|bitcoin|ethereum|exchange rate|` +
		`traffic|queue times|flight status|` +
		`covid|inflation|rate|mortgage|fed|election|poll|` +
		`nba|nfl|mlb|nhl|epl|uefa|f1|formula 1|tennis|golf` +
		`)\b`)

	yearRe     = regexp.MustCompile(`\b(19\d{2}|20[0-5]\d)\b`)
	urlishRe   = regexp.MustCompile(`(?i)https?://|www\.`)
	headlineRe = regexp.MustCompile(`(?i)\b(news|headlines|breaking|top stories|latest)\b`)
)

// tiny fixed phrase set that is always searchable on exact match
var searchPhrases = map[string]bool{"news": true, "headlines": true, "top news": true}

// MatchesTime reports whether the utterance asks for the current time.
func MatchesTime(text string) bool { return timeRe.MatchString(text) }

// MatchesWeather reports whether the utterance asks about weather.
func MatchesWeather(text string) bool { return weatherRe.MatchString(text) }

// IsHeadline reports whether a searchable utterance wants a headline digest
// rather than a grounded answer.
func IsHeadline(text string) bool { return headlineRe.MatchString(text) }

// ShouldSearch decides whether to hit the web for fresh or contextual info.
// Time and weather are handled natively and never trigger search.
func ShouldSearch(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if timeRe.MatchString(t) || weatherRe.MatchString(t) {
		return false
	}
	if strings.Contains(strings.ToLower(t), "search") || urlishRe.MatchString(t) {
		return true
	}
	if newsyRe.MatchString(t) {
		return true
	}
	if yearRe.MatchString(t) {
		return true
	}
	if strings.Contains(t, "?") && len(strings.Fields(t)) > 10 {
		return true
	}
	return searchPhrases[strings.ToLower(t)]
}

// rule pairs a predicate with the intent it selects.
type rule struct {
	name  string
	match func(string) bool
	pick  func(string) Intent
}

// Ordered precedence. Time and weather must never be overridden by
// generative output, so they are checked before any search logic.
var rules = []rule{
	{"time", MatchesTime, func(string) Intent { return NativeTime }},
	{"weather", MatchesWeather, func(string) Intent { return NativeWeather }},
	{"search", ShouldSearch, func(t string) Intent {
		if IsHeadline(t) {
			return HeadlineSearch
		}
		return WebGrounded
	}},
}

// Classify returns exactly one Intent for the utterance. Total: falls
// through to Plain when no rule matches.
func Classify(utterance string) Intent {
	for _, r := range rules {
		if r.match(utterance) {
			return r.pick(utterance)
		}
	}
	return Plain
}
