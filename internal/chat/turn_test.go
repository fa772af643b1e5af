package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"server-kai/internal/ai"
	"server-kai/internal/profile"
	"server-kai/internal/statestore"
	"server-kai/internal/unifiedlog"
	"server-kai/internal/websearch"
)

type fakeLLM struct {
	chatReply   string
	chatErr     error
	taggerReply string
	chatCalls   int
	taggerCalls int
	lastSystem  string
}

func (f *fakeLLM) Generate(ctx context.Context, model string, messages []ai.Message) (string, error) {
	if model == "tagger-model" {
		f.taggerCalls++
		if f.taggerReply == "" {
			return "", errors.New("no tagger scripted")
		}
		return f.taggerReply, nil
	}
	f.chatCalls++
	for _, m := range messages {
		if m.Role == "system" {
			f.lastSystem = m.Content
		}
	}
	return f.chatReply, f.chatErr
}

type fakeSearch struct {
	results []websearch.Result
	diag    websearch.Diagnostics
	calls   int
	lastQ   string
}

func (f *fakeSearch) Search(ctx context.Context, q string, opts websearch.Options) ([]websearch.Result, websearch.Diagnostics) {
	f.calls++
	f.lastQ = q
	return f.results, f.diag
}

type staticResolver string

func (s staticResolver) Resolve(ctx context.Context, utterance string) string { return string(s) }

type fixture struct {
	svc      *Service
	llm      *fakeLLM
	search   *fakeSearch
	profiles *profile.Gateway
	journal  *unifiedlog.Log
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := statestore.NewLocal(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	llm := &fakeLLM{chatReply: "generated reply", taggerReply: `{"tags":["warm"],"persona_delta":{"feeling":2},"mood_delta":{"valence":3},"context_intensity":"normal"}`}
	search := &fakeSearch{diag: websearch.Diagnostics{OK: true}}
	gw := profile.NewGateway(store, 0)
	journal := unifiedlog.New(store)

	svc := NewService(Deps{
		AI:          ai.NewClient(llm),
		Profiles:    gw,
		Journal:     journal,
		Search:      search,
		Time:        staticResolver("Current time in Asia/Tokyo is **2026-08-28 21:00:00** (UTC+09:00)."),
		Weather:     staticResolver("Weather now in Manama, Bahrain: **38°C**, 60% RH, 3 m/s wind."),
		AgentName:   "Kai",
		UserName:    "Darc",
		ChatModel:   "chat-model",
		TaggerModel: "tagger-model",
	})
	return &fixture{svc: svc, llm: llm, search: search, profiles: gw, journal: journal}
}

func TestTurnTimeShortCircuit(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Turn(context.Background(), Request{Text: "time in Tokyo"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Response, "Current time in Asia/Tokyo") {
		t.Fatalf("response = %q", resp.Response)
	}
	if f.llm.chatCalls != 0 || f.llm.taggerCalls != 0 {
		t.Fatal("time answers must never reach the model")
	}
	if resp.LiveUsed != "time" || resp.WebUsed {
		t.Fatalf("flags: live=%q web=%v", resp.LiveUsed, resp.WebUsed)
	}
	if !resp.Decision.MatchedTime || resp.Decision.MatchedWeather {
		t.Fatalf("trace: %+v", resp.Decision)
	}
	if len(resp.ActualDeltas) != 0 || resp.Summary != "" {
		t.Fatal("short-circuit turns carry no deltas or summary")
	}
}

func TestTurnWeatherInjectsLiveData(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Turn(context.Background(), Request{Text: "weather in Manama"})
	if err != nil {
		t.Fatal(err)
	}
	// Weather goes through generation with the reading injected, unlike time.
	if resp.Response != "generated reply" {
		t.Fatalf("response = %q", resp.Response)
	}
	if f.llm.chatCalls != 1 {
		t.Fatalf("chat calls = %d", f.llm.chatCalls)
	}
	if !strings.Contains(f.llm.lastSystem, "--- LIVE DATA (WEATHER) ---") ||
		!strings.Contains(f.llm.lastSystem, "Weather now in Manama") {
		t.Fatalf("live data missing from prompt:\n%s", f.llm.lastSystem)
	}
	if resp.LiveUsed != "weather" || !resp.Decision.MatchedWeather {
		t.Fatalf("flags: live=%q trace=%+v", resp.LiveUsed, resp.Decision)
	}
	if f.search.calls != 0 {
		t.Fatal("weather must not trigger search")
	}
	// Tagger deltas applied and surfaced.
	if resp.ActualDeltas["valence"] != 3 || resp.Mood["valence"] != 63 {
		t.Fatalf("deltas not applied: actual=%v mood=%v", resp.ActualDeltas, resp.Mood)
	}
}

func TestTurnWeatherFallsBackToLiveText(t *testing.T) {
	f := newFixture(t)
	f.llm.chatErr = errors.New("provider down")
	f.llm.taggerReply = ""
	resp, err := f.svc.Turn(context.Background(), Request{Text: "weather in Manama"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Response, "Weather now in Manama") {
		t.Fatalf("expected live-text fallback, got %q", resp.Response)
	}
}

func TestTurnPlainFallbackApology(t *testing.T) {
	f := newFixture(t)
	f.llm.chatErr = errors.New("provider down")
	f.llm.taggerReply = ""
	resp, err := f.svc.Turn(context.Background(), Request{Text: "tell me something nice"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Response != fallbackError {
		t.Fatalf("expected apology fallback, got %q", resp.Response)
	}
}

func TestTurnEmptyReplyFallback(t *testing.T) {
	f := newFixture(t)
	f.llm.chatReply = ""
	resp, err := f.svc.Turn(context.Background(), Request{Text: "tell me something nice"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Response != fallbackEmpty {
		t.Fatalf("expected empty-reply fallback, got %q", resp.Response)
	}
}

func TestTurnHeadlineDigest(t *testing.T) {
	f := newFixture(t)
	f.search.results = []websearch.Result{{Title: "Big Story", DisplayLink: "news.example"}}
	resp, err := f.svc.Turn(context.Background(), Request{Text: "any headlines today?"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Response, "Here are some current headlines:\n1. Big Story — news.example") {
		t.Fatalf("digest = %q", resp.Response)
	}
	if f.llm.chatCalls != 0 {
		t.Fatal("headline digests bypass generation")
	}
	if !resp.WebUsed || !resp.Decision.WebTriggered {
		t.Fatalf("flags: web=%v trace=%+v", resp.WebUsed, resp.Decision)
	}
}

func TestTurnGroundedAddsWebContext(t *testing.T) {
	f := newFixture(t)
	f.search.results = []websearch.Result{{Title: "Price Watch", Link: "https://x.example", Snippet: "BTC up"}}
	resp, err := f.svc.Turn(context.Background(), Request{Text: "bitcoin price"})
	if err != nil {
		t.Fatal(err)
	}
	if f.search.calls != 1 || f.search.lastQ != "bitcoin price" {
		t.Fatalf("search: calls=%d q=%q", f.search.calls, f.search.lastQ)
	}
	if !strings.Contains(f.llm.lastSystem, "--- WEB CONTEXT START ---") ||
		!strings.Contains(f.llm.lastSystem, "[1] Price Watch") {
		t.Fatalf("web context missing from prompt:\n%s", f.llm.lastSystem)
	}
	if !resp.WebUsed || !resp.Decision.WebTriggered {
		t.Fatalf("flags: web=%v trace=%+v", resp.WebUsed, resp.Decision)
	}
}

func TestTurnGroundedEmptyResultsStillAnswers(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Turn(context.Background(), Request{Text: "bitcoin price"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Response != "generated reply" {
		t.Fatalf("response = %q", resp.Response)
	}
	if resp.WebUsed || resp.Decision.WebTriggered {
		t.Fatal("no results means no web context and no trigger flag")
	}
	if strings.Contains(f.llm.lastSystem, "WEB CONTEXT") {
		t.Fatal("empty context must not be injected")
	}
}

func TestTurnPersistsAgentProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Turn(ctx, Request{Text: "tell me something nice"}); err != nil {
		t.Fatal(err)
	}
	p := f.profiles.Load(ctx, profile.Agent, "Kai")
	if p.Personality["feeling"] != 802 {
		t.Fatalf("persona delta not persisted: %v", p.Personality)
	}
	if p.Mood["valence"] != 63 {
		t.Fatalf("mood delta not persisted: %v", p.Mood)
	}
	s := f.profiles.LoadSummary(ctx, profile.Agent, "Kai")
	if s == nil || s.MBTI != "INFP" {
		t.Fatalf("summary not written: %+v", s)
	}
}

func TestTurnJournalsBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Turn(ctx, Request{Text: "hi there"}); err != nil {
		t.Fatal(err)
	}
	lines := f.journal.History(ctx, 10, "Kai")
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "User: hi there") {
		t.Fatalf("user side missing: %v", lines)
	}
	if !strings.Contains(joined, "Kai: generated reply") {
		t.Fatalf("assistant side missing: %v", lines)
	}
}
