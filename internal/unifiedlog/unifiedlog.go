// Package unifiedlog is the append-only interaction log: one record per user
// turn and one per assistant turn, keyed so lexicographic order equals
// chronological order. Records are immutable once written.
package unifiedlog

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"time"

	"server-kai/internal/intent"
	"server-kai/internal/statestore"
	"server-kai/internal/traits"
)

// Root is the log path in the state store.
const Root = "unified_log"

// KeyTimeLayout is the timestamp prefix of every log key. Lexicographic order
// of keys generated from it is chronological.
const KeyTimeLayout = "20060102T150405"

// UserSuffix marks the user-side record of a turn. The user record is
// written at turn start and the assistant record at turn end, so keys stay
// chronological.
const UserSuffix = "USER"

// Record is one interaction log entry.
type Record struct {
	UserInput      string          `json:"user_input,omitempty"`
	Content        string          `json:"content,omitempty"`
	Source         string          `json:"source,omitempty"`
	Timestamp      string          `json:"timestamp"`
	Tags           []string        `json:"tags,omitempty"`
	PersonaDelta   traits.Delta    `json:"persona_delta,omitempty"`
	MoodDelta      traits.Delta    `json:"mood_delta,omitempty"`
	ActualDeltas   traits.Delta    `json:"actual_deltas,omitempty"`
	Context        string          `json:"context,omitempty"`
	MBTI           string          `json:"mbti,omitempty"`
	Profile        traits.Values   `json:"profile,omitempty"`
	Mood           traits.Values   `json:"mood,omitempty"`
	Labels         *traits.LabelSet `json:"labels,omitempty"`
	ProfileSummary string          `json:"profile_summary,omitempty"`
	WebUsed        bool            `json:"web_used"`
	LiveUsed       string          `json:"live_used,omitempty"`
	DecisionDebug  *intent.Trace   `json:"decision_debug,omitempty"`
}

// DeltaEntry is one applied trait delta surfaced by RecentDeltas.
type DeltaEntry struct {
	Trait string `json:"trait"`
	Delta int    `json:"delta"`
	TS    string `json:"ts"`
}

// DeltaGroup groups the non-zero applied deltas of one log record.
type DeltaGroup struct {
	Key    string       `json:"key"`
	Deltas []DeltaEntry `json:"deltas"`
}

// Log appends to and reads from the unified interaction log.
type Log struct {
	store statestore.Store
}

func New(store statestore.Store) *Log {
	return &Log{store: store}
}

// Key builds the timestamp-derived, sortable record key.
func Key(ts time.Time, source, suffix string) string {
	return ts.Format(KeyTimeLayout) + "-" + source + "-" + suffix
}

// EnsureExists initializes an absent log to an empty object. Best-effort,
// called once at startup.
func (l *Log) EnsureExists(ctx context.Context) {
	var probe map[string]json.RawMessage
	found, err := l.store.Get(ctx, Root, &probe)
	if err != nil {
		log.Printf("[LOG] ensure exists warn: %v", err)
		return
	}
	if !found {
		if err := l.store.Put(ctx, Root, map[string]any{}); err != nil {
			log.Printf("[LOG] init warn: %v", err)
		}
	}
}

// Write appends one record under key. Failures are logged, never propagated:
// the log is best-effort.
func (l *Log) Write(ctx context.Context, key string, rec Record) {
	if err := l.store.Put(ctx, Root+"/"+key, rec); err != nil {
		log.Printf("[LOG] write failed key=%s: %v", key, err)
	}
}

// History reconstructs up to turns recent conversation lines as alternating
// "User:" / "<agent>:" lines. At least 10 records are fetched so short
// requests still see context. Failures yield an empty history.
func (l *Log) History(ctx context.Context, turns int, agentName string) []string {
	fetch := turns
	if fetch < 10 {
		fetch = 10
	}
	records, keys, err := l.recent(ctx, fetch)
	if err != nil {
		log.Printf("[LOG] history warn: %v", err)
		return nil
	}
	if len(keys) > turns {
		keys = keys[len(keys)-turns:]
	}
	var lines []string
	for _, k := range keys {
		rec := records[k]
		if rec.UserInput != "" {
			lines = append(lines, "User: "+rec.UserInput)
		}
		if rec.Content != "" {
			lines = append(lines, agentName+": "+rec.Content)
		}
	}
	return lines
}

// RecentDeltas extracts the non-zero applied deltas of the last limit
// records, for the state inspection surface.
func (l *Log) RecentDeltas(ctx context.Context, limit int) []DeltaGroup {
	records, keys, err := l.recent(ctx, limit)
	if err != nil {
		log.Printf("[LOG] recent deltas warn: %v", err)
		return nil
	}
	var groups []DeltaGroup
	for _, k := range keys {
		rec := records[k]
		if len(rec.ActualDeltas) == 0 {
			continue
		}
		var entries []DeltaEntry
		for trait, d := range rec.ActualDeltas {
			if d != 0 {
				entries = append(entries, DeltaEntry{Trait: trait, Delta: d, TS: rec.Timestamp})
			}
		}
		if len(entries) > 0 {
			sort.Slice(entries, func(i, j int) bool { return entries[i].Trait < entries[j].Trait })
			groups = append(groups, DeltaGroup{Key: k, Deltas: entries})
		}
	}
	return groups
}

// recent returns the last limit records and their keys in ascending order.
func (l *Log) recent(ctx context.Context, limit int) (map[string]Record, []string, error) {
	raw, err := l.store.Range(ctx, Root, limit)
	if err != nil {
		return nil, nil, err
	}
	records := make(map[string]Record, len(raw))
	keys := make([]string, 0, len(raw))
	for k, v := range raw {
		var rec Record
		if err := json.Unmarshal(v, &rec); err != nil {
			continue
		}
		records[k] = rec
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}
	return records, keys, nil
}
