package unifiedlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"server-kai/internal/statestore"
	"server-kai/internal/traits"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	store, err := statestore.NewLocal(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestKeyFormat(t *testing.T) {
	ts := time.Date(2026, 8, 28, 14, 5, 9, 0, time.UTC)
	if got := Key(ts, "app", UserSuffix); got != "20260828T140509-app-USER" {
		t.Fatalf("user key = %q", got)
	}
	if got := Key(ts, "web", "Kai"); got != "20260828T140509-web-Kai" {
		t.Fatalf("assistant key = %q", got)
	}
}

func TestKeysSortChronologically(t *testing.T) {
	earlier := Key(time.Date(2026, 8, 28, 9, 59, 59, 0, time.UTC), "app", "Kai")
	later := Key(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC), "app", UserSuffix)
	if earlier >= later {
		t.Fatalf("lexicographic order must follow time: %q vs %q", earlier, later)
	}
}

func TestHistoryInterleavesTurns(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		tsU := base.Add(time.Duration(2*i) * time.Second)
		tsA := base.Add(time.Duration(2*i+1) * time.Second)
		l.Write(ctx, Key(tsU, "app", UserSuffix), Record{
			UserInput: fmt.Sprintf("question %d", i),
			Timestamp: tsU.Format(KeyTimeLayout),
		})
		l.Write(ctx, Key(tsA, "app", "Kai"), Record{
			UserInput: fmt.Sprintf("question %d", i),
			Content:   fmt.Sprintf("answer %d", i),
			Timestamp: tsA.Format(KeyTimeLayout),
		})
	}

	lines := l.History(ctx, 10, "Kai")
	if len(lines) != 9 {
		// 3 user-only records plus 3 assistant records carrying both sides
		t.Fatalf("want 9 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "User: question 0" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[len(lines)-1] != "Kai: answer 2" {
		t.Errorf("last line = %q", lines[len(lines)-1])
	}
}

func TestHistoryCapsTurns(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		l.Write(ctx, Key(ts, "app", UserSuffix), Record{
			UserInput: fmt.Sprintf("m%d", i),
			Timestamp: ts.Format(KeyTimeLayout),
		})
	}
	lines := l.History(ctx, 4, "Kai")
	if len(lines) != 4 {
		t.Fatalf("want 4 lines, got %d", len(lines))
	}
	if lines[3] != "User: m14" {
		t.Errorf("newest record must survive the cap: %q", lines[3])
	}
}

func TestRecentDeltasSkipsZeroAndEmpty(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	l.Write(ctx, Key(base, "app", "Kai"), Record{
		Timestamp: base.Format(KeyTimeLayout),
		// no deltas at all
	})
	l.Write(ctx, Key(base.Add(time.Second), "app", "Kai"), Record{
		Timestamp:    base.Add(time.Second).Format(KeyTimeLayout),
		ActualDeltas: traits.Delta{"valence": 2, "focus": 0},
	})

	groups := l.RecentDeltas(ctx, 60)
	if len(groups) != 1 {
		t.Fatalf("want one group, got %d", len(groups))
	}
	if len(groups[0].Deltas) != 1 || groups[0].Deltas[0].Trait != "valence" || groups[0].Deltas[0].Delta != 2 {
		t.Fatalf("unexpected deltas: %+v", groups[0].Deltas)
	}
}
