package ai

import (
	"testing"
)

func TestParseTagResult(t *testing.T) {
	got := parseTagResult(`{"tags":["warm","curious"],"persona_delta":{"feeling":2.0},"mood_delta":{"valence":1,"energy":-2},"context_intensity":"high"}`)
	if len(got.Tags) != 2 || got.Tags[0] != "warm" {
		t.Fatalf("tags: %v", got.Tags)
	}
	if got.PersonaDelta["feeling"] != 2 {
		t.Errorf("float delta must truncate to int: %v", got.PersonaDelta)
	}
	if got.MoodDelta["energy"] != -2 {
		t.Errorf("mood delta: %v", got.MoodDelta)
	}
	if got.ContextIntensity != "high" {
		t.Errorf("intensity: %q", got.ContextIntensity)
	}
}

func TestParseTagResultFenced(t *testing.T) {
	got := parseTagResult("```json\n{\"tags\":[\"x\"],\"persona_delta\":{},\"mood_delta\":{},\"context_intensity\":\"radical\"}\n```")
	if len(got.Tags) != 1 || got.ContextIntensity != "radical" {
		t.Fatalf("fenced JSON not parsed: %+v", got)
	}

	bare := parseTagResult("```\n{\"tags\":[]}\n```")
	if bare.ContextIntensity != "normal" {
		t.Fatalf("fence without tag: %+v", bare)
	}
}

func TestParseTagResultGarbageIsNeutral(t *testing.T) {
	for _, in := range []string{"", "not json", `{"tags": 3}`} {
		got := parseTagResult(in)
		if len(got.Tags) != 0 || len(got.PersonaDelta) != 0 || len(got.MoodDelta) != 0 {
			t.Errorf("parse of %q must be neutral: %+v", in, got)
		}
		if got.ContextIntensity != "normal" {
			t.Errorf("parse of %q intensity = %q", in, got.ContextIntensity)
		}
	}
}

func TestParseTagResultUnknownIntensity(t *testing.T) {
	got := parseTagResult(`{"tags":[],"context_intensity":"apocalyptic"}`)
	if got.ContextIntensity != "normal" {
		t.Fatalf("unknown intensity must normalize: %q", got.ContextIntensity)
	}
}

func TestStripFence(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  ```JSON\n{}\n``` ", "{}"},
	}
	for _, c := range cases {
		if got := stripFence(c.in); got != c.want {
			t.Errorf("stripFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
