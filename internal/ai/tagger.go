package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"server-kai/internal/traits"
)

// TagResult is the tagger contract: tags, bounded trait deltas, and an
// intensity classification. Zero value (via Neutral) means "no change".
type TagResult struct {
	Tags             []string     `json:"tags"`
	PersonaDelta     traits.Delta `json:"persona_delta"`
	MoodDelta        traits.Delta `json:"mood_delta"`
	ContextIntensity string       `json:"context_intensity"`
}

// NeutralTagResult is the typed fallback when the tagger call or parse
// fails. This path never raises past its boundary.
func NeutralTagResult() TagResult {
	return TagResult{
		Tags:             []string{},
		PersonaDelta:     traits.Delta{},
		MoodDelta:        traits.Delta{},
		ContextIntensity: "normal",
	}
}

const taggerPrompt = `Return ONLY JSON with:
- "tags": string[]
- "persona_delta": { extraversion:int(-10..10), intuition:int(-10..10), feeling:int(-10..10), perceiving:int(-10..10) }
- "mood_delta": { valence:int(-5..5), energy:int(-5..5), warmth:int(-5..5), confidence:int(-5..5), playfulness:int(-5..5), focus:int(-5..5) }
- "context_intensity": "normal"|"high"|"radical"

Text:
"""%s"""`

// Tag runs the secondary tagger completion over the reply text and parses
// its JSON. A fenced-code wrapper is stripped before parsing. Any failure
// yields the neutral result.
func (c *Client) Tag(ctx context.Context, model, text string) TagResult {
	reply, err := c.Chat(ctx, model, []Message{
		{Role: "system", Content: "Respond only with strict JSON."},
		{Role: "user", Content: fmt.Sprintf(taggerPrompt, text)},
	}, TaggerTimeout)
	if err != nil {
		log.Printf("[AI] tagger error: %v", err)
		return NeutralTagResult()
	}
	return parseTagResult(reply)
}

// parseTagResult decodes the tagger JSON. Numbers may arrive as floats; they
// are truncated to ints the way the store expects.
func parseTagResult(content string) TagResult {
	content = stripFence(content)

	var wire struct {
		Tags             []string           `json:"tags"`
		PersonaDelta     map[string]float64 `json:"persona_delta"`
		MoodDelta        map[string]float64 `json:"mood_delta"`
		ContextIntensity string             `json:"context_intensity"`
	}
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		log.Printf("[AI] tagger parse error: %v", err)
		return NeutralTagResult()
	}

	out := NeutralTagResult()
	if wire.Tags != nil {
		out.Tags = wire.Tags
	}
	for k, v := range wire.PersonaDelta {
		out.PersonaDelta[k] = int(v)
	}
	for k, v := range wire.MoodDelta {
		out.MoodDelta[k] = int(v)
	}
	switch wire.ContextIntensity {
	case "normal", "high", "radical":
		out.ContextIntensity = wire.ContextIntensity
	}
	return out
}
