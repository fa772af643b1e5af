// Package profile is the gateway between actors and their persisted trait
// state. Profiles materialize from centered defaults on first read and are
// written back best-effort after each turn.
package profile

import (
	"context"
	"log"
	"time"

	"server-kai/internal/statestore"
	"server-kai/internal/traits"
)

// ActorType selects the store subtree: users/ or agents/.
type ActorType string

const (
	Agent ActorType = "agent"
	User  ActorType = "user"
)

// Profile is one actor's live trait state.
type Profile struct {
	Personality traits.Values
	Mood        traits.Values
}

// SummaryPayload is the derived narrative record persisted alongside traits.
// UpdatedAt is additive to the original wire format and feeds mood decay.
type SummaryPayload struct {
	Summary   string          `json:"summary"`
	MBTI      string          `json:"mbti"`
	Labels    traits.LabelSet `json:"labels"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// Relationship is the optional per-actor relationship record.
type Relationship struct {
	Intimacy    int `json:"intimacy"`
	Physicality int `json:"physicality"`
}

// DefaultRelationship returns the centered relationship record.
func DefaultRelationship() Relationship {
	return Relationship{Intimacy: 50, Physicality: 50}
}

// Gateway loads and stores profiles through the state store.
type Gateway struct {
	store statestore.Store
	// mood points per hour drifted toward center on agent load; 0 disables
	decayPerHour float64
	now          func() time.Time
}

func NewGateway(store statestore.Store, decayPerHour float64) *Gateway {
	return &Gateway{store: store, decayPerHour: decayPerHour, now: time.Now}
}

func basePath(actorType ActorType, actorID string) string {
	if actorType == User {
		return "users/" + actorID
	}
	return "agents/" + actorID
}

// Load returns the actor's current profile, materialized from defaults when
// absent. Store failures degrade to defaults with a logged warning — a chat
// turn must not fail because state is unreachable.
func (g *Gateway) Load(ctx context.Context, actorType ActorType, actorID string) *Profile {
	p := &Profile{
		Personality: traits.DefaultPersonality(),
		Mood:        traits.DefaultMood(),
	}
	base := basePath(actorType, actorID)

	var persona map[string]float64
	if found, err := g.store.Get(ctx, base+"/personality_current", &persona); err != nil {
		log.Printf("[PROFILE] personality read failed %s/%s: %v", actorType, actorID, err)
	} else if found {
		p.Personality.Merge(persona, traits.PersonalityMax)
	}

	var mood map[string]float64
	if found, err := g.store.Get(ctx, base+"/mood_current", &mood); err != nil {
		log.Printf("[PROFILE] mood read failed %s/%s: %v", actorType, actorID, err)
	} else if found {
		p.Mood.Merge(mood, traits.MoodMax)
	}

	return p
}

// LoadAgent loads the agent profile and applies mood decay based on the time
// since the summary was last written.
func (g *Gateway) LoadAgent(ctx context.Context, actorID string) *Profile {
	p := g.Load(ctx, Agent, actorID)
	if g.decayPerHour <= 0 {
		return p
	}
	if s := g.LoadSummary(ctx, Agent, actorID); s != nil && s.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, s.UpdatedAt); err == nil {
			traits.DecayMoodTowardCenter(p.Mood, g.now().Sub(t), g.decayPerHour)
		}
	}
	return p
}

// LoadSummary returns the persisted summary or nil.
func (g *Gateway) LoadSummary(ctx context.Context, actorType ActorType, actorID string) *SummaryPayload {
	var s SummaryPayload
	found, err := g.store.Get(ctx, basePath(actorType, actorID)+"/personality_summary", &s)
	if err != nil {
		log.Printf("[PROFILE] summary read failed %s/%s: %v", actorType, actorID, err)
		return nil
	}
	if !found {
		return nil
	}
	return &s
}

// LoadRelationship returns the relationship record, defaulting to 50/50.
func (g *Gateway) LoadRelationship(ctx context.Context, actorType ActorType, actorID string) Relationship {
	var rel Relationship
	found, err := g.store.Get(ctx, basePath(actorType, actorID)+"/relationship_current", &rel)
	if err != nil {
		log.Printf("[PROFILE] relationship read failed %s/%s: %v", actorType, actorID, err)
	}
	if !found || (rel == Relationship{}) {
		return DefaultRelationship()
	}
	return rel
}

// Write persists the profile and optional records. Each write replaces the
// whole sub-document. Failures are logged and swallowed: persistence is
// best-effort by design.
func (g *Gateway) Write(ctx context.Context, actorType ActorType, actorID string, p *Profile, summary *SummaryPayload, rel *Relationship) {
	base := basePath(actorType, actorID)
	if err := g.store.Put(ctx, base+"/personality_current", p.Personality); err != nil {
		log.Printf("[PROFILE] personality write failed %s/%s: %v", actorType, actorID, err)
	}
	if err := g.store.Put(ctx, base+"/mood_current", p.Mood); err != nil {
		log.Printf("[PROFILE] mood write failed %s/%s: %v", actorType, actorID, err)
	}
	if summary != nil {
		if summary.UpdatedAt == "" {
			summary.UpdatedAt = g.now().UTC().Format(time.RFC3339)
		}
		if err := g.store.Put(ctx, base+"/personality_summary", summary); err != nil {
			log.Printf("[PROFILE] summary write failed %s/%s: %v", actorType, actorID, err)
		}
	}
	if rel != nil {
		if err := g.store.Put(ctx, base+"/relationship_current", rel); err != nil {
			log.Printf("[PROFILE] relationship write failed %s/%s: %v", actorType, actorID, err)
		}
	}
}

// WriteRaw persists caller-provided raw documents (the set_state surface).
func (g *Gateway) WriteRaw(ctx context.Context, actorType ActorType, actorID string, personality, mood map[string]any, rel map[string]any) error {
	base := basePath(actorType, actorID)
	if err := g.store.Put(ctx, base+"/personality_current", personality); err != nil {
		return err
	}
	if err := g.store.Put(ctx, base+"/mood_current", mood); err != nil {
		return err
	}
	if rel != nil {
		if err := g.store.Put(ctx, base+"/relationship_current", rel); err != nil {
			return err
		}
	}
	return nil
}
