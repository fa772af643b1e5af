// Package traits is the bounded trait store: two fixed sets of named integer
// traits with fixed ranges, label buckets, a four-letter type code, and
// clamped delta application. Pure data model, no I/O.
package traits

// Personality traits live in 0..PersonalityMax, mood traits in 0..MoodMax.
const (
	PersonalityMax = 1000
	MoodMax        = 100

	// Per-turn delta bounds requested by the tagger.
	PersonaDeltaMax = 10
	MoodDeltaMax    = 5

	// Type-code letter threshold, inclusive above.
	TypeThreshold = 500
)

// Fixed, ordered trait names. Order matters for summaries and type code.
var (
	PersonalityTraits = []string{"extraversion", "intuition", "feeling", "perceiving"}
	MoodTraits        = []string{"valence", "energy", "warmth", "confidence", "playfulness", "focus"}
)

// Values maps trait name to current integer value.
type Values map[string]int

// DefaultPersonality returns the centered personality defaults.
func DefaultPersonality() Values {
	return Values{"extraversion": 300, "intuition": 700, "feeling": 800, "perceiving": 600}
}

// DefaultMood returns the centered mood defaults.
func DefaultMood() Values {
	return Values{"valence": 60, "energy": 65, "warmth": 70, "confidence": 60, "playfulness": 80, "focus": 50}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clone returns an independent copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge copies known keys from src into v, clamping to [0, max].
// Unknown keys are ignored; values arrive as raw numbers from the store.
func (v Values) Merge(src map[string]float64, max int) {
	for k, raw := range src {
		if _, ok := v[k]; ok {
			v[k] = Clamp(int(raw), 0, max)
		}
	}
}

// TypeCode derives the four-letter code from personality values at the 500
// threshold: E/I, N/S, F/T, P/J.
func TypeCode(p Values) string {
	code := ""
	if p["extraversion"] >= TypeThreshold {
		code += "E"
	} else {
		code += "I"
	}
	if p["intuition"] >= TypeThreshold {
		code += "N"
	} else {
		code += "S"
	}
	if p["feeling"] >= TypeThreshold {
		code += "F"
	} else {
		code += "T"
	}
	if p["perceiving"] >= TypeThreshold {
		code += "P"
	} else {
		code += "J"
	}
	return code
}
