package traits

import (
	"fmt"
	"strings"
)

// Ten ordered descriptive words per trait. Bucket index is monotonic in the
// trait value and always lands in [0,9].
var personalityLabels = map[string][]string{
	"extraversion": {"withdrawn", "introverted", "reserved", "quiet", "neutral", "sociable", "friendly", "talkative", "outgoing", "vivacious"},
	"intuition":    {"concrete", "practical", "grounded", "realistic", "balanced", "imaginative", "inventive", "intuitive", "visionary", "dreamy"},
	"feeling":      {"detached", "objective", "logical", "analytical", "even", "gentle", "caring", "empathetic", "warm", "compassionate"},
	"perceiving":   {"rigid", "structured", "methodical", "organized", "flexible", "casual", "adaptive", "spontaneous", "chaotic", "free-spirited"},
}

var moodLabels = map[string][]string{
	"valence":     {"depressed", "down", "flat", "neutral", "mild", "content", "pleased", "cheerful", "happy", "euphoric"},
	"energy":      {"exhausted", "tired", "lethargic", "calm", "easygoing", "rested", "lively", "active", "energized", "wired"},
	"warmth":      {"cold", "aloof", "distant", "reserved", "neutral", "pleasant", "friendly", "warm", "caring", "loving"},
	"confidence":  {"insecure", "unsure", "timid", "hesitant", "steady", "stable", "assured", "confident", "bold", "fearless"},
	"playfulness": {"serious", "strict", "reserved", "formal", "casual", "silly", "goofy", "cheeky", "mischievous", "whimsical"},
	"focus":       {"scattered", "distracted", "unfocused", "wandering", "neutral", "collected", "attentive", "engaged", "laser", "locked-in"},
}

// BucketIndex maps value in [0,max] to a label index in [0,9].
func BucketIndex(value, max int) int {
	i := int(float64(value) / float64(max) * 10)
	if i > 9 {
		return 9
	}
	if i < 0 {
		return 0
	}
	return i
}

// PersonalityLabel returns the descriptive word for a personality trait value.
func PersonalityLabel(trait string, value int) string {
	return personalityLabels[trait][BucketIndex(value, PersonalityMax)]
}

// MoodLabel returns the descriptive word for a mood trait value.
func MoodLabel(trait string, value int) string {
	return moodLabels[trait][BucketIndex(value, MoodMax)]
}

// LabelSet holds per-trait qualitative labels for both trait sets.
type LabelSet struct {
	Personality map[string]string `json:"personality_labels"`
	Mood        map[string]string `json:"mood_labels"`
}

// AllLabels derives labels for every trait in both sets.
func AllLabels(p, m Values) LabelSet {
	ls := LabelSet{
		Personality: make(map[string]string, len(PersonalityTraits)),
		Mood:        make(map[string]string, len(MoodTraits)),
	}
	for _, t := range PersonalityTraits {
		ls.Personality[t] = PersonalityLabel(t, p[t])
	}
	for _, t := range MoodTraits {
		ls.Mood[t] = MoodLabel(t, m[t])
	}
	return ls
}

// Summary renders the narrative profile summary from current values.
func Summary(p, m Values) string {
	labels := AllLabels(p, m)
	var pp, mp []string
	for _, t := range PersonalityTraits {
		pp = append(pp, fmt.Sprintf("%s: %s", t, labels.Personality[t]))
	}
	for _, t := range MoodTraits {
		mp = append(mp, fmt.Sprintf("%s: %s", t, labels.Mood[t]))
	}
	return fmt.Sprintf("MBTI: %s. Personality: %s. Mood: %s.",
		TypeCode(p), strings.Join(pp, ", "), strings.Join(mp, ", "))
}
