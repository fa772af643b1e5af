package traits

import "time"

// Delta maps trait name to a signed adjustment.
type Delta map[string]int

// ApplyPersonaDeltas clamps each requested personality delta to
// [-PersonaDeltaMax, PersonaDeltaMax], applies it, re-clamps the value to
// [0, PersonalityMax], and returns the delta actually applied per trait.
// Requested deltas may violate the tagger contract; they are re-clamped here
// so an out-of-range value can never reach the store.
func ApplyPersonaDeltas(values Values, requested Delta) Delta {
	applied := make(Delta, len(PersonalityTraits))
	for _, t := range PersonalityTraits {
		d := Clamp(requested[t], -PersonaDeltaMax, PersonaDeltaMax)
		before := values[t]
		values[t] = Clamp(before+d, 0, PersonalityMax)
		applied[t] = values[t] - before
	}
	return applied
}

// ApplyMoodDeltas does the same for mood traits with the mood bounds.
func ApplyMoodDeltas(values Values, requested Delta) Delta {
	applied := make(Delta, len(MoodTraits))
	for _, t := range MoodTraits {
		d := Clamp(requested[t], -MoodDeltaMax, MoodDeltaMax)
		before := values[t]
		values[t] = Clamp(before+d, 0, MoodMax)
		applied[t] = values[t] - before
	}
	return applied
}

// DecayMoodTowardCenter drifts each mood trait toward its centered default by
// perHour points per elapsed hour. Personality does not decay. Values stay in
// range; a zero rate or non-positive elapsed time is a no-op.
func DecayMoodTowardCenter(m Values, elapsed time.Duration, perHour float64) {
	if perHour <= 0 || elapsed <= 0 {
		return
	}
	step := int(elapsed.Hours() * perHour)
	if step <= 0 {
		return
	}
	centers := DefaultMood()
	for _, t := range MoodTraits {
		center := centers[t]
		v := m[t]
		switch {
		case v > center:
			v -= step
			if v < center {
				v = center
			}
		case v < center:
			v += step
			if v > center {
				v = center
			}
		}
		m[t] = Clamp(v, 0, MoodMax)
	}
}
