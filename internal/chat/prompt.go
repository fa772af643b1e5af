// Package chat orchestrates one conversational turn: route the utterance,
// gather context, generate a reply, tag it, apply trait deltas, and persist
// both sides of the exchange.
package chat

import (
	"fmt"
	"strings"

	"server-kai/internal/ai"
	"server-kai/internal/profile"
	"server-kai/internal/traits"
)

const personaDirective = "You are Kai: warm, witty, emotionally attuned.\n" +
	"Answer concisely and helpfully. If WEB CONTEXT is provided, **treat it as the source of truth** " +
	"for time-sensitive or factual claims and cite as [1], [2], etc. If not relevant, ignore it."

// promptInput collects everything the system prompt is assembled from.
type promptInput struct {
	agent      *profile.Profile
	user       *profile.Profile // nil unless user adaptation was requested
	history    []string
	webContext string // formatted findings block, "" when unused
	liveData   string // native fact sentence, "" when unused
	liveSource string // "time" or "weather" when liveData is set
}

// buildMessages assembles the completion request: persona directive, trait
// summaries and recent history, then optional web/live blocks, with the raw
// utterance as the sole user message.
func buildMessages(in promptInput, utterance string, turns int) []ai.Message {
	var sys strings.Builder
	sys.WriteString(personaDirective)
	sys.WriteString("\n\n")
	sys.WriteString(fmt.Sprintf("Kai MBTI guess: %s. Personality=%v. Mood=%v.",
		traits.TypeCode(in.agent.Personality), in.agent.Personality, in.agent.Mood))
	sys.WriteString("\n")
	if in.user != nil {
		sys.WriteString(fmt.Sprintf("User personality=%v. User mood=%v.", in.user.Personality, in.user.Mood))
	}
	sys.WriteString("\nConversation so far:\n")

	lines := in.history
	if len(lines) > turns {
		lines = lines[len(lines)-turns:]
	}
	sys.WriteString(strings.Join(lines, "\n"))

	if in.webContext != "" {
		sys.WriteString("\n\n--- WEB CONTEXT START ---\n")
		sys.WriteString(in.webContext)
		sys.WriteString("\n--- WEB CONTEXT END ---\n")
	}
	if in.liveData != "" {
		sys.WriteString(fmt.Sprintf("\n\n--- LIVE DATA (%s) ---\n%s\n--- END LIVE DATA ---\n",
			strings.ToUpper(in.liveSource), in.liveData))
	}

	return []ai.Message{
		{Role: "system", Content: sys.String()},
		{Role: "user", Content: utterance},
	}
}
