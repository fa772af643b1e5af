package chat

import (
	"context"
	"log"
	"time"

	"server-kai/internal/ai"
	"server-kai/internal/intent"
	"server-kai/internal/profile"
	"server-kai/internal/traits"
	"server-kai/internal/unifiedlog"
	"server-kai/internal/websearch"
)

// Fallback replies when every generation attempt fails or comes back empty.
const (
	fallbackError = "Temporary hiccup on my side. Try again?"
	fallbackEmpty = "I’m here—network was flaky for a moment. Try again?"
)

// Request is one chat turn as received on the wire.
type Request struct {
	Text      string `json:"text"`
	Source    string `json:"source"`
	ActorType string `json:"actor_type"`
	Model     string `json:"model"`
	AdaptUser bool   `json:"adapt_user"`
	CtxTurns  int    `json:"ctx_turns"`
}

// Response is the full turn result, field-compatible with the public surface.
type Response struct {
	Response     string        `json:"kai_response"`
	MBTI         string        `json:"kai_mbti"`
	Profile      traits.Values `json:"kai_profile"`
	Mood         traits.Values `json:"kai_mood"`
	Summary      string        `json:"kai_summary"`
	Tags         []string      `json:"tags"`
	TTSBase64    string        `json:"tts_base64"`
	PersonaDelta traits.Delta  `json:"persona_delta"`
	MoodDelta    traits.Delta  `json:"mood_delta"`
	ActualDeltas traits.Delta  `json:"actual_deltas"`
	WebUsed      bool          `json:"web_used"`
	LiveUsed     string        `json:"live_used,omitempty"`
	Decision     intent.Trace  `json:"decision_debug"`
}

// TimeResolver and WeatherResolver answer utterances natively; both always
// return a displayable sentence.
type TimeResolver interface {
	Resolve(ctx context.Context, utterance string) string
}

type WeatherResolver interface {
	Resolve(ctx context.Context, utterance string) string
}

// Searcher is the search augmenter surface the pipeline needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts websearch.Options) ([]websearch.Result, websearch.Diagnostics)
}

// Synthesizer renders a reply to speech; warning is non-empty on degradation.
type Synthesizer interface {
	Enabled() bool
	Synthesize(ctx context.Context, text string) (b64, warning string)
}

// Service runs the chat pipeline over its collaborators.
type Service struct {
	ai       *ai.Client
	profiles *profile.Gateway
	journal  *unifiedlog.Log
	search   Searcher
	timeRes  TimeResolver
	weather  WeatherResolver
	tts      Synthesizer // nil disables speech

	agentName   string
	userName    string
	chatModel   string
	taggerModel string
	chatTTS     bool
	now         func() time.Time
}

type Deps struct {
	AI       *ai.Client
	Profiles *profile.Gateway
	Journal  *unifiedlog.Log
	Search   Searcher
	Time     TimeResolver
	Weather  WeatherResolver
	TTS      Synthesizer

	AgentName   string
	UserName    string
	ChatModel   string
	TaggerModel string
	ChatTTS     bool
}

func NewService(d Deps) *Service {
	return &Service{
		ai:          d.AI,
		profiles:    d.Profiles,
		journal:     d.Journal,
		search:      d.Search,
		timeRes:     d.Time,
		weather:     d.Weather,
		tts:         d.TTS,
		agentName:   d.AgentName,
		userName:    d.UserName,
		chatModel:   d.ChatModel,
		taggerModel: d.TaggerModel,
		chatTTS:     d.ChatTTS,
		now:         time.Now,
	}
}

// Turn executes one full conversational turn. It degrades rather than fails:
// only a missing utterance is an error, everything downstream falls back.
func (s *Service) Turn(ctx context.Context, req Request) (*Response, error) {
	if req.Source == "" {
		req.Source = "app"
	}
	if req.Model == "" {
		req.Model = s.chatModel
	}
	if req.CtxTurns <= 0 {
		req.CtxTurns = 20
	}

	// The user side of the turn is journaled up front so history stays
	// complete even if the rest of the pipeline degrades.
	tsUser := s.now()
	s.journal.Write(ctx, unifiedlog.Key(tsUser, req.Source, unifiedlog.UserSuffix), unifiedlog.Record{
		UserInput: req.Text,
		Source:    req.Source,
		Timestamp: tsUser.Format(unifiedlog.KeyTimeLayout),
	})

	agent := s.profiles.LoadAgent(ctx, s.agentName)
	var user *profile.Profile
	if req.AdaptUser {
		user = s.profiles.Load(ctx, profile.User, s.userName)
	}
	history := s.journal.History(ctx, req.CtxTurns, s.agentName)

	trace := intent.Trace{}
	route := intent.Classify(req.Text)

	// Native time answers bypass generation entirely: the model must never
	// override a clock reading.
	if route == intent.NativeTime {
		trace.MatchedTime = true
		liveText := s.timeRes.Resolve(ctx, req.Text)
		s.journalAssistant(ctx, req, unifiedlog.Record{
			UserInput:     req.Text,
			Content:       liveText,
			WebUsed:       false,
			LiveUsed:      "time",
			DecisionDebug: &trace,
		})
		return s.shortCircuit(agent, liveText, false, "time", trace), nil
	}

	liveUsed := ""
	liveText := ""
	if route == intent.NativeWeather {
		trace.MatchedWeather = true
		liveUsed = "weather"
		liveText = s.weather.Resolve(ctx, req.Text)
	}

	// Headline requests get a mechanical digest, no generation.
	if route == intent.HeadlineSearch {
		trace.WebTriggered = true
		results, diag := s.search.Search(ctx, req.Text, websearch.Options{
			Count: 5, DateRestrict: "d1", NewsBias: true,
		})
		reply := websearch.HeadlineDigest(results, diag)
		s.journalAssistant(ctx, req, unifiedlog.Record{
			UserInput:     req.Text,
			Content:       reply,
			WebUsed:       true,
			DecisionDebug: &trace,
		})
		return s.shortCircuit(agent, reply, true, "", trace), nil
	}

	webUsed := false
	webContext := ""
	if route == intent.WebGrounded {
		results, _ := s.search.Search(ctx, req.Text, websearch.Options{
			Count: 5, DateRestrict: "d1", NewsBias: true,
		})
		trace.WebTriggered = len(results) > 0
		webContext = websearch.BuildContext(results)
		webUsed = webContext != ""
	}

	messages := buildMessages(promptInput{
		agent:      agent,
		user:       user,
		history:    history,
		webContext: webContext,
		liveData:   liveText,
		liveSource: liveUsed,
	}, req.Text, req.CtxTurns)

	reply, err := s.ai.Chat(ctx, req.Model, messages, ai.ChatTimeout)
	if err != nil {
		log.Printf("[CHAT] completion failed: %v", err)
		reply = liveText
		if reply == "" {
			reply = fallbackError
		}
	}
	if reply == "" {
		reply = liveText
		if reply == "" {
			reply = fallbackEmpty
		}
	}

	tag := s.ai.Tag(ctx, s.taggerModel, reply)
	actual := traits.Delta{}
	for k, v := range traits.ApplyPersonaDeltas(agent.Personality, tag.PersonaDelta) {
		actual[k] = v
	}
	for k, v := range traits.ApplyMoodDeltas(agent.Mood, tag.MoodDelta) {
		actual[k] = v
	}

	labels := traits.AllLabels(agent.Personality, agent.Mood)
	mbti := traits.TypeCode(agent.Personality)
	summary := traits.Summary(agent.Personality, agent.Mood)

	s.journalAssistant(ctx, req, unifiedlog.Record{
		UserInput:      req.Text,
		Content:        reply,
		Tags:           tag.Tags,
		PersonaDelta:   tag.PersonaDelta,
		MoodDelta:      tag.MoodDelta,
		ActualDeltas:   actual,
		Context:        tag.ContextIntensity,
		MBTI:           mbti,
		Profile:        agent.Personality,
		Mood:           agent.Mood,
		Labels:         &labels,
		ProfileSummary: summary,
		WebUsed:        webUsed,
		LiveUsed:       liveUsed,
		DecisionDebug:  &trace,
	})

	s.profiles.Write(ctx, profile.Agent, s.agentName, agent,
		&profile.SummaryPayload{Summary: summary, MBTI: mbti, Labels: labels}, nil)

	ttsB64 := ""
	if s.chatTTS && s.tts != nil && s.tts.Enabled() {
		var warn string
		if ttsB64, warn = s.tts.Synthesize(ctx, reply); warn != "" {
			log.Printf("[CHAT] tts warn: %s", warn)
		}
	}

	return &Response{
		Response:     reply,
		MBTI:         mbti,
		Profile:      agent.Personality,
		Mood:         agent.Mood,
		Summary:      summary,
		Tags:         tag.Tags,
		TTSBase64:    ttsB64,
		PersonaDelta: tag.PersonaDelta,
		MoodDelta:    tag.MoodDelta,
		ActualDeltas: actual,
		WebUsed:      webUsed,
		LiveUsed:     liveUsed,
		Decision:     trace,
	}, nil
}

// journalAssistant writes the assistant-side record under its own timestamp.
func (s *Service) journalAssistant(ctx context.Context, req Request, rec unifiedlog.Record) {
	ts := s.now()
	rec.Timestamp = ts.Format(unifiedlog.KeyTimeLayout)
	s.journal.Write(ctx, unifiedlog.Key(ts, req.Source, s.agentName), rec)
}

// shortCircuit builds the trimmed response of a non-generative branch: no
// tags, no deltas, profile untouched.
func (s *Service) shortCircuit(agent *profile.Profile, reply string, webUsed bool, liveUsed string, trace intent.Trace) *Response {
	return &Response{
		Response:     reply,
		MBTI:         traits.TypeCode(agent.Personality),
		Profile:      agent.Personality,
		Mood:         agent.Mood,
		Summary:      "",
		Tags:         []string{},
		PersonaDelta: traits.Delta{},
		MoodDelta:    traits.Delta{},
		ActualDeltas: traits.Delta{},
		WebUsed:      webUsed,
		LiveUsed:     liveUsed,
		Decision:     trace,
	}
}
