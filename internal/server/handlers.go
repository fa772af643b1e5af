package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"server-kai/internal/chat"
	"server-kai/internal/profile"
	"server-kai/internal/websearch"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleDiag reports which credentials are configured, never their values.
func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request) {
	backend := "local"
	if s.cfg.StateRoot != "" {
		backend = "http"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": statusOK,
		"env": map[string]any{
			"openai_key_set":     s.cfg.OpenAIKey != "",
			"api_key_set":        s.cfg.KeyConfigured(),
			"state_backend":      backend,
			"google_api_key_set": s.cfg.GoogleAPIKey != "",
			"google_cse_id_set":  s.cfg.GoogleCSEID != "",
			"eleven_api_key_set": s.cfg.ElevenAPIKey != "",
		},
	})
}

// handleDiagAuth echoes what the auth layer saw, with the key masked.
func (s *Server) handleDiagAuth(w http.ResponseWriter, r *http.Request) {
	got := clientKey(r)
	masked := got
	if len(got) > 8 {
		masked = got[:4] + "…" + got[len(got)-4:]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              statusOK,
		"server_key_set":      s.cfg.KeyConfigured(),
		"received_key_masked": masked,
		"has_x_api_key":       r.Header.Get(apiKeyHeader) != "",
	})
}

// chatEnvelope is the chat response plus the status discriminator.
type chatEnvelope struct {
	Status string `json:"status"`
	*chat.Response
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "Missing 'text'")
		return
	}
	resp, err := s.chat.Turn(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatEnvelope{Status: statusSuccess, Response: resp})
}

func (s *Server) actorFor(actorType string) (profile.ActorType, string) {
	if actorType == "user" {
		return profile.User, s.cfg.UserName
	}
	return profile.Agent, s.cfg.AgentName
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	actorType, actorID := s.actorFor(r.URL.Query().Get("actor_type"))
	ctx := r.Context()

	p := s.profiles.Load(ctx, actorType, actorID)
	summary := s.profiles.LoadSummary(ctx, actorType, actorID)
	rel := s.profiles.LoadRelationship(ctx, actorType, actorID)
	recent := s.journal.RecentDeltas(ctx, 60)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":              statusSuccess,
		"personality_current": p.Personality,
		"mood_current":        p.Mood,
		"personality_summary": summary,
		"relationship":        rel,
		"affinity_current":    rel,
		"recent_deltas":       recent,
	})
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ActorType    string         `json:"actor_type"`
		Personality  map[string]any `json:"personality_current"`
		Mood         map[string]any `json:"mood_current"`
		Relationship map[string]any `json:"relationship"`
		Affinity     map[string]any `json:"affinity_current"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	actorType, actorID := s.actorFor(body.ActorType)
	rel := body.Relationship
	if rel == nil {
		rel = body.Affinity
	}
	if err := s.profiles.WriteRaw(r.Context(), actorType, actorID, body.Personality, body.Mood, rel); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": statusOK})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	text := strings.TrimSpace(body.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "Missing 'text'")
		return
	}
	b64, warning := s.tts.Synthesize(r.Context(), text)
	resp := map[string]string{"status": statusSuccess, "tts_base64": b64}
	if warning != "" {
		resp["warning"] = warning
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	data, err := s.tts.LastAudio()
	if err != nil {
		writeError(w, http.StatusNotFound, "No audio available")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="kai.mp3"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Q    string `json:"q"`
		Num  int    `json:"num"`
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	q := strings.TrimSpace(body.Q)
	if q == "" {
		writeError(w, http.StatusBadRequest, "Missing 'q'")
		return
	}
	if body.Num == 0 {
		body.Num = 5
	}
	if body.Date == "" {
		body.Date = "d1"
	}
	results, diag := s.search.Search(r.Context(), q, websearch.Options{
		Count: body.Num, DateRestrict: body.Date, NewsBias: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  statusSuccess,
		"results": results,
		"diag":    diag,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing q")
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = "d1"
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n == 0 {
		n = 5
	}
	results, diag := s.search.Search(r.Context(), q, websearch.Options{
		Count: n, DateRestrict: date, NewsBias: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   statusSuccess,
		"articles": results,
		"diag":     diag,
	})
}

func (s *Server) handleDiagCSE(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		q = "breaking news"
	}
	results, diag := s.search.Search(r.Context(), q, websearch.Options{
		Count: 3, DateRestrict: "d1", NewsBias: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"status": statusOK,
		"query":  q,
		"count":  len(results),
		"diag":   diag,
		"sample": results,
	})
}
