// Package server exposes the conversational backend over HTTP: the chat
// turn, state inspection and seeding, speech, search and diagnostics
// surfaces, behind a shared-key auth layer.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"server-kai/internal/chat"
	"server-kai/internal/config"
	"server-kai/internal/profile"
	"server-kai/internal/tts"
	"server-kai/internal/unifiedlog"
)

type Server struct {
	cfg      *config.Config
	chat     *chat.Service
	search   chat.Searcher
	tts      *tts.Client
	profiles *profile.Gateway
	journal  *unifiedlog.Log

	http *http.Server
}

func New(cfg *config.Config, svc *chat.Service, search chat.Searcher, speech *tts.Client, profiles *profile.Gateway, journal *unifiedlog.Log) *Server {
	s := &Server{
		cfg:      cfg,
		chat:     svc,
		search:   search,
		tts:      speech,
		profiles: profiles,
		journal:  journal,
	}
	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // chat turns can run long
	}
	return s
}

// Router wires every route through logging, recovery and CORS; mutating and
// data routes additionally require the shared key.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/diag", s.handleDiag).Methods(http.MethodGet)
	r.HandleFunc("/diag_auth", s.handleDiagAuth).Methods(http.MethodGet)
	r.HandleFunc("/get-audio", s.handleGetAudio).Methods(http.MethodGet)

	r.HandleFunc("/chat", s.requireKey(s.handleChat)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/get_state", s.requireKey(s.handleGetState)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/set_state", s.requireKey(s.handleSetState)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/tts", s.requireKey(s.handleTTS)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/search", s.requireKey(s.handleSearch)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/news", s.requireKey(s.handleNews)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/diag_cse", s.requireKey(s.handleDiagCSE)).Methods(http.MethodGet, http.MethodOptions)

	return s.logRequests(s.recover(s.cors(r)))
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Printf("[HTTP] listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
