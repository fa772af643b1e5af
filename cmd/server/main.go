// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"server-kai/internal/ai"
	"server-kai/internal/chat"
	"server-kai/internal/config"
	"server-kai/internal/live"
	"server-kai/internal/profile"
	"server-kai/internal/server"
	"server-kai/internal/statestore"
	"server-kai/internal/tts"
	"server-kai/internal/unifiedlog"
	"server-kai/internal/websearch"
)

func main() {
	log.Println("[INFO] Starting Kai server...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatal("[ERR] config:", err)
	}

	var store statestore.Store
	if cfg.StateRoot != "" {
		store = statestore.NewHTTP(cfg.StateRoot)
		log.Println("[INFO] State backend: remote", cfg.StateRoot)
	} else {
		local, err := statestore.NewLocal(cfg.StatePath)
		if err != nil {
			log.Fatal("[ERR] state store:", err)
		}
		defer local.Close()
		store = local
		log.Println("[INFO] State backend: local", cfg.StatePath)
	}

	journal := unifiedlog.New(store)
	journal.EnsureExists(ctx)

	profiles := profile.NewGateway(store, cfg.MoodDecayPerHour)

	provider := ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIKey)
	if !provider.Configured() {
		log.Println("[INFO] OPENAI_API_KEY not set, chat replies will fall back")
	}
	aiClient := ai.NewClient(provider)

	search := websearch.NewClient(cfg.GoogleAPIKey, cfg.GoogleCSEID, websearch.NewCache(cfg.RedisAddr))
	speech := tts.NewClient(cfg.ElevenAPIKey, cfg.ElevenVoiceID, cfg.ElevenModelID, cfg.AudioCache)

	svc := chat.NewService(chat.Deps{
		AI:          aiClient,
		Profiles:    profiles,
		Journal:     journal,
		Search:      search,
		Time:        live.NewTimeResolver(),
		Weather:     live.NewWeatherResolver(),
		TTS:         speech,
		AgentName:   cfg.AgentName,
		UserName:    cfg.UserName,
		ChatModel:   cfg.ChatModel,
		TaggerModel: cfg.TaggerModel,
		ChatTTS:     cfg.ChatTTS,
	})

	srv := server.New(cfg, svc, search, speech, profiles, journal)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] HTTP server error:", err)
		}
	case <-ctx.Done():
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Println("[ERR] shutdown:", err)
	}
	log.Println("[INFO] Server exited cleanly")
}
