// Package tts wraps the synthesized-speech collaborator. A missing
// credential or upstream failure degrades to an empty payload with a
// warning — it never fails a request.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"server-kai/pkg/retrylimit"
)

const DefaultBaseURL = "https://api.elevenlabs.io/v1/text-to-speech"

// Fixed voice rendering parameters.
var voiceSettings = map[string]float64{"stability": 0.6, "similarity_boost": 0.75}

type Client struct {
	apiKey    string
	voiceID   string
	modelID   string
	baseURL   string
	audioPath string // last rendered audio, served by /get-audio
	client    *http.Client
	limiter   *retrylimit.AdaptiveLimiter
}

func NewClient(apiKey, voiceID, modelID, audioPath string) *Client {
	return &Client{
		apiKey:    apiKey,
		voiceID:   voiceID,
		modelID:   modelID,
		baseURL:   DefaultBaseURL,
		audioPath: audioPath,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
	}
}

// SetBaseURL overrides the provider endpoint (tests).
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

// Enabled reports whether a credential is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// AudioPath is where the last rendered audio was cached.
func (c *Client) AudioPath() string { return c.audioPath }

// Synthesize renders text to speech and returns base64 audio. On any
// failure it returns empty audio plus a warning string for the response
// envelope; configuration problems are reported, never silently ignored.
func (c *Client) Synthesize(ctx context.Context, text string) (b64, warning string) {
	if !c.Enabled() {
		return "", "TTS disabled"
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", "TTS unavailable"
	}

	payload := map[string]any{
		"text":           text,
		"model_id":       c.modelID,
		"voice_settings": voiceSettings,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+c.voiceID, bytes.NewReader(body))
	if err != nil {
		return "", "TTS unavailable"
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[TTS] request warn: %v", err)
		c.limiter.Failure()
		return "", "TTS unavailable"
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil || resp.StatusCode != http.StatusOK {
		log.Printf("[TTS] upstream warn: status=%d err=%v", resp.StatusCode, err)
		c.limiter.Failure()
		return "", "TTS unavailable"
	}
	c.limiter.Success()

	if err := os.WriteFile(c.audioPath, audio, 0644); err != nil {
		log.Printf("[TTS] audio cache warn: %v", err)
	}
	return base64.StdEncoding.EncodeToString(audio), ""
}

// ErrNoAudio is returned by LastAudio when nothing was rendered yet.
var ErrNoAudio = fmt.Errorf("no audio available")

// LastAudio returns the bytes of the last rendered audio file.
func (c *Client) LastAudio() ([]byte, error) {
	data, err := os.ReadFile(c.audioPath)
	if err != nil {
		return nil, ErrNoAudio
	}
	return data, nil
}
