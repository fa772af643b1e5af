// /internal/config/config.go
package config

import (
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

// Config is loaded once at startup and passed explicitly into constructors.
// Business logic never reads the environment directly.
type Config struct {
	Port           int      `env:"PORT" envDefault:"5000"`
	APIKey         string   `env:"API_KEY_VALUE" envDefault:"changeme"`
	AllowDevBypass bool     `env:"API_KEY_DEV_BYPASS"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Persisted state. StateRoot is a Firebase-RTDB-shaped HTTP root; when
	// empty the server runs on a local JSON datastore at StatePath.
	StateRoot string `env:"STATE_ROOT"`
	StatePath string `env:"STATE_PATH" envDefault:"data/state.json"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	ChatModel     string `env:"OPENAI_CHAT_MODEL" envDefault:"gpt-4o"`
	TaggerModel   string `env:"OPENAI_TAGGER_MODEL" envDefault:"gpt-4o-mini"`

	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
	GoogleCSEID  string `env:"GOOGLE_CSE_ID"`

	// Optional Redis search-result cache. Empty = no cache.
	RedisAddr string `env:"REDIS_ADDR"`

	ElevenAPIKey  string `env:"ELEVEN_API_KEY"`
	ElevenVoiceID string `env:"ELEVEN_VOICE_ID" envDefault:"rjyk3ukVFAi8OdkRXxK2"`
	ElevenModelID string `env:"ELEVEN_MODEL_ID" envDefault:"eleven_monolingual_v1"`
	ChatTTS       bool   `env:"CHAT_TTS" envDefault:"true"`
	AudioCache    string `env:"AUDIO_CACHE_PATH" envDefault:"/tmp/audio.mp3"`

	AgentName string `env:"AGENT_NAME" envDefault:"Kai"`
	UserName  string `env:"USER_NAME" envDefault:"Darc"`

	// Mood drifts toward centered defaults between turns. 0 disables.
	MoodDecayPerHour float64 `env:"MOOD_DECAY_PER_HOUR" envDefault:"2"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	// Tolerate the occasional mis-cased env var seen in deployments.
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("Openai_API_KEY")
	}
	if cfg.ElevenAPIKey == "" {
		cfg.ElevenAPIKey = os.Getenv("Eleven_API_KEY")
	}
	return cfg, nil
}

// KeyConfigured reports whether the shared API key was actually set.
// The placeholder default counts as unconfigured.
func (c *Config) KeyConfigured() bool {
	return c.APIKey != "" && c.APIKey != "changeme"
}
