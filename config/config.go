package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Mongo struct {
			URI      string `mapstructure:"uri"`
			Database string `mapstructure:"database"`
		} `mapstructure:"mongo"`
		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	LLM struct {
		Provider           string        `mapstructure:"provider"`
		ClassifierProvider string        `mapstructure:"classifier_provider"`
		Model              string        `mapstructure:"model"`
		OpenAIModel        string        `mapstructure:"openai_model"`
		EmbeddingModel     string        `mapstructure:"embedding_model"`
		Temperature        float32       `mapstructure:"temperature"`
		Timeout            time.Duration `mapstructure:"timeout"`
		GeminiAPIKey       string        `mapstructure:"gemini_api_key"`
		OpenAIAPIKey       string        `mapstructure:"openai_api_key"`
	} `mapstructure:"llm"`
	Maps struct {
		APIKey   string        `mapstructure:"api_key"`
		Language string        `mapstructure:"language"`
		Timeout  time.Duration `mapstructure:"timeout"`
	} `mapstructure:"maps"`
	Translation struct {
		TargetLanguage   string `mapstructure:"target_language"`
		Concurrency      int    `mapstructure:"concurrency"`
		TranslateResults bool   `mapstructure:"translate_results"`
	} `mapstructure:"translation"`
	Session struct {
		Backend      string        `mapstructure:"backend"`
		PendingTTL   time.Duration `mapstructure:"pending_ttl"`
		HistoryLimit int           `mapstructure:"history_limit"`
	} `mapstructure:"session"`
	Assistant struct {
		DedupeSelections    bool     `mapstructure:"dedupe_selections"`
		SimilarityThreshold float64  `mapstructure:"similarity_threshold"`
		ConfirmKeywords     []string `mapstructure:"confirm_keywords"`
	} `mapstructure:"assistant"`
	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		Issuer    string        `mapstructure:"issuer"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Secrets never live in config.yml. TRANSLATE_RESULTS overrides the yml toggle per deployment.
	bindings := map[string]string{
		"llm.gemini_api_key":             "GOOGLE_GEMINI_API_KEY",
		"llm.openai_api_key":             "OPENAI_API_KEY",
		"maps.api_key":                   "GOOGLE_MAPS_API_KEY",
		"auth.jwt_secret":                "JWT_SECRET_KEY",
		"repositories.postgres.password": "POSTGRES_PASSWORD",
		"repositories.mongo.uri":         "MONGO_URI",
		"repositories.redis.password":    "REDIS_PASSWORD",
		"translation.translate_results":  "TRANSLATE_RESULTS",
	}
	for key, env := range bindings {
		if err = v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	applyDefaults(&config)
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func applyDefaults(c *Config) {
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = 60 * time.Second
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.Maps.Timeout <= 0 {
		c.Maps.Timeout = 10 * time.Second
	}
	if c.Session.HistoryLimit <= 0 {
		c.Session.HistoryLimit = 20
	}
	if c.Session.PendingTTL <= 0 {
		c.Session.PendingTTL = 24 * time.Hour
	}
	if c.Assistant.SimilarityThreshold <= 0 {
		c.Assistant.SimilarityThreshold = 0.75
	}
	if len(c.Assistant.ConfirmKeywords) == 0 {
		c.Assistant.ConfirmKeywords = []string{"confirm", "확인", "yes"}
	}
	if c.Translation.Concurrency <= 0 {
		c.Translation.Concurrency = 4
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
}
