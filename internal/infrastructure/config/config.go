// Package config loads service configuration from an optional YAML file,
// AEGIS_* environment variables and built-in defaults, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Corpus     CorpusConfig     `mapstructure:"corpus"`
	Index      IndexConfig      `mapstructure:"index"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Generation GenerationConfig `mapstructure:"generation"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Quality    QualityConfig    `mapstructure:"quality"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Diagnosis  DiagnosisConfig  `mapstructure:"diagnosis"`
	Healing    HealingConfig    `mapstructure:"healing"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

type CorpusConfig struct {
	Dirs       []string `mapstructure:"dirs" validate:"required,min=1,dive,required"`
	Extensions []string `mapstructure:"extensions" validate:"required,min=1,dive,startswith=."`
}

type IndexConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type IngestConfig struct {
	ChunkSize        int  `mapstructure:"chunk_size" validate:"gt=0"`
	ChunkOverlap     int  `mapstructure:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	OnStartup        bool `mapstructure:"on_startup"`
	EmbedConcurrency int  `mapstructure:"embed_concurrency" validate:"gte=1,lte=64"`
}

type RetrievalConfig struct {
	K       int           `mapstructure:"k" validate:"gte=1,lte=100"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type GenerationConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// LLMConfig selects the generation and classification backend.
// APIKey is only used by the openai backend (OpenAI or any compatible API such as Groq).
type LLMConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=ollama openai"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key" validate:"required_if=Backend openai"`
}

type EmbeddingConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string `mapstructure:"model"`
}

type QualityConfig struct {
	MinAnswerLength int      `mapstructure:"min_answer_length" validate:"gte=1"`
	UnknownMarkers  []string `mapstructure:"unknown_markers" validate:"dive,required"`
}

type PolicyConfig struct {
	LLMCheck bool `mapstructure:"llm_check"`
}

type DiagnosisConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" validate:"gte=0,lte=1"`
}

type HealingConfig struct {
	Workers       int     `mapstructure:"workers" validate:"gte=1,lte=32"`
	QueueSize     int     `mapstructure:"queue_size" validate:"gte=1"`
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`
	Burst         int     `mapstructure:"burst" validate:"gte=1"`
}

type AuditConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

type TelemetryConfig struct {
	Tracing bool `mapstructure:"tracing"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:5000")
	v.SetDefault("corpus.dirs", []string{"data/policies", "data/api_docs", "data/incidents"})
	v.SetDefault("corpus.extensions", []string{".txt", ".md"})
	v.SetDefault("index.dir", "vectorstore")
	v.SetDefault("ingest.chunk_size", 700)
	v.SetDefault("ingest.chunk_overlap", 100)
	v.SetDefault("ingest.on_startup", true)
	v.SetDefault("ingest.embed_concurrency", 4)
	v.SetDefault("retrieval.k", 4)
	v.SetDefault("retrieval.timeout", 30*time.Second)
	v.SetDefault("generation.timeout", 60*time.Second)
	v.SetDefault("llm.backend", "ollama")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("quality.min_answer_length", 10)
	v.SetDefault("quality.unknown_markers", []string{"I don't know"})
	v.SetDefault("policy.llm_check", true)
	v.SetDefault("diagnosis.confidence_threshold", 0.7)
	v.SetDefault("healing.workers", 2)
	v.SetDefault("healing.queue_size", 64)
	v.SetDefault("healing.rate_per_second", 1.0)
	v.SetDefault("healing.burst", 4)
	v.SetDefault("audit.path", "audit.log")
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.debounce", 2*time.Second)
	v.SetDefault("telemetry.tracing", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configuration. configFile may be empty, in which case aegis.yaml
// is looked up in . and ./config; a missing file means defaults plus environment.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AEGIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Provider-native key variables are honoured when no AEGIS_ key is set.
	if err := v.BindEnv("llm.api_key", "AEGIS_LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("aegis")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
