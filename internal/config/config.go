// Package config loads interviewd settings from defaults, an optional YAML
// file and INTERVIEW_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danielpatrickdp/interview-controller/internal/scoring"
)

// #region types

// Server holds listen addresses.
type Server struct {
	Addr     string `mapstructure:"addr"`
	GRPCAddr string `mapstructure:"grpc_addr"`
}

// Gemini configures the primary provider.
type Gemini struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OpenAI configures the OpenAI-compatible fallback provider.
type OpenAI struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// Providers lists inference providers in fallback order.
type Providers struct {
	Gemini Gemini `mapstructure:"gemini"`
	OpenAI OpenAI `mapstructure:"openai"`
}

// Monitor configures camera capture, detection and evidence storage.
type Monitor struct {
	Enabled        bool          `mapstructure:"enabled"`
	SnapshotURL    string        `mapstructure:"snapshot_url"`
	DetectorURL    string        `mapstructure:"detector_url"`
	DetectorHealth string        `mapstructure:"detector_health_addr"`
	Interval       time.Duration `mapstructure:"interval"`
	MinConfidence  float64       `mapstructure:"min_confidence"`
	Threshold      time.Duration `mapstructure:"threshold"`
	JPEGQuality    int           `mapstructure:"jpeg_quality"`
	EvidenceDir    string        `mapstructure:"evidence_dir"`
}

// Session tunes session lifetime and evaluator waits.
type Session struct {
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	AwaitEvaluators bool          `mapstructure:"await_evaluators"`
	EndTimeout      time.Duration `mapstructure:"end_timeout"`
	StuckIdle       time.Duration `mapstructure:"stuck_idle"`
}

// Archive locates the sqlite archive.
type Archive struct {
	Path string `mapstructure:"path"`
}

// Log selects logrus level and formatter.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full interviewd configuration.
type Config struct {
	Server    Server         `mapstructure:"server"`
	Providers Providers      `mapstructure:"providers"`
	Monitor   Monitor        `mapstructure:"monitor"`
	Session   Session        `mapstructure:"session"`
	Scoring   scoring.Config `mapstructure:"scoring"`
	Archive   Archive        `mapstructure:"archive"`
	Log       Log            `mapstructure:"log"`
}

// #endregion types

// #region defaults

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.grpc_addr", ":8001")

	v.SetDefault("providers.gemini.api_key", "")
	v.SetDefault("providers.gemini.model", "gemini-2.5-flash")
	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")

	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.snapshot_url", "")
	v.SetDefault("monitor.detector_url", "")
	v.SetDefault("monitor.detector_health_addr", "")
	v.SetDefault("monitor.interval", 100*time.Millisecond)
	v.SetDefault("monitor.min_confidence", 0.4)
	v.SetDefault("monitor.threshold", 3*time.Second)
	v.SetDefault("monitor.jpeg_quality", 70)
	v.SetDefault("monitor.evidence_dir", "evidence")

	v.SetDefault("session.idle_ttl", 2*time.Hour)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("session.await_evaluators", true)
	v.SetDefault("session.end_timeout", 30*time.Second)
	v.SetDefault("session.stuck_idle", 60*time.Second)

	sc := scoring.DefaultConfig()
	v.SetDefault("scoring.weights.technical_correctness", sc.Weights.TechnicalCorrectness)
	v.SetDefault("scoring.weights.problem_solving", sc.Weights.ProblemSolving)
	v.SetDefault("scoring.weights.reasoning", sc.Weights.Reasoning)
	v.SetDefault("scoring.weights.code_quality", sc.Weights.CodeQuality)
	v.SetDefault("scoring.weights.communication", sc.Weights.Communication)
	v.SetDefault("scoring.weights.interview_readiness", sc.Weights.InterviewReadiness)
	v.SetDefault("scoring.monitor_penalty", sc.MonitorPenalty)
	v.SetDefault("scoring.external_penalty", sc.ExternalPenalty)
	v.SetDefault("scoring.integrity_threshold", sc.IntegrityThreshold)
	v.SetDefault("scoring.strong_hire_at", sc.StrongHireAt)
	v.SetDefault("scoring.hire_at", sc.HireAt)
	v.SetDefault("scoring.borderline_at", sc.BorderlineAt)

	v.SetDefault("archive.path", "interviews.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// #endregion defaults

// #region load

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("INTERVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Monitor.MinConfidence < 0 || c.Monitor.MinConfidence > 1 {
		return fmt.Errorf("monitor.min_confidence %.2f outside [0,1]", c.Monitor.MinConfidence)
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("session.idle_ttl must not be negative")
	}
	w := c.Scoring.Weights
	sum := w.TechnicalCorrectness + w.ProblemSolving + w.Reasoning + w.CodeQuality + w.Communication + w.InterviewReadiness
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("scoring weights sum to %.2f, want 1", sum)
	}
	return nil
}

// HasProviders reports whether any inference provider has a key.
func (c *Config) HasProviders() bool {
	return c.Providers.Gemini.APIKey != "" || c.Providers.OpenAI.APIKey != ""
}

// #endregion load
