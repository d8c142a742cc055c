package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/pkg/logger"
)

// Tier is one of the three capability levels. Mapped from agent names
// through the agent-definition "model" field (see pkg/agentdef).
type Tier string

const (
	TierCheap  Tier = "cheap"
	TierMid    Tier = "mid"
	TierStrong Tier = "strong"
)

// Tiers lists the capability tiers in ascending order of capability/cost.
var Tiers = []Tier{TierCheap, TierMid, TierStrong}

// Config holds configuration for every component of the control plane.
// It supports three-layer priority: defaults (lowest), environment
// variables (medium), functional options (highest) — the same layering
// the teacher framework uses.
//
// Example:
//
//	cfg, err := core.NewConfig(
//	    core.WithStateDir("/var/lib/router-state"),
//	    core.WithWIPLimit(3),
//	)
type Config struct {
	// StateDir is the root directory under which every persisted
	// document (quota, work queue, temporal queue, routing history,
	// session state, metrics log, overnight results) is written.
	StateDir string `json:"state_dir" env:"ROUTER_STATE_DIR" default:"./router-state"`

	// Lock holds LockedStateFile defaults (C1).
	Lock LockConfig `json:"lock"`

	// Quota holds QuotaTracker defaults (C2).
	Quota QuotaConfig `json:"quota"`

	// WIPLimit bounds concurrently ACTIVE work items (C3).
	WIPLimit int `json:"wip_limit" env:"ROUTER_WIP_LIMIT" default:"2"`

	// Temporal holds TemporalScheduler/OvernightExecutor defaults (C7).
	Temporal TemporalConfig `json:"temporal"`

	// Metrics holds MetricsSink defaults (C8).
	Metrics MetricsConfig `json:"metrics"`

	// Session holds session-state TTL defaults (C10).
	Session SessionConfig `json:"session"`

	// Routing holds RoutingCore/ProbabilisticRouter tunables (C4, C5).
	Routing RoutingConfig `json:"routing"`

	// Semantic holds the optional redis-backed result cache (§6, domain
	// stack) — out of spec.md scope except for its interface.
	Semantic SemanticConfig `json:"semantic"`

	// Telemetry holds OpenTelemetry meter/tracer configuration.
	Telemetry TelemetryConfig `json:"telemetry"`

	// Logging configures the default logger when none is injected.
	Logging LoggingConfig `json:"logging"`

	logger logger.Logger `json:"-"`
}

type LockConfig struct {
	Timeout      time.Duration `json:"timeout" env:"ROUTER_LOCK_TIMEOUT" default:"30s"`
	PollInterval time.Duration `json:"poll_interval" env:"ROUTER_LOCK_POLL_INTERVAL" default:"100ms"`
}

type QuotaConfig struct {
	// Limit is messages/day per tier; 0 means unlimited (cheap).
	Limit map[Tier]int `json:"limit"`
	// ReserveBuffer is the fraction of a tier's quota left unused.
	ReserveBuffer map[Tier]float64 `json:"reserve_buffer"`
}

type TemporalConfig struct {
	ActiveHoursStart     string        `json:"active_hours_start" env:"ROUTER_ACTIVE_HOURS_START" default:"09:00"`
	ActiveHoursEnd       string        `json:"active_hours_end" env:"ROUTER_ACTIVE_HOURS_END" default:"22:00"`
	Timezone             string        `json:"timezone" env:"ROUTER_TIMEZONE" default:"Local"`
	OvernightConcurrency int           `json:"overnight_concurrency" env:"ROUTER_OVERNIGHT_CONCURRENCY" default:"3"`
	OvernightTimeout     time.Duration `json:"overnight_timeout" env:"ROUTER_OVERNIGHT_TIMEOUT" default:"6h"`
}

type MetricsConfig struct {
	RetentionDays int `json:"retention_days" env:"ROUTER_METRICS_RETENTION_DAYS" default:"90"`
}

type SessionConfig struct {
	TTL time.Duration `json:"ttl" env:"ROUTER_SESSION_TTL" default:"720h"` // 30 days
}

type RoutingConfig struct {
	UseLLMRouting        bool    `json:"use_llm_routing" env:"ROUTER_USE_LLM_ROUTING" default:"false"`
	KeywordConfidenceMin float64 `json:"keyword_confidence_min" default:"0.8"`
	LLMConfidenceMin     float64 `json:"llm_confidence_min" default:"0.7"`
	AgentDefDir          string  `json:"agent_def_dir" env:"ROUTER_AGENT_DEF_DIR" default:".claude/agents"`
}

type SemanticConfig struct {
	Enabled  bool   `json:"enabled" env:"ROUTER_SEMANTIC_CACHE_ENABLED" default:"false"`
	RedisURL string `json:"redis_url" env:"ROUTER_REDIS_URL" default:"redis://localhost:6379/0"`
}

type TelemetryConfig struct {
	Enabled        bool   `json:"enabled" env:"ROUTER_OTEL_ENABLED" default:"false"`
	ServiceName    string `json:"service_name" env:"ROUTER_OTEL_SERVICE_NAME" default:"claude-router"`
	ExporterTarget string `json:"exporter_target" env:"ROUTER_OTEL_ENDPOINT"`
}

type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"LOG_FORMAT" default:"text"`
}

// Option configures a Config during NewConfig.
type Option func(*Config) error

func DefaultConfig() *Config {
	return &Config{
		StateDir: "./router-state",
		Lock: LockConfig{
			Timeout:      30 * time.Second,
			PollInterval: 100 * time.Millisecond,
		},
		Quota: QuotaConfig{
			Limit: map[Tier]int{
				TierCheap:  0, // unlimited
				TierMid:    1125,
				TierStrong: 250,
			},
			ReserveBuffer: map[Tier]float64{
				TierCheap:  0,
				TierMid:    0.10,
				TierStrong: 0.20,
			},
		},
		WIPLimit: 2,
		Temporal: TemporalConfig{
			ActiveHoursStart:     "09:00",
			ActiveHoursEnd:       "22:00",
			Timezone:             "Local",
			OvernightConcurrency: 3,
			OvernightTimeout:     6 * time.Hour,
		},
		Metrics: MetricsConfig{RetentionDays: 90},
		Session: SessionConfig{TTL: 720 * time.Hour},
		Routing: RoutingConfig{
			UseLLMRouting:        false,
			KeywordConfidenceMin: 0.8,
			LLMConfidenceMin:     0.7,
			AgentDefDir:          ".claude/agents",
		},
		Semantic: SemanticConfig{Enabled: false, RedisURL: "redis://localhost:6379/0"},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "claude-router",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// LoadFromEnv overlays environment variables onto the current values.
// Mirrors the teacher's env-tag convention without reflection: a fixed,
// explicit list keeps behavior obvious and testable.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("ROUTER_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("ROUTER_LOCK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &RouterError{Op: "LoadFromEnv", Kind: "config", Message: "ROUTER_LOCK_TIMEOUT", Err: ErrInvalidConfiguration}
		}
		c.Lock.Timeout = d
	}
	if v := os.Getenv("ROUTER_LOCK_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &RouterError{Op: "LoadFromEnv", Kind: "config", Message: "ROUTER_LOCK_POLL_INTERVAL", Err: ErrInvalidConfiguration}
		}
		c.Lock.PollInterval = d
	}
	if v := os.Getenv("ROUTER_WIP_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return &RouterError{Op: "LoadFromEnv", Kind: "config", Message: "ROUTER_WIP_LIMIT", Err: ErrInvalidConfiguration}
		}
		c.WIPLimit = n
	}
	if v := os.Getenv("ROUTER_ACTIVE_HOURS_START"); v != "" {
		c.Temporal.ActiveHoursStart = v
	}
	if v := os.Getenv("ROUTER_ACTIVE_HOURS_END"); v != "" {
		c.Temporal.ActiveHoursEnd = v
	}
	if v := os.Getenv("ROUTER_TIMEZONE"); v != "" {
		c.Temporal.Timezone = v
	}
	if v := os.Getenv("ROUTER_OVERNIGHT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return &RouterError{Op: "LoadFromEnv", Kind: "config", Message: "ROUTER_OVERNIGHT_CONCURRENCY", Err: ErrInvalidConfiguration}
		}
		c.Temporal.OvernightConcurrency = n
	}
	if v := os.Getenv("ROUTER_METRICS_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return &RouterError{Op: "LoadFromEnv", Kind: "config", Message: "ROUTER_METRICS_RETENTION_DAYS", Err: ErrInvalidConfiguration}
		}
		c.Metrics.RetentionDays = n
	}
	if v := os.Getenv("ROUTER_USE_LLM_ROUTING"); v != "" {
		c.Routing.UseLLMRouting = parseBool(v)
	}
	if v := os.Getenv("ROUTER_AGENT_DEF_DIR"); v != "" {
		c.Routing.AgentDefDir = v
	}
	if v := os.Getenv("ROUTER_REDIS_URL"); v != "" {
		c.Semantic.RedisURL = v
	}
	if v := os.Getenv("ROUTER_SEMANTIC_CACHE_ENABLED"); v != "" {
		c.Semantic.Enabled = parseBool(v)
	}
	if v := os.Getenv("ROUTER_OTEL_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("ROUTER_OTEL_ENDPOINT"); v != "" {
		c.Telemetry.ExporterTarget = v
	}
	if v := os.Getenv("ROUTER_OTEL_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Validate checks invariants that must hold before the configuration is
// handed to any component.
func (c *Config) Validate() error {
	if c.WIPLimit < 1 {
		return &RouterError{Op: "Validate", Kind: "config", Message: "wip_limit must be >= 1", Err: ErrInvalidConfiguration}
	}
	if c.Lock.Timeout <= 0 {
		return &RouterError{Op: "Validate", Kind: "config", Message: "lock timeout must be positive", Err: ErrInvalidConfiguration}
	}
	if c.Temporal.OvernightConcurrency < 1 {
		return &RouterError{Op: "Validate", Kind: "config", Message: "overnight_concurrency must be >= 1", Err: ErrInvalidConfiguration}
	}
	for tier, buf := range c.Quota.ReserveBuffer {
		if buf < 0 || buf >= 1 {
			return &RouterError{Op: "Validate", Kind: "config", ID: string(tier), Message: "reserve buffer must be in [0,1)", Err: ErrInvalidConfiguration}
		}
	}
	return nil
}

// NewConfig builds a Config from defaults, environment variables, then
// functional options, in that priority order (options win).
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if cfg.logger == nil {
		sl := logger.NewSimpleLogger()
		sl.SetLevel(cfg.Logging.Level)
		cfg.logger = sl
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Logger returns the configured logger, building a default if none was set.
func (c *Config) Logger() logger.Logger {
	if c.logger == nil {
		return logger.NewDefaultLogger()
	}
	return c.logger
}

// Functional options.

func WithStateDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return &RouterError{Op: "WithStateDir", Kind: "config", Err: ErrInvalidConfiguration}
		}
		c.StateDir = dir
		return nil
	}
}

func WithWIPLimit(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return &RouterError{Op: "WithWIPLimit", Kind: "config", Message: fmt.Sprintf("invalid wip limit: %d", n), Err: ErrInvalidConfiguration}
		}
		c.WIPLimit = n
		return nil
	}
}

func WithLockTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return &RouterError{Op: "WithLockTimeout", Kind: "config", Err: ErrInvalidConfiguration}
		}
		c.Lock.Timeout = d
		return nil
	}
}

func WithQuotaLimit(tier Tier, limit int) Option {
	return func(c *Config) error {
		if c.Quota.Limit == nil {
			c.Quota.Limit = map[Tier]int{}
		}
		c.Quota.Limit[tier] = limit
		return nil
	}
}

func WithQuotaReserveBuffer(tier Tier, buffer float64) Option {
	return func(c *Config) error {
		if buffer < 0 || buffer >= 1 {
			return &RouterError{Op: "WithQuotaReserveBuffer", Kind: "config", ID: string(tier), Err: ErrInvalidConfiguration}
		}
		if c.Quota.ReserveBuffer == nil {
			c.Quota.ReserveBuffer = map[Tier]float64{}
		}
		c.Quota.ReserveBuffer[tier] = buffer
		return nil
	}
}

func WithActiveHours(start, end string) Option {
	return func(c *Config) error {
		c.Temporal.ActiveHoursStart = start
		c.Temporal.ActiveHoursEnd = end
		return nil
	}
}

func WithOvernightConcurrency(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return &RouterError{Op: "WithOvernightConcurrency", Kind: "config", Err: ErrInvalidConfiguration}
		}
		c.Temporal.OvernightConcurrency = n
		return nil
	}
}

func WithMetricsRetentionDays(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return &RouterError{Op: "WithMetricsRetentionDays", Kind: "config", Err: ErrInvalidConfiguration}
		}
		c.Metrics.RetentionDays = n
		return nil
	}
}

func WithLLMRouting(enabled bool) Option {
	return func(c *Config) error {
		c.Routing.UseLLMRouting = enabled
		return nil
	}
}

func WithAgentDefDir(dir string) Option {
	return func(c *Config) error {
		c.Routing.AgentDefDir = dir
		return nil
	}
}

func WithSemanticCache(redisURL string) Option {
	return func(c *Config) error {
		c.Semantic.Enabled = true
		c.Semantic.RedisURL = redisURL
		return nil
	}
}

func WithTelemetry(enabled bool, serviceName, exporterTarget string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = enabled
		c.Telemetry.ServiceName = serviceName
		c.Telemetry.ExporterTarget = exporterTarget
		return nil
	}
}

func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = level
		return nil
	}
}

func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Config) error {
		c.logger = l
		return nil
	}
}
