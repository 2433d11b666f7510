// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by collaborators that make
// network requests (remote workers, the remote responder).
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "intellidrug/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// OrchestratorConfig holds settings for running workers.
type OrchestratorConfig struct {
	// WorkerTimeout bounds each worker invocation (default 30s).
	WorkerTimeout time.Duration `json:"worker_timeout" yaml:"worker_timeout" mapstructure:"worker_timeout"`

	// WorkerTimeouts overrides WorkerTimeout for individual workers.
	WorkerTimeouts map[string]time.Duration `json:"worker_timeouts,omitempty" yaml:"worker_timeouts,omitempty" mapstructure:"worker_timeouts"`

	// MaxConcurrentSubjects bounds parallel subject runs during comparison.
	// Zero means unbounded.
	MaxConcurrentSubjects int `json:"max_concurrent_subjects" yaml:"max_concurrent_subjects" mapstructure:"max_concurrent_subjects"`

	// Strategy is the default weighting strategy.
	Strategy Strategy `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
}

// WorkerKind selects how a configured worker is reached.
type WorkerKind string

const (
	WorkerKindFixture   WorkerKind = "fixture"
	WorkerKindHTTP      WorkerKind = "http"
	WorkerKindContainer WorkerKind = "container"
)

// WorkerConfig binds a worker name to an external collaborator.
type WorkerConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Name is the worker name used in results and weight profiles.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Kind selects the adapter: fixture, http, or container.
	Kind WorkerKind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// FixturePath is the YAML file of canned results (fixture kind).
	FixturePath string `json:"fixture_path,omitempty" yaml:"fixture_path,omitempty" mapstructure:"fixture_path"`

	// URL is the endpoint that accepts analyze requests (http kind).
	URL string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`

	// Image is the container image that runs the worker (container kind).
	Image string `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`

	// Runtime is "docker" or "podman"; empty auto-detects (container kind).
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty" mapstructure:"runtime"`

	// MaxRetries is the retry budget for HTTP 429 responses (default 3).
	MaxRetries int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" mapstructure:"max_retries"`
}

// ReportFormat selects the report file type.
type ReportFormat string

const (
	ReportXLSX     ReportFormat = "xlsx"
	ReportMarkdown ReportFormat = "markdown"
	ReportHTML     ReportFormat = "html"
)

// ReportConfig holds settings for the report collaborator.
type ReportConfig struct {
	// Disabled turns report generation off.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`

	// OutputDir is the directory reports are written to (default "reports").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Format selects xlsx, markdown, or html (default xlsx).
	Format ReportFormat `json:"format" yaml:"format" mapstructure:"format"`
}

// StoreConfig holds settings for the analysis archive.
type StoreConfig struct {
	// Driver is "sqlite3" (default) or "postgres".
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is the data source name; for sqlite3 a file path
	// (default "data/intellidrug.db").
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr         string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`

	// APIToken, when set, is required as a bearer token on every request.
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty" mapstructure:"api_token"`
}

// ResponderConfig holds settings for the follow-up text responder.
type ResponderConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the endpoint that answers follow-up prompts. Empty disables
	// follow-up answers.
	URL string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`

	// APIKey is sent as a bearer token.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups all settings for the engine.
type Config struct {
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator" mapstructure:"orchestrator"`
	Workers      []WorkerConfig     `json:"workers" yaml:"workers" mapstructure:"workers"`
	Report       ReportConfig       `json:"report" yaml:"report" mapstructure:"report"`
	Store        StoreConfig        `json:"store" yaml:"store" mapstructure:"store"`
	Server       ServerConfig       `json:"server" yaml:"server" mapstructure:"server"`
	Responder    ResponderConfig    `json:"responder" yaml:"responder" mapstructure:"responder"`
	Log          LogConfig          `json:"log" yaml:"log" mapstructure:"log"`
}

// Default configuration values.
const (
	DefaultWorkerTimeout = 30 * time.Second
	DefaultFixturePath   = "workers.yaml"
	DefaultReportDir     = "reports"
	DefaultStoreDriver   = "sqlite3"
	DefaultStoreDSN      = "data/intellidrug.db"
	DefaultServerAddr    = "127.0.0.1:8080"
	DefaultUserAgent     = "intellidrug/0.1"
)

// WithDefaults returns a copy of c with zero values replaced by defaults.
// When no workers are configured, every canonical worker is bound to the
// default fixture file.
func (c Config) WithDefaults() Config {
	if c.Orchestrator.WorkerTimeout <= 0 {
		c.Orchestrator.WorkerTimeout = DefaultWorkerTimeout
	}
	if c.Orchestrator.Strategy == "" {
		c.Orchestrator.Strategy = StrategyStandard
	}
	if len(c.Workers) == 0 {
		for _, name := range CanonicalWorkers {
			c.Workers = append(c.Workers, WorkerConfig{
				Name:        name,
				Kind:        WorkerKindFixture,
				FixturePath: DefaultFixturePath,
			})
		}
	}
	for i := range c.Workers {
		if c.Workers[i].UserAgent == "" {
			c.Workers[i].UserAgent = DefaultUserAgent
		}
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = DefaultReportDir
	}
	if c.Report.Format == "" {
		c.Report.Format = ReportXLSX
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultStoreDriver
	}
	if c.Store.DSN == "" && c.Store.Driver == DefaultStoreDriver {
		c.Store.DSN = DefaultStoreDSN
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Responder.UserAgent == "" {
		c.Responder.UserAgent = DefaultUserAgent
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	return c
}
