// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperxai/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the paper fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the paper API query endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`

	// PageSize is the number of entries requested per API call (default 500).
	PageSize int `json:"page_size" yaml:"page_size" validate:"gte=0,lte=2000"`

	// RequestsPerSecond throttles API calls (default one request every 3s).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
}

// RetryConfig bounds retries of provider and API calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" validate:"gte=0,lte=10"`

	// MinDelay is the lower bound of the randomized backoff (default 1s).
	MinDelay time.Duration `json:"min_delay" yaml:"min_delay"`

	// MaxDelay caps the randomized backoff (default 10s).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`
}

// ModelArgs are the provider constructor arguments (language_model.init_args).
type ModelArgs struct {
	// ChatModel is the completion model identifier.
	ChatModel string `json:"chat_model" yaml:"chat_model"`

	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`

	// Temperature is the sampling temperature for completions.
	Temperature float32 `json:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`

	// MaxTokens caps the completion length.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" validate:"gte=0"`

	// BaseURL overrides the provider API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the bearer credential. Usually supplied through .secrets/ or
	// the environment rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// EmbeddingProvider names the provider used for embeddings when the chat
	// provider has no embedding API (anthropic).
	EmbeddingProvider string `json:"embedding_provider,omitempty" yaml:"embedding_provider,omitempty"`
}

// LanguageModelConfig selects the language-model provider.
type LanguageModelConfig struct {
	// Provider is one of "openai", "gemini", "anthropic".
	Provider string `json:"provider" yaml:"provider" validate:"required,oneof=openai gemini anthropic"`

	// InitArgs configures the provider.
	InitArgs ModelArgs `json:"init_args" yaml:"init_args"`
}

// ReportOutputConfig holds settings for report rendering.
type ReportOutputConfig struct {
	// OutputDir receives dated HTML reports (e.g. "display/reports").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Template is the HTML template path. Empty uses the built-in template.
	Template string `json:"template" yaml:"template"`

	// TopK is the number of papers retrieved per question (default 3).
	TopK int `json:"top_k" yaml:"top_k" validate:"gte=0"`

	// Formats lists the renderings produced by a report run.
	Formats []string `json:"formats" yaml:"formats" validate:"dive,oneof=console html markdown"`

	// MarkdownResponses converts responses in HTML reports from Markdown
	// and escapes the surrounding text. Off writes responses verbatim.
	MarkdownResponses bool `json:"markdown_responses" yaml:"markdown_responses"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" yaml:"level"`

	// Format is "console" or "json".
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=console json"`
}

// ArchiveConfig holds settings for the report history database.
type ArchiveConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// Config groups all settings for a pipeline run.
type Config struct {
	LanguageModel LanguageModelConfig `json:"language_model" yaml:"language_model"`

	// Categories are the arXiv subject categories to fetch.
	Categories []string `json:"arxiv_categories" yaml:"arxiv-categories" validate:"required,min=1,dive,required"`

	// MaxResults bounds a standalone fetch.
	MaxResults int `json:"max_results" yaml:"max_results" validate:"gte=0,lte=30000"`

	// MaxPapers bounds the fetch performed by a report run. Zero falls back
	// to MaxResults.
	MaxPapers int `json:"max_papers" yaml:"max_papers" validate:"gte=0,lte=30000"`

	// Report holds the sections and questions.
	Report ReportConfig `json:"report" yaml:"-"`

	// DataDir is the root for paper artifacts (<data_dir>/arxiv/...).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	Output  ReportOutputConfig `json:"report_output" yaml:"report"`
	Fetch   FetchConfig        `json:"fetch" yaml:"fetch"`
	Retry   RetryConfig        `json:"retry" yaml:"retry"`
	Logging LoggingConfig      `json:"logging" yaml:"logging"`
	Archive ArchiveConfig      `json:"archive" yaml:"archive"`

	// MetricsFile is a Prometheus textfile written after each run. Empty disables.
	MetricsFile string `json:"metrics_file" yaml:"metrics_file"`

	// Schedule is the cron expression used by the scheduler.
	Schedule string `json:"schedule" yaml:"schedule"`
}

// ReportMaxPapers returns the fetch bound for report runs.
func (c Config) ReportMaxPapers() int {
	if c.MaxPapers > 0 {
		return c.MaxPapers
	}
	return c.MaxResults
}
