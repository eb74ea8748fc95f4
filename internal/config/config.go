// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the paperxai YAML configuration, fills defaults,
// applies viper overrides from flags and the environment, and validates the
// result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperxai/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. PAPERXAI_MAX_RESULTS.
const EnvPrefix = "PAPERXAI"

// Defaults applied by ApplyDefaults.
const (
	DefaultProvider   = "openai"
	DefaultDataDir    = "data"
	DefaultOutputDir  = "display/reports"
	DefaultTopK       = 3
	DefaultMaxResults = 100
	DefaultSchedule   = "0 7 * * *"
	DefaultArchive    = "archive.db"
)

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("invalid configuration")

// file is the on-disk layout. Sections are decoded from a yaml.Node so that
// mapping order survives.
type file struct {
	types.Config `yaml:",inline"`
	Sections     yaml.Node `yaml:"sections"`
}

type sectionBody struct {
	Title     string   `yaml:"title"`
	Questions []string `yaml:"questions"`
}

// NewViper returns a viper instance reading PAPERXAI_ environment overrides,
// with nested keys mapped to underscores (logging.level -> PAPERXAI_LOGGING_LEVEL).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config at path. When path is empty and v located a config
// file, that file is used. Overrides set in v win over the file.
func Load(path string, v *viper.Viper) (*types.Config, error) {
	if path == "" && v != nil {
		path = v.ConfigFileUsed()
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no config file given", ErrInvalid)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyOverrides(cfg, v)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document without applying defaults.
func Parse(data []byte) (*types.Config, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	sections, err := decodeSections(&f.Sections)
	if err != nil {
		return nil, err
	}

	cfg := f.Config
	cfg.Report = types.ReportConfig{Sections: sections}
	return &cfg, nil
}

func decodeSections(n *yaml.Node) ([]types.SectionConfig, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: sections must be a mapping of id to {title, questions}", n.Line)
	}

	out := make([]types.SectionConfig, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]

		var body sectionBody
		if err := val.Decode(&body); err != nil {
			return nil, fmt.Errorf("section %q: %w", key.Value, err)
		}
		title := strings.TrimSpace(body.Title)
		if title == "" {
			title = key.Value
		}
		out = append(out, types.SectionConfig{
			ID:        key.Value,
			Title:     title,
			Questions: body.Questions,
		})
	}
	return out, nil
}

// ApplyDefaults fills zero-valued settings.
func ApplyDefaults(cfg *types.Config) {
	if cfg.LanguageModel.Provider == "" {
		cfg.LanguageModel.Provider = DefaultProvider
	}
	cfg.LanguageModel.Provider = strings.ToLower(strings.TrimSpace(cfg.LanguageModel.Provider))

	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}

	if cfg.Output.OutputDir == "" {
		cfg.Output.OutputDir = DefaultOutputDir
	}
	if cfg.Output.TopK == 0 {
		cfg.Output.TopK = DefaultTopK
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{"console", "html"}
	}
	cfg.Output.Formats = NormalizeFormats(cfg.Output.Formats)

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.MinDelay == 0 {
		cfg.Retry.MinDelay = time.Second
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Archive.Path == "" {
		cfg.Archive.Path = cfg.DataDir + "/" + DefaultArchive
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
}

// NormalizeFormats lowercases format names, splits comma-separated entries,
// and maps "md" to "markdown".
func NormalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, entry := range formats {
		for _, f := range strings.Split(entry, ",") {
			f = strings.ToLower(strings.TrimSpace(f))
			switch f {
			case "":
				continue
			case "md":
				f = "markdown"
			}
			out = append(out, f)
		}
	}
	return out
}

func applyOverrides(cfg *types.Config, v *viper.Viper) {
	if v == nil {
		return
	}
	if v.IsSet("max_results") {
		cfg.MaxResults = v.GetInt("max_results")
	}
	if v.IsSet("max_papers") {
		cfg.MaxPapers = v.GetInt("max_papers")
	}
	if v.IsSet("data_dir") {
		cfg.DataDir = v.GetString("data_dir")
	}
	if v.IsSet("language_model.provider") {
		cfg.LanguageModel.Provider = v.GetString("language_model.provider")
	}
	if v.IsSet("report.output_dir") {
		cfg.Output.OutputDir = v.GetString("report.output_dir")
	}
	if v.IsSet("report.markdown_responses") {
		cfg.Output.MarkdownResponses = v.GetBool("report.markdown_responses")
	}
	if v.IsSet("report.formats") {
		cfg.Output.Formats = v.GetStringSlice("report.formats")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.format") {
		cfg.Logging.Format = v.GetString("logging.format")
	}
	if v.IsSet("metrics_file") {
		cfg.MetricsFile = v.GetString("metrics_file")
	}
	if v.IsSet("schedule") {
		cfg.Schedule = v.GetString("schedule")
	}
	if v.IsSet("archive.enabled") {
		cfg.Archive.Enabled = v.GetBool("archive.enabled")
	}
}

// Validate checks struct constraints and section uniqueness. Report
// sections are keyed by title, so two sections sharing a title are rejected.
func Validate(cfg *types.Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	seen := make(map[string]string, len(cfg.Report.Sections))
	for _, s := range cfg.Report.Sections {
		if prev, ok := seen[s.Title]; ok {
			return fmt.Errorf("%w: sections %q and %q share the title %q", ErrInvalid, prev, s.ID, s.Title)
		}
		seen[s.Title] = s.ID
		if len(s.Questions) == 0 {
			return fmt.Errorf("%w: section %q has no questions", ErrInvalid, s.ID)
		}
	}
	return nil
}
