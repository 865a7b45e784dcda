// Package config handles configuration loading and validation for
// stitchlint, grounded on the teacher's internal/config/config.go: viper
// for file/env/default layering, a mapstructure-tagged struct tree, and a
// Validate method returning contextual errors naming the offending index.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/stitchlint/stitchlint/internal/errs"
	"github.com/stitchlint/stitchlint/internal/model"
)

const (
	// DefaultConfigFile is the default configuration file name (without extension).
	DefaultConfigFile = ".stitchlint"
	// DefaultConfigType is the default configuration file type.
	DefaultConfigType = "yaml"
)

// AdapterType is the recognized set of per-adapter extractors (spec §6).
type AdapterType string

const (
	AdapterTypeFastAPI    AdapterType = "fastapi"
	AdapterTypeTypeScript AdapterType = "typescript"
	AdapterTypeNestJS     AdapterType = "nestjs"
)

// Config is the full recognized configuration document (spec §6).
type Config struct {
	ProjectName       string          `mapstructure:"project_name" yaml:"project_name"`
	MaxRecursionDepth int             `mapstructure:"max_recursion_depth" yaml:"max_recursion_depth"`
	OpenAPIPath       string          `mapstructure:"openapi_path" yaml:"openapi_path,omitempty"`
	Output            OutputConfig    `mapstructure:"output" yaml:"output"`
	Adapters          []AdapterConfig `mapstructure:"adapters" yaml:"adapters"`
	Rules             RulesConfig     `mapstructure:"rules" yaml:"rules"`
}

// OutputConfig controls report generation.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // "markdown" or "json"
	Path   string `mapstructure:"path" yaml:"path"`
}

// AdapterConfig describes one configured source-language adapter.
type AdapterConfig struct {
	Type          string   `mapstructure:"type" yaml:"type"`
	AppPath       string   `mapstructure:"app_path" yaml:"app_path,omitempty"`   // fastapi
	SrcPaths      []string `mapstructure:"src_paths" yaml:"src_paths,omitempty"` // typescript/nestjs
	OpenAPIPath   string   `mapstructure:"openapi_path" yaml:"openapi_path,omitempty"`
	StrictImports bool     `mapstructure:"strict_imports" yaml:"strict_imports"`
}

// RulesConfig maps each configurable mismatch kind to a severity.
type RulesConfig struct {
	TypeMismatch     string `mapstructure:"type_mismatch" yaml:"type_mismatch"`
	MissingField     string `mapstructure:"missing_field" yaml:"missing_field"`
	UnnormalizedData string `mapstructure:"unnormalized_data" yaml:"unnormalized_data"`
}

var validSeverities = map[string]model.Severity{
	"critical": model.SeverityCritical,
	"warning":  model.SeverityWarning,
	"info":     model.SeverityInfo,
}

// Load loads configuration from file, environment variables, and defaults.
// configFile, if non-empty, overrides the default discovery path.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigFile)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STITCHLINT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errs.NewConfigError("reading config file: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.NewConfigError("parsing config: %v", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project_name", "")
	v.SetDefault("max_recursion_depth", 0)
	v.SetDefault("output.format", "markdown")
	v.SetDefault("output.path", "stitchlint-report.md")
	v.SetDefault("rules.type_mismatch", "critical")
	v.SetDefault("rules.missing_field", "critical")
	v.SetDefault("rules.unnormalized_data", "warning")
}

// Validate rejects unknown adapter types, missing required paths, and bad
// severity literals, naming the offending adapter index and field (spec
// §6). Returns a fatal ValidationError, never a recoverable Diagnostic.
func (c *Config) Validate() error {
	if c.Output.Format != "" && c.Output.Format != "markdown" && c.Output.Format != "json" {
		return errs.NewValidationError("output.format must be \"markdown\" or \"json\", got %q", c.Output.Format)
	}

	for i, a := range c.Adapters {
		switch AdapterType(a.Type) {
		case AdapterTypeFastAPI:
			if a.AppPath == "" {
				return errs.NewValidationError("adapters[%d] (%s): app_path is required", i, a.Type)
			}
		case AdapterTypeTypeScript, AdapterTypeNestJS:
			if len(a.SrcPaths) == 0 {
				return errs.NewValidationError("adapters[%d] (%s): src_paths is required", i, a.Type)
			}
		default:
			return errs.NewValidationError("adapters[%d]: unknown adapter type %q", i, a.Type)
		}
	}

	for _, pair := range []struct{ field, value string }{
		{"rules.type_mismatch", c.Rules.TypeMismatch},
		{"rules.missing_field", c.Rules.MissingField},
		{"rules.unnormalized_data", c.Rules.UnnormalizedData},
	} {
		if pair.value == "" {
			continue
		}
		if _, ok := validSeverities[strings.ToLower(pair.value)]; !ok {
			return errs.NewValidationError("%s: invalid severity %q, must be critical/warning/info", pair.field, pair.value)
		}
	}

	return nil
}

// Severity resolves a RulesConfig field to a model.Severity, falling back
// to the given default when unset.
func Severity(raw string, fallback model.Severity) model.Severity {
	if s, ok := validSeverities[strings.ToLower(raw)]; ok {
		return s
	}
	return fallback
}
