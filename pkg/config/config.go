// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads bmpp settings from defaults, an optional YAML file,
// BMPP_* environment variables and explicit key=value overrides, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BMPP_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	LLM       LLMConfig       `koanf:"llm"`
	Codegen   CodegenConfig   `koanf:"codegen"`
	Audit     AuditConfig     `koanf:"audit"`
	MCP       MCPConfig       `koanf:"mcp"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter" validate:"oneof=none stdout otlp"`
	OTLPEndpoint string `koanf:"otlp_endpoint" validate:"required_if=Exporter otlp"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
	ServiceName  string `koanf:"service_name" validate:"required"`
}

type LLMConfig struct {
	Provider       string `koanf:"provider" validate:"oneof=ollama mock"`
	Model          string `koanf:"model" validate:"required"`
	BaseURL        string `koanf:"base_url" validate:"required_if=Provider ollama,omitempty,url"`
	MaxAttempts    int    `koanf:"max_attempts" validate:"min=1,max=10"`
	TimeoutSeconds int    `koanf:"timeout_seconds" validate:"min=1"`
	Retries        int    `koanf:"retries" validate:"min=0,max=10"`
}

type CodegenConfig struct {
	Target           string `koanf:"target" validate:"oneof=go rust python"`
	Package          string `koanf:"package"`
	IncludeValidator bool   `koanf:"include_validator"`
	TemplateDir      string `koanf:"template_dir"`
	OutputDir        string `koanf:"output_dir" validate:"required"`
}

type AuditConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required_if=Enabled true"`
}

type MCPConfig struct {
	Name    string `koanf:"name" validate:"required"`
	Version string `koanf:"version" validate:"required"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"log.level":                 "info",
		"log.format":                "text",
		"telemetry.exporter":        "none",
		"telemetry.otlp_endpoint":   "localhost:4317",
		"telemetry.otlp_insecure":   true,
		"telemetry.service_name":    "bmpp",
		"llm.provider":              "ollama",
		"llm.model":                 "llama3.1",
		"llm.base_url":              "http://localhost:11434",
		"llm.max_attempts":          3,
		"llm.timeout_seconds":       120,
		"llm.retries":               2,
		"codegen.target":            "go",
		"codegen.include_validator": false,
		"codegen.output_dir":        "generated",
		"audit.enabled":             false,
		"audit.path":                "bmpp-audit.db",
		"mcp.name":                  "bmpp",
		"mcp.version":               "0.1.0",
	}
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load followed by "key=value" overrides, such as
// "llm.model=qwen2.5". The result is validated.
func LoadWithOverrides(path string, overrides []string) (*Config, error) {
	k := koanf.New(".")
	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// BMPP_LLM_BASE_URL -> llm.base_url: only the first underscore separates
	// the section from the key.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	for _, o := range overrides {
		key, value, err := ParseOverride(o)
		if err != nil {
			return nil, err
		}
		if err := k.Set(key, value); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseOverride splits "key=value". The key must be a dotted path.
func ParseOverride(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid override %q: expected key=value", s)
	}
	if !strings.Contains(key, ".") {
		return "", "", fmt.Errorf("invalid override %q: key must be section.name", s)
	}
	return strings.ToLower(key), value, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("koanf")
	})
	return v
}

// Validate checks cfg against its struct constraints. Field errors are
// reported by their koanf path.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", keyPath(fe.Namespace()), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// keyPath turns a validator namespace such as "Config.llm.base_url" into
// the configuration key "llm.base_url".
func keyPath(ns string) string {
	_, key, _ := strings.Cut(ns, ".")
	return key
}
