// Package config resolves runtime settings from, in increasing
// precedence, a YAML config file, environment variables, and CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a setting plus where it came from, for `chatpack
// config` style diagnostics.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-level overrides into resolution.
type ResolveOptions struct {
	ConfigPath     string
	CLIOutputDir   string
	CLIOrganize    string
	CLISplitSize   string
	CLIFrontmatter string
	CLIListenAddr  string
	CLIEnhanceURL  string
	CLIModel       string
}

// ResolvedConfig is the fully resolved settings surface.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	OutputDir   ResolvedValue `json:"output_dir"`
	Organize    ResolvedValue `json:"organize"`
	SplitSize   ResolvedValue `json:"split_size"`
	Frontmatter ResolvedValue `json:"frontmatter"`

	ListenAddr ResolvedValue `json:"listen_addr"`

	EnhanceURL   ResolvedValue `json:"enhance_url"`
	EnhanceModel ResolvedValue `json:"enhance_model"`
	EnhanceKey   ResolvedValue `json:"enhance_key"`
}

type fileConfig struct {
	OutputDir string `yaml:"output_dir"`
	Output    struct {
		Organize    string `yaml:"organize"`
		SplitSize   string `yaml:"split_size"`
		Frontmatter string `yaml:"frontmatter"`
	} `yaml:"output"`
	Serve struct {
		Listen string `yaml:"listen"`
	} `yaml:"serve"`
	Enhance struct {
		URL    string `yaml:"url"`
		Model  string `yaml:"model"`
		APIKey string `yaml:"api_key"`
	} `yaml:"enhance"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatpack", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.OutputDir, cfg.OutputDir, SourceConfig, path)
		apply(&out.Organize, cfg.Output.Organize, SourceConfig, path)
		apply(&out.SplitSize, cfg.Output.SplitSize, SourceConfig, path)
		apply(&out.Frontmatter, cfg.Output.Frontmatter, SourceConfig, path)
		apply(&out.ListenAddr, cfg.Serve.Listen, SourceConfig, path)
		apply(&out.EnhanceURL, cfg.Enhance.URL, SourceConfig, path)
		apply(&out.EnhanceModel, cfg.Enhance.Model, SourceConfig, path)
		apply(&out.EnhanceKey, cfg.Enhance.APIKey, SourceConfig, path)
	}

	applyEnv(&out.OutputDir, "CHATPACK_OUTPUT")
	applyEnv(&out.Organize, "CHATPACK_ORGANIZE")
	applyEnv(&out.SplitSize, "CHATPACK_SPLIT_SIZE")
	applyEnv(&out.Frontmatter, "CHATPACK_FRONTMATTER")
	applyEnv(&out.ListenAddr, "CHATPACK_LISTEN")
	applyEnv(&out.EnhanceURL, "CHATPACK_ENHANCE_URL")
	applyEnv(&out.EnhanceModel, "CHATPACK_ENHANCE_MODEL")
	applyEnv(&out.EnhanceKey, "OPENAI_API_KEY")
	applyEnv(&out.EnhanceKey, "CHATPACK_ENHANCE_API_KEY")

	apply(&out.OutputDir, opts.CLIOutputDir, SourceCLI, "--output")
	apply(&out.Organize, opts.CLIOrganize, SourceCLI, "--organize")
	apply(&out.SplitSize, opts.CLISplitSize, SourceCLI, "--split-size")
	apply(&out.Frontmatter, opts.CLIFrontmatter, SourceCLI, "--frontmatter")
	apply(&out.ListenAddr, opts.CLIListenAddr, SourceCLI, "--listen")
	apply(&out.EnhanceURL, opts.CLIEnhanceURL, SourceCLI, "--enhance-url")
	apply(&out.EnhanceModel, opts.CLIModel, SourceCLI, "--model")

	if out.OutputDir.Value != "" {
		out.OutputDir.Value = expandUserPath(out.OutputDir.Value)
	}

	return out, nil
}

// EffectiveSplitSize parses the resolved split size, falling back to
// def for unset or invalid values.
func (r ResolvedConfig) EffectiveSplitSize(def int) int {
	v := strings.TrimSpace(r.SplitSize.Value)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// EffectiveFrontmatter interprets the resolved frontmatter flag,
// defaulting to enabled.
func (r ResolvedConfig) EffectiveFrontmatter() bool {
	switch strings.ToLower(strings.TrimSpace(r.Frontmatter.Value)) {
	case "false", "no", "off", "0":
		return false
	}
	return true
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
