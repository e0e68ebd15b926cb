// Package config loads language-server definitions and client settings.
//
// Sources are merged in priority order:
//  1. Built-in server definitions
//  2. Global config (os.UserConfigDir()/lstalk/)
//  3. Project config (lstalk.json / lstalk.jsonc / lstalk.yaml in the
//     workspace directory)
//  4. Environment variables (a workspace .env file is loaded first)
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ServerDefinition describes how to launch one language server and which
// documents it serves.
type ServerDefinition struct {
	ID         string   `json:"id" yaml:"id"`
	Command    []string `json:"command" yaml:"command"`
	Extensions []string `json:"extensions" yaml:"extensions"`
	// Patterns are doublestar globs matched against slash-separated paths,
	// e.g. "**/*.proto" or "cmd/**/main.go".
	Patterns   []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	LanguageID string   `json:"languageId,omitempty" yaml:"languageId,omitempty"`
}

// Config is the merged client configuration.
type Config struct {
	LogLevel string                       `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	Trace    string                       `json:"trace,omitempty" yaml:"trace,omitempty"`
	Servers  map[string]*ServerDefinition `json:"servers,omitempty" yaml:"servers,omitempty"`
}

// Default returns the built-in server definitions.
func Default() *Config {
	return &Config{
		Servers: map[string]*ServerDefinition{
			"go": {
				ID:         "go",
				Extensions: []string{".go"},
				Command:    []string{"gopls"},
			},
			"typescript": {
				ID:         "typescript",
				Extensions: []string{".ts", ".tsx", ".js", ".jsx"},
				Command:    []string{"typescript-language-server", "--stdio"},
			},
			"python": {
				ID:         "python",
				Extensions: []string{".py"},
				Command:    []string{"pyright-langserver", "--stdio"},
			},
			"rust": {
				ID:         "rust",
				Extensions: []string{".rs"},
				Command:    []string{"rust-analyzer"},
			},
		},
	}
}

// Load builds the configuration for a workspace directory.
func Load(directory string) (*Config, error) {
	cfg := Default()

	if directory != "" {
		// Best effort; a missing .env is not an error.
		godotenv.Load(filepath.Join(directory, ".env"))
	}

	if globalDir, err := os.UserConfigDir(); err == nil {
		loadDir(filepath.Join(globalDir, "lstalk"), cfg)
	}
	if directory != "" {
		loadDir(directory, cfg)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func loadDir(dir string, cfg *Config) {
	loadFile(filepath.Join(dir, "lstalk.json"), cfg)
	loadFile(filepath.Join(dir, "lstalk.jsonc"), cfg)
	loadFile(filepath.Join(dir, "lstalk.yaml"), cfg)
}

// loadFile merges a single config file into cfg. Missing files are skipped.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	merge(cfg, &file)
	return nil
}

func merge(target, source *Config) {
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.Trace != "" {
		target.Trace = source.Trace
	}
	for id, def := range source.Servers {
		if def.ID == "" {
			def.ID = id
		}
		if target.Servers == nil {
			target.Servers = make(map[string]*ServerDefinition)
		}
		target.Servers[id] = def
	}
}

func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv("LSTALK_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if trace := os.Getenv("LSTALK_TRACE"); trace != "" {
		cfg.Trace = trace
	}
}

// ServerFor resolves the definition serving path, matching extensions first
// and then glob patterns. Returns nil when no definition matches.
func (c *Config) ServerFor(path string) *ServerDefinition {
	ext := strings.ToLower(filepath.Ext(path))
	slashed := filepath.ToSlash(path)

	for _, def := range c.Servers {
		for _, e := range def.Extensions {
			if strings.ToLower(e) == ext && ext != "" {
				return def
			}
		}
	}
	for _, def := range c.Servers {
		for _, pattern := range def.Patterns {
			if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
				return def
			}
		}
	}
	return nil
}
