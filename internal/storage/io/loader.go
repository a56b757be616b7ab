package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/todochat/internal/model"
)

// AgentConfigYAMLRepository loads the agent configuration from YAML files.
type AgentConfigYAMLRepository struct {
	fs fs.FS
}

// NewAgentConfigYAMLRepository creates a new YAML agent config repository.
func NewAgentConfigYAMLRepository(filesystem fs.FS) *AgentConfigYAMLRepository {
	return &AgentConfigYAMLRepository{fs: filesystem}
}

// GetAgentConfig loads an agent configuration from a YAML file and returns a validated domain model.
func (r *AgentConfigYAMLRepository) GetAgentConfig(ctx context.Context, path string) (model.AgentConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.AgentConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.AgentConfig{}, ctx.Err()
	}

	var cfg AgentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.AgentConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return model.AgentConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg.toModel(), nil
}

// AgentConfig represents the YAML structure for the agent configuration.
type AgentConfig struct {
	Model        string   `yaml:"model"`
	Temperature  *float64 `yaml:"temperature,omitempty"`
	SystemPrompt string   `yaml:"system_prompt"`
}

func (c AgentConfig) validate() error {
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	return nil
}

func (c AgentConfig) toModel() model.AgentConfig {
	return model.AgentConfig{
		Model:        c.Model,
		Temperature:  c.Temperature,
		SystemPrompt: c.SystemPrompt,
	}
}
