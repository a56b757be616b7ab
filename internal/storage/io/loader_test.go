package io

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/todochat/internal/model"
)

func TestAgentConfigYAMLRepository_GetAgentConfig(t *testing.T) {
	temp := 0.2

	tests := map[string]struct {
		fs     fstest.MapFS
		path   string
		expCfg model.AgentConfig
		expErr bool
	}{
		"Full agent config should load successfully": {
			fs: fstest.MapFS{
				"agent.yaml": &fstest.MapFile{
					Data: []byte(`model: llama-3.3-70b-versatile
temperature: 0.2
system_prompt: |
  You are a terse assistant.
`),
				},
			},
			path: "agent.yaml",
			expCfg: model.AgentConfig{
				Model:        "llama-3.3-70b-versatile",
				Temperature:  &temp,
				SystemPrompt: "You are a terse assistant.\n",
			},
		},
		"Empty agent config should load with defaults": {
			fs: fstest.MapFS{
				"agent.yaml": &fstest.MapFile{Data: []byte("---\n")},
			},
			path:   "agent.yaml",
			expCfg: model.AgentConfig{},
		},
		"Missing file should fail": {
			fs:     fstest.MapFS{},
			path:   "agent.yaml",
			expErr: true,
		},
		"Invalid YAML should fail": {
			fs: fstest.MapFS{
				"agent.yaml": &fstest.MapFile{Data: []byte("model: [")},
			},
			path:   "agent.yaml",
			expErr: true,
		},
		"Out of range temperature should fail": {
			fs: fstest.MapFS{
				"agent.yaml": &fstest.MapFile{Data: []byte("temperature: 3\n")},
			},
			path:   "agent.yaml",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			repo := NewAgentConfigYAMLRepository(test.fs)
			cfg, err := repo.GetAgentConfig(context.Background(), test.path)

			if test.expErr {
				assert.Error(err)
			} else {
				require.NoError(err)
				assert.Equal(test.expCfg, cfg)
			}
		})
	}
}
