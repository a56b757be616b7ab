package model

// AgentConfig customizes how the assistant talks to the language model. Empty
// fields keep the defaults.
type AgentConfig struct {
	Model        string
	Temperature  *float64
	SystemPrompt string
}
