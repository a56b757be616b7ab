package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/todochat/internal/agent"
	"github.com/slok/todochat/internal/app/chat"
	"github.com/slok/todochat/internal/conventions"
	"github.com/slok/todochat/internal/llm"
	"github.com/slok/todochat/internal/llm/fake"
	"github.com/slok/todochat/internal/llm/gemini"
	"github.com/slok/todochat/internal/llm/openai"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/printer"
	"github.com/slok/todochat/internal/storage"
	storageio "github.com/slok/todochat/internal/storage/io"
	"github.com/slok/todochat/internal/storage/memory"
	"github.com/slok/todochat/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	StorageSQLite = "sqlite"
	StorageMemory = "memory"

	LLMProviderOpenAI = "openai"
	LLMProviderGemini = "gemini"
	LLMProviderFake   = "fake"

	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DBPath     string
	Storage    string

	// Model flags.
	LLMProvider     string
	LLMAPIKey       string
	LLMBaseURL      string
	LLMModel        string
	LLMTimeout      time.Duration
	AgentConfigPath string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("db-path", "Path to the SQLite database file.").Default(conventions.DefaultDBPath()).StringVar(&c.DBPath)
	app.Flag("storage", "Storage backend, memory data is lost on exit.").Default(StorageSQLite).EnumVar(&c.Storage, StorageSQLite, StorageMemory)

	app.Flag("llm-provider", "Language model provider.").Default(LLMProviderOpenAI).EnumVar(&c.LLMProvider, LLMProviderOpenAI, LLMProviderGemini, LLMProviderFake)
	app.Flag("llm-api-key", "Language model provider API key.").StringVar(&c.LLMAPIKey)
	app.Flag("llm-base-url", "Language model API base URL (defaults to the provider one).").StringVar(&c.LLMBaseURL)
	app.Flag("llm-model", "Language model name (defaults to the provider one).").StringVar(&c.LLMModel)
	app.Flag("llm-timeout", "Max time waiting for the language model on each turn.").Default("60s").DurationVar(&c.LLMTimeout)
	app.Flag("agent-config", "Optional YAML file overriding the agent model, temperature and system prompt.").StringVar(&c.AgentConfigPath)

	return c
}

// Store is the storage used by the commands.
type Store interface {
	storage.Transactor
	Tasks() storage.TaskRepository
	Conversations() storage.ConversationRepository
}

// NewStore returns the configured store and the func that closes it.
func (r *RootCommand) NewStore(ctx context.Context) (Store, func() error, error) {
	switch r.Storage {
	case StorageMemory:
		s, err := memory.NewStore(memory.StoreConfig{Logger: r.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create memory store: %w", err)
		}
		return s, func() error { return nil }, nil
	default:
		s, err := sqlite.NewStore(ctx, sqlite.StoreConfig{
			DBPath: r.DBPath,
			Logger: r.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create sqlite store: %w", err)
		}
		return s, s.Close, nil
	}
}

// NewModelClient returns the configured language model client.
func (r *RootCommand) NewModelClient(ctx context.Context) (llm.Client, error) {
	switch r.LLMProvider {
	case LLMProviderFake:
		r.Logger.Warningf("Using the rule based fake model")
		return fake.NewRules(), nil
	case LLMProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.ClientConfig{
			APIKey:  r.LLMAPIKey,
			BaseURL: r.LLMBaseURL,
			Model:   r.LLMModel,
			Logger:  r.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create gemini client: %w", err)
		}
		return c, nil
	default:
		c, err := openai.NewClient(openai.ClientConfig{
			APIKey:  r.LLMAPIKey,
			BaseURL: r.LLMBaseURL,
			Model:   r.LLMModel,
			Logger:  r.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create openai client: %w", err)
		}
		return c, nil
	}
}

// LoadAgentConfig returns the agent configuration file, if any.
func (r *RootCommand) LoadAgentConfig(ctx context.Context) (model.AgentConfig, error) {
	if r.AgentConfigPath == "" {
		return model.AgentConfig{}, nil
	}

	abs, err := filepath.Abs(r.AgentConfigPath)
	if err != nil {
		return model.AgentConfig{}, fmt.Errorf("could not resolve agent config path: %w", err)
	}

	repo := storageio.NewAgentConfigYAMLRepository(os.DirFS(filepath.Dir(abs)))
	cfg, err := repo.GetAgentConfig(ctx, filepath.Base(abs))
	if err != nil {
		return model.AgentConfig{}, fmt.Errorf("could not load agent config: %w", err)
	}

	r.Logger.Debugf("Agent config loaded from %s", abs)
	return cfg, nil
}

// NewChatService wires the chat turn service on the store.
func (r *RootCommand) NewChatService(ctx context.Context, store storage.Transactor) (*chat.Service, error) {
	client, err := r.NewModelClient(ctx)
	if err != nil {
		return nil, err
	}

	agentCfg, err := r.LoadAgentConfig(ctx)
	if err != nil {
		return nil, err
	}

	orchestrator, err := agent.NewOrchestrator(agent.OrchestratorConfig{
		Model:       client,
		AgentConfig: agentCfg,
		Timeout:     r.LLMTimeout,
		Logger:      r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create orchestrator: %w", err)
	}

	svc, err := chat.NewService(chat.ServiceConfig{
		Transactor: store,
		Runner:     orchestrator,
		Logger:     r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create chat service: %w", err)
	}

	return svc, nil
}

// NewPrinter returns the printer for an output format.
func (r *RootCommand) NewPrinter(format string) printer.Printer {
	if format == formatJSON {
		return printer.NewJSONPrinter(r.Stdout)
	}
	return printer.NewTablePrinter(r.Stdout, nil)
}
