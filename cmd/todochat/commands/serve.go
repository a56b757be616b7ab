package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/slok/todochat/internal/api"
	"github.com/slok/todochat/internal/app/conversation"
	"github.com/slok/todochat/internal/app/task"
	"github.com/slok/todochat/internal/app/tasklist"
	"github.com/slok/todochat/internal/auth"
	"github.com/slok/todochat/internal/conventions"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddress   string
	ownerHeader     string
	shutdownTimeout time.Duration
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Serve the chat HTTP API.")
	c.Cmd.Flag("listen-address", "Address the HTTP API listens on.").Default(":8080").StringVar(&c.listenAddress)
	c.Cmd.Flag("owner-header", "Trusted header with the authenticated owner.").Default(conventions.OwnerHeader).StringVar(&c.ownerHeader)
	c.Cmd.Flag("shutdown-timeout", "Max time waiting for in-flight requests on shutdown.").Default("10s").DurationVar(&c.shutdownTimeout)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	store, closeStore, err := c.rootCmd.NewStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	chatSvc, err := c.rootCmd.NewChatService(ctx, store)
	if err != nil {
		return err
	}

	convSvc, err := conversation.NewService(conversation.ServiceConfig{
		Repository: store.Conversations(),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create conversation service: %w", err)
	}

	taskSvc, err := task.NewService(task.ServiceConfig{
		Transactor: store,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create task service: %w", err)
	}

	taskListSvc, err := tasklist.NewService(tasklist.ServiceConfig{
		Repository: store.Tasks(),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create task list service: %w", err)
	}

	handler, err := api.NewHandler(api.HandlerConfig{
		Chat:          chatSvc,
		Conversations: convSvc,
		Tasks:         taskSvc,
		TaskList:      taskListSvc,
		Authenticator: auth.NewHeaderAuthenticator(c.ownerHeader),
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("could not create http handler: %w", err)
	}

	srv := &http.Server{
		Addr:              c.listenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g run.Group

	// HTTP server.
	g.Add(
		func() error {
			logger.Infof("HTTP API listening on %s", c.listenAddress)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		},
		func(_ error) {
			ctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Errorf("Could not shutdown HTTP server: %s", err)
			}
		},
	)

	// Command context.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				<-ctx.Done()
				logger.Infof("Stopping HTTP API")
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}
