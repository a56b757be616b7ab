package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/todochat/internal/clock"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/storage"
	"github.com/slok/todochat/internal/storage/sqlite/migrations"
)

// StoreConfig is the configuration for the SQLite store.
type StoreConfig struct {
	DBPath string
	// SkipMigrations doesn't apply the schema migrations on creation.
	SkipMigrations bool
	Clock          clock.Clock
	Logger         log.Logger
}

func (c *StoreConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Clock == nil {
		c.Clock = clock.System
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Store is a SQLite implementation of the task and conversation repositories.
//
// The store uses a single connection, so units of work are serialized and the
// store repositories wait for the running unit to finish.
type Store struct {
	db     *sql.DB
	clock  clock.Clock
	logger log.Logger
}

// NewStore opens (and migrates) the SQLite database.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if !cfg.SkipMigrations {
		migrator, err := migrations.NewMigrator(db, cfg.Logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("could not create migrator: %w", err)
		}
		if err := migrator.Up(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("could not run migrations: %w", err)
		}
	}

	cfg.Logger.Debugf("SQLite store initialized at %s", cfg.DBPath)

	return &Store{db: db, clock: cfg.Clock, logger: cfg.Logger}, nil
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Tasks returns the task repository working outside any unit of work.
func (s *Store) Tasks() storage.TaskRepository {
	return &taskRepository{db: s.db, clock: s.clock, logger: s.logger}
}

// Conversations returns the conversation repository working outside any unit of work.
func (s *Store) Conversations() storage.ConversationRepository {
	return &conversationRepository{db: s.db, clock: s.clock, logger: s.logger}
}

// Begin starts a new unit of work backed by a database transaction.
func (s *Store) Begin(ctx context.Context) (storage.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}

	return &unitOfWork{
		tx:            tx,
		logger:        s.logger,
		tasks:         &taskRepository{db: tx, clock: s.clock, logger: s.logger},
		conversations: &conversationRepository{db: tx, clock: s.clock, logger: s.logger},
	}, nil
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var savepointNameRegexp = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type unitOfWork struct {
	tx            *sql.Tx
	logger        log.Logger
	tasks         *taskRepository
	conversations *conversationRepository
}

func (u *unitOfWork) Tasks() storage.TaskRepository                 { return u.tasks }
func (u *unitOfWork) Conversations() storage.ConversationRepository { return u.conversations }

func (u *unitOfWork) Savepoint(ctx context.Context, name string) error {
	if !savepointNameRegexp.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	if _, err := u.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("could not create savepoint: %w", err)
	}
	return nil
}

func (u *unitOfWork) RollbackTo(ctx context.Context, name string) error {
	if !savepointNameRegexp.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	if _, err := u.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return fmt.Errorf("could not rollback to savepoint: %w", err)
	}
	return nil
}

func (u *unitOfWork) Commit() error {
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	u.logger.Debugf("Unit of work committed")
	return nil
}

func (u *unitOfWork) Rollback() error {
	err := u.tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("could not rollback transaction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func timeFromUnixNano(n int64) time.Time { return time.Unix(0, n).UTC() }
