package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/slok/todochat/internal/clock"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

// StoreConfig is the configuration for the memory store.
type StoreConfig struct {
	Clock  clock.Clock
	Logger log.Logger
}

func (c *StoreConfig) defaults() error {
	if c.Clock == nil {
		c.Clock = clock.System
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Store is an in-memory implementation of the task and conversation repositories.
//
// Units of work are serialized: Begin blocks until the previous unit is committed
// or rolled back, and each unit works on its own copy of the data. Writes outside
// a unit also wait for the running unit, so they are never lost on commit.
// Using the store repositories while holding a unit on the same goroutine deadlocks.
type Store struct {
	txMu   sync.Mutex
	mu     sync.RWMutex
	data   *state
	clock  clock.Clock
	logger log.Logger
}

// NewStore creates a new memory store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Store{
		data:   newState(),
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}, nil
}

// Tasks returns the task repository working directly on the store.
func (s *Store) Tasks() storage.TaskRepository {
	return &taskRepository{view: s, clock: s.clock, logger: s.logger}
}

// Conversations returns the conversation repository working directly on the store.
func (s *Store) Conversations() storage.ConversationRepository {
	return &conversationRepository{view: s, clock: s.clock, logger: s.logger}
}

func (s *Store) read(f func(*state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f(s.data)
}

func (s *Store) write(f func(*state) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.data)
}

// Begin starts a new unit of work.
func (s *Store) Begin(ctx context.Context) (storage.UnitOfWork, error) {
	s.txMu.Lock()

	s.mu.RLock()
	data := s.data.clone()
	s.mu.RUnlock()

	u := &unitOfWork{
		store:      s,
		data:       data,
		savepoints: map[string]*state{},
	}
	u.tasks = &taskRepository{view: u, clock: s.clock, logger: s.logger}
	u.conversations = &conversationRepository{view: u, clock: s.clock, logger: s.logger}

	return u, nil
}

type unitOfWork struct {
	store         *Store
	mu            sync.Mutex
	data          *state
	savepoints    map[string]*state
	done          bool
	tasks         *taskRepository
	conversations *conversationRepository
}

func (u *unitOfWork) Tasks() storage.TaskRepository                 { return u.tasks }
func (u *unitOfWork) Conversations() storage.ConversationRepository { return u.conversations }

func (u *unitOfWork) read(f func(*state) error) error { return u.write(f) }

func (u *unitOfWork) write(f func(*state) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}
	return f(u.data)
}

func (u *unitOfWork) Savepoint(_ context.Context, name string) error {
	return u.write(func(st *state) error {
		u.savepoints[name] = st.clone()
		return nil
	})
}

func (u *unitOfWork) RollbackTo(_ context.Context, name string) error {
	return u.write(func(_ *state) error {
		sp, ok := u.savepoints[name]
		if !ok {
			return fmt.Errorf("savepoint %q: %w", name, errUnknownSavepoint)
		}
		u.data = sp.clone()
		return nil
	})
}

func (u *unitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}

	u.store.mu.Lock()
	u.store.data = u.data
	u.store.mu.Unlock()

	u.done = true
	u.store.txMu.Unlock()
	u.store.logger.Debugf("Unit of work committed")
	return nil
}

func (u *unitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}

	u.done = true
	u.store.txMu.Unlock()
	return nil
}

// view abstracts where the repositories read and write, the store itself or a unit of work.
type view interface {
	read(func(*state) error) error
	write(func(*state) error) error
}

var errUnknownSavepoint = fmt.Errorf("unknown savepoint")

type state struct {
	tasks map[string]model.Task
	// taskOrder has the task IDs in creation order.
	taskOrder     []string
	conversations map[string]model.Conversation
	turns         map[string][]model.Turn
}

func newState() *state {
	return &state{
		tasks:         map[string]model.Task{},
		conversations: map[string]model.Conversation{},
		turns:         map[string][]model.Turn{},
	}
}

func (s *state) clone() *state {
	turns := make(map[string][]model.Turn, len(s.turns))
	for k, v := range s.turns {
		turns[k] = slices.Clone(v)
	}

	return &state{
		tasks:         maps.Clone(s.tasks),
		taskOrder:     slices.Clone(s.taskOrder),
		conversations: maps.Clone(s.conversations),
		turns:         turns,
	}
}
