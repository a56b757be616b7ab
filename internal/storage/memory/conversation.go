package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/slok/todochat/internal/clock"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

type conversationRepository struct {
	view   view
	clock  clock.Clock
	logger log.Logger
}

var _ storage.ConversationRepository = &conversationRepository{}

func (r *conversationRepository) GetOrCreateConversation(ctx context.Context, ownerID, conversationID string) (*model.Conversation, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner is required: %w", model.ErrNotValid)
	}

	var c model.Conversation
	created := false
	err := r.view.write(func(st *state) error {
		if existing, ok := st.conversations[conversationID]; ok && conversationID != "" && existing.OwnerID == ownerID {
			c = existing
			return nil
		}

		now := r.clock.Now()
		c = model.Conversation{
			ID:        ulid.Make().String(),
			OwnerID:   ownerID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.conversations[c.ID] = c
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		r.logger.Debugf("Created conversation in repository: %s", c.ID)
	}
	return &c, nil
}

func (r *conversationRepository) GetConversation(ctx context.Context, ownerID, conversationID string) (*model.Conversation, error) {
	var c model.Conversation
	err := r.view.read(func(st *state) error {
		existing, ok := st.conversations[conversationID]
		if !ok || existing.OwnerID != ownerID {
			return fmt.Errorf("conversation %s: %w", conversationID, model.ErrNotFound)
		}
		c = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *conversationRepository) ListConversations(ctx context.Context, ownerID string) ([]model.Conversation, error) {
	convs := []model.Conversation{}
	err := r.view.read(func(st *state) error {
		for _, c := range st.conversations {
			if c.OwnerID == ownerID {
				convs = append(convs, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].UpdatedAt.Equal(convs[j].UpdatedAt) {
			return convs[i].ID > convs[j].ID
		}
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})

	return convs, nil
}

func (r *conversationRepository) ListTurns(ctx context.Context, conversationID string) ([]model.Turn, error) {
	turns := []model.Turn{}
	err := r.view.read(func(st *state) error {
		turns = append(turns, st.turns[conversationID]...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return turns, nil
}

func (r *conversationRepository) AppendTurn(ctx context.Context, conversationID, ownerID string, role model.Role, content string) (*model.Turn, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	var t model.Turn
	err := r.view.write(func(st *state) error {
		c, ok := st.conversations[conversationID]
		if !ok || c.OwnerID != ownerID {
			return fmt.Errorf("conversation %s: %w", conversationID, model.ErrNotFound)
		}

		t = model.Turn{
			ID:             ulid.Make().String(),
			ConversationID: conversationID,
			OwnerID:        ownerID,
			Role:           role,
			Content:        content,
			CreatedAt:      r.clock.Now(),
		}
		st.turns[conversationID] = append(st.turns[conversationID], t)

		c.UpdatedAt = t.CreatedAt
		st.conversations[conversationID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debugf("Appended %s turn to conversation: %s", role, conversationID)
	return &t, nil
}
