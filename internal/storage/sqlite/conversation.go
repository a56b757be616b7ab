package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/slok/todochat/internal/clock"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

type conversationRepository struct {
	db     dbtx
	clock  clock.Clock
	logger log.Logger
}

var _ storage.ConversationRepository = &conversationRepository{}

func (r *conversationRepository) GetOrCreateConversation(ctx context.Context, ownerID, conversationID string) (*model.Conversation, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner is required: %w", model.ErrNotValid)
	}

	if conversationID != "" {
		c, err := r.GetConversation(ctx, ownerID, conversationID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}

	now := r.clock.Now()
	c := model.Conversation{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO conversations (id, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.OwnerID, now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("could not insert conversation: %w", err)
	}

	r.logger.Debugf("Created conversation in repository: %s", c.ID)
	return &c, nil
}

func (r *conversationRepository) GetConversation(ctx context.Context, ownerID, conversationID string) (*model.Conversation, error) {
	query := `SELECT id, owner_id, created_at, updated_at FROM conversations WHERE id = ? AND owner_id = ?`

	c, err := scanConversation(r.db.QueryRowContext(ctx, query, conversationID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query conversation: %w", err)
	}

	return &c, nil
}

func (r *conversationRepository) ListConversations(ctx context.Context, ownerID string) ([]model.Conversation, error) {
	query := `
		SELECT id, owner_id, created_at, updated_at
		FROM conversations
		WHERE owner_id = ?
		ORDER BY updated_at DESC, rowid DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("could not query conversations: %w", err)
	}
	defer rows.Close()

	convs := []model.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		convs = append(convs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return convs, nil
}

func (r *conversationRepository) ListTurns(ctx context.Context, conversationID string) ([]model.Turn, error) {
	query := `
		SELECT id, conversation_id, owner_id, role, content, created_at
		FROM turns
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("could not query turns: %w", err)
	}
	defer rows.Close()

	turns := []model.Turn{}
	for rows.Next() {
		var t model.Turn
		var createdAt int64
		err := rows.Scan(&t.ID, &t.ConversationID, &t.OwnerID, &t.Role, &t.Content, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		t.CreatedAt = timeFromUnixNano(createdAt)
		turns = append(turns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return turns, nil
}

func (r *conversationRepository) AppendTurn(ctx context.Context, conversationID, ownerID string, role model.Role, content string) (*model.Turn, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	result, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ? AND owner_id = ?`,
		now.UnixNano(), conversationID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("could not update conversation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, model.ErrNotFound)
	}

	t := model.Turn{
		ID:             ulid.Make().String(),
		ConversationID: conversationID,
		OwnerID:        ownerID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}
	query := `
		INSERT INTO turns (id, conversation_id, owner_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, t.ID, t.ConversationID, t.OwnerID, t.Role, t.Content, now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("could not insert turn: %w", err)
	}

	r.logger.Debugf("Appended %s turn to conversation: %s", role, conversationID)
	return &t, nil
}

func scanConversation(s scanner) (model.Conversation, error) {
	var c model.Conversation
	var createdAt, updatedAt int64
	if err := s.Scan(&c.ID, &c.OwnerID, &createdAt, &updatedAt); err != nil {
		return model.Conversation{}, err
	}

	c.CreatedAt = timeFromUnixNano(createdAt)
	c.UpdatedAt = timeFromUnixNano(updatedAt)
	return c, nil
}
