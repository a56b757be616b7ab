package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// TaskTitleMaxLength is the maximum number of characters of a task title.
	TaskTitleMaxLength = 255
	// TaskDescriptionMaxLength is the maximum number of characters of a task description.
	TaskDescriptionMaxLength = 10000
)

// Task is a single item of an owner's todo list.
type Task struct {
	ID      string
	OwnerID string
	Title   string
	// Description is empty when the task has none.
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateTaskTitle checks a task title.
func ValidateTaskTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required: %w", ErrNotValid)
	}
	if utf8.RuneCountInString(title) > TaskTitleMaxLength {
		return fmt.Errorf("title can't be longer than %d characters: %w", TaskTitleMaxLength, ErrNotValid)
	}
	return nil
}

// ValidateTaskDescription checks a task description.
func ValidateTaskDescription(description string) error {
	if utf8.RuneCountInString(description) > TaskDescriptionMaxLength {
		return fmt.Errorf("description can't be longer than %d characters: %w", TaskDescriptionMaxLength, ErrNotValid)
	}
	return nil
}

// TaskUpdate has the task fields that can be modified, nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
}

// Empty returns true when the update doesn't change anything.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil
}

// Validate validates the update.
func (u TaskUpdate) Validate() error {
	if u.Empty() {
		return fmt.Errorf("nothing to update, a title or a description is required: %w", ErrNotValid)
	}
	if u.Title != nil {
		if err := ValidateTaskTitle(*u.Title); err != nil {
			return err
		}
	}
	if u.Description != nil {
		if err := ValidateTaskDescription(*u.Description); err != nil {
			return err
		}
	}
	return nil
}
