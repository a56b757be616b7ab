package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

// ResolveSnapshotSize is the number of tasks, in creation order, numbered references can point to.
const ResolveSnapshotSize = 100

// Resolve returns the task identity a reference points to. A reference is either
// a task identity, returned unchanged without checking it exists, or a 1-based
// position in the owner's task list.
//
// The list is read on every call, numbers can point to different tasks after
// other mutations of the same turn.
func Resolve(ctx context.Context, tasks storage.TaskRepository, ownerID, ref string) (string, error) {
	if _, err := ulid.ParseStrict(ref); err == nil {
		return ref, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil || n < 1 {
		return "", fmt.Errorf("task reference %q: %w", ref, model.ErrNotFound)
	}

	snapshot, err := tasks.ListTasks(ctx, ownerID, storage.ListTasksOptions{Limit: ResolveSnapshotSize})
	if err != nil {
		return "", fmt.Errorf("could not list tasks: %w", err)
	}
	if n > len(snapshot) {
		return "", fmt.Errorf("task reference %q: %w", ref, model.ErrNotFound)
	}

	return snapshot[n-1].ID, nil
}
