// Package jobs runs background maintenance for the catalog and the
// session store.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCommentReconcile recomputes movie comment counters from the
	// comments table.
	TaskCommentReconcile = "catalog:comment_reconcile"
	// TaskSessionSweep removes session keys left without an expiry.
	TaskSessionSweep = "session:sweep"
	// TaskChatTrim re-trims chat topics to their capacity.
	TaskChatTrim = "chat:trim"
)

// CommentReconcilePayload scopes a reconciliation run. A zero MovieID
// reconciles the whole catalog.
type CommentReconcilePayload struct {
	MovieID int64 `json:"movie_id"`
}

// NewCommentReconcileTask constructs a reconciliation task.
func NewCommentReconcileTask(payload CommentReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommentReconcile, data), nil
}

// NewSessionSweepTask constructs a session sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}

// NewChatTrimTask constructs a chat trim task.
func NewChatTrimTask() *asynq.Task {
	return asynq.NewTask(TaskChatTrim, nil)
}
