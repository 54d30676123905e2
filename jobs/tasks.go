// Package jobs holds the asynq task definitions and the worker runtime.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskImageCleanup removes a hosted image whose item was never
	// persisted (the create lost the name race after the upload).
	TaskImageCleanup = "image:cleanup"
)

// ImageCleanupPayload names the hosted file to remove.
type ImageCleanupPayload struct {
	URL string `json:"url"`
}

// NewImageCleanupTask constructs an Asynq task.
func NewImageCleanupTask(payload ImageCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImageCleanup, data, asynq.Queue(QueueDefault)), nil
}

// Enqueuer hands cleanup tasks to the queue. Satisfies the item
// directory's CleanupEnqueuer dependency.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer constructs an Enqueuer over an Asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueImageCleanup schedules removal of an orphaned hosted image.
func (e *Enqueuer) EnqueueImageCleanup(ctx context.Context, imageURL string) error {
	task, err := NewImageCleanupTask(ImageCleanupPayload{URL: imageURL})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	return err
}
