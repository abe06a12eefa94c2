package repository

import (
	"context"
	"time"

	"github.com/rpggio/labelport/internal/domain/annotation"
)

// TaskStore manages task snapshot persistence
type TaskStore interface {
	GetTask(ctx context.Context, id int64) (*annotation.Task, error)
	SaveTask(ctx context.Context, task *annotation.Task) error
	// TouchTask bumps the task's last-modified timestamp, invalidating any
	// cached export on the next request.
	TouchTask(ctx context.Context, id int64, at time.Time) error
}

// JobScheduler enqueues a callback to run once after a delay
type JobScheduler interface {
	ScheduleAfter(delay time.Duration, job func(context.Context)) (JobHandle, error)
}

// JobHandle identifies a scheduled job and allows best-effort cancellation
type JobHandle interface {
	ID() string
	// Cancel reports whether the job was stopped before it ran.
	Cancel() bool
}

// ImageCodec decodes stored image files
type ImageCodec interface {
	Decode(path string) (width, height int, pixels []byte, err error)
}
