package export

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/labelport/internal/repository"
)

// TimerScheduler is a process-local JobScheduler backed by timers. It is the
// default substrate when no external job system is wired in; jobs do not
// survive a restart.
type TimerScheduler struct{}

// NewTimerScheduler creates a timer-backed scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// ScheduleAfter runs job once after delay on its own goroutine.
func (s *TimerScheduler) ScheduleAfter(delay time.Duration, job func(context.Context)) (repository.JobHandle, error) {
	handle := &timerHandle{id: uuid.NewString()}
	handle.timer = time.AfterFunc(delay, func() {
		job(context.Background())
	})
	return handle, nil
}

type timerHandle struct {
	id    string
	timer *time.Timer
}

func (h *timerHandle) ID() string { return h.id }

// Cancel stops the timer; it reports false when the job already ran.
func (h *timerHandle) Cancel() bool { return h.timer.Stop() }
