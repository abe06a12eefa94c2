package export_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/labelport/internal/export"
	"github.com/stretchr/testify/require"
)

func TestTimerScheduler_RunsJobAfterDelay(t *testing.T) {
	scheduler := export.NewTimerScheduler()
	done := make(chan struct{})

	handle, err := scheduler.ScheduleAfter(5*time.Millisecond, func(ctx context.Context) {
		close(done)
	})
	require.NoError(t, err)
	require.NotEmpty(t, handle.ID())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}

func TestTimerScheduler_CancelStopsPendingJob(t *testing.T) {
	scheduler := export.NewTimerScheduler()
	ran := make(chan struct{}, 1)

	handle, err := scheduler.ScheduleAfter(time.Hour, func(ctx context.Context) {
		ran <- struct{}{}
	})
	require.NoError(t, err)
	require.True(t, handle.Cancel())

	select {
	case <-ran:
		t.Fatal("canceled job ran")
	case <-time.After(20 * time.Millisecond):
	}
}
