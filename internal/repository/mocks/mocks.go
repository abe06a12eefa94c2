package mocks

import (
	"context"
	"time"

	"github.com/rpggio/labelport/internal/domain/annotation"
	"github.com/rpggio/labelport/internal/repository"
	"github.com/stretchr/testify/mock"
)

// TaskStore is a mock for repository.TaskStore.
type TaskStore struct {
	mock.Mock
}

func (m *TaskStore) GetTask(ctx context.Context, id int64) (*annotation.Task, error) {
	args := m.Called(ctx, id)
	if task, ok := args.Get(0).(*annotation.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskStore) SaveTask(ctx context.Context, task *annotation.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *TaskStore) TouchTask(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// JobScheduler is a mock for repository.JobScheduler.
type JobScheduler struct {
	mock.Mock
}

func (m *JobScheduler) ScheduleAfter(delay time.Duration, job func(context.Context)) (repository.JobHandle, error) {
	args := m.Called(delay, job)
	if handle, ok := args.Get(0).(repository.JobHandle); ok {
		return handle, args.Error(1)
	}
	return nil, args.Error(1)
}

// JobHandle is a mock for repository.JobHandle.
type JobHandle struct {
	mock.Mock
}

func (m *JobHandle) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *JobHandle) Cancel() bool {
	args := m.Called()
	return args.Bool(0)
}
