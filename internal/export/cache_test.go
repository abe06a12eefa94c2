package export_test

import (
	"archive/zip"
	"context"
	"os"
	"testing"
	"time"

	"github.com/rpggio/labelport/internal/coco"
	"github.com/rpggio/labelport/internal/domain/annotation"
	"github.com/rpggio/labelport/internal/export"
	"github.com/rpggio/labelport/internal/repository"
	"github.com/rpggio/labelport/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cacheTask(updatedAt time.Time) *annotation.Task {
	return &annotation.Task{
		ID:        1,
		Name:      "t",
		Labels:    []annotation.Label{{Name: "cat"}},
		UpdatedAt: updatedAt,
		Images: []annotation.Image{{
			ID: 1, Name: "a.jpg", Width: 10, Height: 10,
			Annotations: []annotation.Annotation{
				{Kind: annotation.KindBox, Label: "cat", XTL: 0, YTL: 0, XBR: 2, YBR: 2},
			},
		}},
	}
}

func cocoFormats() map[string]*coco.Exporter {
	return map[string]*coco.Exporter{
		"coco": coco.NewExporter(nil, nil),
	}
}

// capturingScheduler records scheduled jobs so tests can fire them manually.
func capturingScheduler(t *testing.T, jobs *[]func(context.Context)) *mocks.JobScheduler {
	t.Helper()
	handle := &mocks.JobHandle{}
	handle.On("ID").Return("job-1")

	scheduler := &mocks.JobScheduler{}
	scheduler.On("ScheduleAfter", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*jobs = append(*jobs, args.Get(1).(func(context.Context)))
		}).
		Return(handle, nil)
	return scheduler
}

func TestCache_Export_BuildsArchive(t *testing.T) {
	ctx := context.Background()
	store := &mocks.TaskStore{}
	store.On("GetTask", mock.Anything, int64(1)).Return(cacheTask(time.Now().Add(-time.Hour)), nil)

	var jobs []func(context.Context)
	cache := export.NewCache(t.TempDir(), 0, store, capturingScheduler(t, &jobs), cocoFormats(), nil)

	path, err := cache.Export(ctx, 1, "coco")
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Len(t, jobs, 1)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	require.True(t, names["annotations/instances_default.json"])
	require.True(t, names["annotations/image_info_default.json"])
	require.True(t, names["images/"])
}

func TestCache_Export_IdempotentWhileFresh(t *testing.T) {
	ctx := context.Background()
	store := &mocks.TaskStore{}
	store.On("GetTask", mock.Anything, int64(1)).Return(cacheTask(time.Now().Add(-time.Hour)), nil)

	var jobs []func(context.Context)
	cache := export.NewCache(t.TempDir(), 0, store, capturingScheduler(t, &jobs), cocoFormats(), nil)

	first, err := cache.Export(ctx, 1, "coco")
	require.NoError(t, err)
	firstInfo, err := os.Stat(first)
	require.NoError(t, err)

	second, err := cache.Export(ctx, 1, "coco")
	require.NoError(t, err)
	require.Equal(t, first, second)

	secondInfo, err := os.Stat(second)
	require.NoError(t, err)
	require.True(t, firstInfo.ModTime().Equal(secondInfo.ModTime()), "fresh archive must not be rebuilt")
	require.Len(t, jobs, 1, "no second cleanup scheduled for a cache hit")
}

func TestCache_Export_RebuildsWhenTaskNewer(t *testing.T) {
	ctx := context.Background()
	store := &mocks.TaskStore{}
	store.On("GetTask", mock.Anything, int64(1)).Return(cacheTask(time.Now().Add(-time.Hour)), nil).Once()

	var jobs []func(context.Context)
	cache := export.NewCache(t.TempDir(), 0, store, capturingScheduler(t, &jobs), cocoFormats(), nil)

	path, err := cache.Export(ctx, 1, "coco")
	require.NoError(t, err)

	// Task modified after the build.
	store.On("GetTask", mock.Anything, int64(1)).Return(cacheTask(time.Now().Add(time.Hour)), nil)

	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))

	again, err := cache.Export(ctx, 1, "coco")
	require.NoError(t, err)
	require.Equal(t, path, again)

	info, err := os.Stat(again)
	require.NoError(t, err)
	require.True(t, info.ModTime().After(stale), "stale archive must be rebuilt")
	require.Len(t, jobs, 2)
}

func TestCache_CleanupRemovesMatchingArchive(t *testing.T) {
	ctx := context.Background()
	store := &mocks.TaskStore{}
	store.On("GetTask", mock.Anything, int64(1)).Return(cacheTask(time.Now().Add(-time.Hour)), nil)

	var jobs []func(context.Context)
	cache := export.NewCache(t.TempDir(), 0, store, capturingScheduler(t, &jobs), cocoFormats(), nil)

	path, err := cache.Export(ctx, 1, "coco")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	jobs[0](ctx)
	require.NoFileExists(t, path)
}

func TestCache_CleanupSkipsSupersededArchive(t *testing.T) {
	ctx := context.Background()
	store := &mocks.TaskStore{}
	store.On("GetTask", mock.Anything, int64(1)).Return(cacheTask(time.Now().Add(-time.Hour)), nil)

	var jobs []func(context.Context)
	cache := export.NewCache(t.TempDir(), 0, store, capturingScheduler(t, &jobs), cocoFormats(), nil)

	path, err := cache.Export(ctx, 1, "coco")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	// A replacement archive carries a different publish stamp.
	replaced := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, replaced, replaced))

	jobs[0](ctx)
	require.FileExists(t, path, "cleanup must not delete a superseded archive")
}

func TestCache_Export_UnknownFormat(t *testing.T) {
	store := &mocks.TaskStore{}
	cache := export.NewCache(t.TempDir(), 0, store, nil, cocoFormats(), nil)

	_, err := cache.Export(context.Background(), 1, "voc")
	require.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestCache_Export_TaskNotFound(t *testing.T) {
	store := &mocks.TaskStore{}
	store.On("GetTask", mock.Anything, int64(9)).Return(nil, repository.ErrNotFound)

	cache := export.NewCache(t.TempDir(), 0, store, nil, cocoFormats(), nil)
	_, err := cache.Export(context.Background(), 9, "coco")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
