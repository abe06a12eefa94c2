package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/labelport/internal/coco"
	"github.com/rpggio/labelport/internal/domain/annotation"
	"github.com/rpggio/labelport/internal/repository"
)

// ErrUnknownFormat indicates an export request for an unregistered format.
var ErrUnknownFormat = errors.New("unknown export format")

// DefaultTTL is how long a published archive stays cached before the
// deferred cleanup job removes it.
const DefaultTTL = 10 * time.Hour

// Cache builds export archives per (task, format) key, serves fresh ones
// from disk, and schedules their eventual removal.
type Cache struct {
	dir       string
	ttl       time.Duration
	tasks     repository.TaskStore
	scheduler repository.JobScheduler
	// formats is the startup-time registry of format name to exporter.
	formats map[string]*coco.Exporter
	logger  *slog.Logger
}

// NewCache creates an export cache rooted at dir. A zero ttl falls back to
// DefaultTTL; a nil scheduler disables deferred cleanup.
func NewCache(
	dir string,
	ttl time.Duration,
	tasks repository.TaskStore,
	scheduler repository.JobScheduler,
	formats map[string]*coco.Exporter,
	logger *slog.Logger,
) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		dir:       dir,
		ttl:       ttl,
		tasks:     tasks,
		scheduler: scheduler,
		formats:   formats,
		logger:    logger,
	}
}

// Export returns the path of the archive for (taskID, format), rebuilding it
// only when the cached copy predates the task's last modification.
//
// Concurrent calls for the same key are not serialized here: both may
// rebuild, and atomic publish keeps whichever finishes last. Callers needing
// single-flight must lock around the key themselves.
func (c *Cache) Export(ctx context.Context, taskID int64, format string) (string, error) {
	exporter, ok := c.formats[format]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	task, err := c.tasks.GetTask(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("export task %d format %s: load: %w", taskID, format, err)
	}

	taskDir := filepath.Join(c.dir, fmt.Sprintf("task_%d", taskID))
	archivePath := filepath.Join(taskDir, format+".zip")

	if info, err := os.Stat(archivePath); err == nil && !info.ModTime().Before(task.UpdatedAt) {
		c.logger.Debug("serving cached export",
			"task", taskID, "format", format, "path", archivePath)
		return archivePath, nil
	}

	if err := c.build(task, exporter, taskDir, archivePath, format); err != nil {
		return "", err
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return "", fmt.Errorf("export task %d format %s: publish: %w", taskID, format, err)
	}
	c.scheduleCleanup(taskID, format, archivePath, info.ModTime())

	c.logger.Info("task exported",
		"task", taskID, "format", format, "path", archivePath, "ttl", c.ttl)
	return archivePath, nil
}

// build runs the codec in a scoped working directory and publishes the
// archive atomically, so a failed build never leaves a partial archive at
// the canonical path.
func (c *Cache) build(
	task *annotation.Task,
	exporter *coco.Exporter,
	taskDir, archivePath, format string,
) error {
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return fmt.Errorf("export task %d format %s: prepare: %w", task.ID, format, err)
	}
	workDir, err := os.MkdirTemp(taskDir, format+"_")
	if err != nil {
		return fmt.Errorf("export task %d format %s: prepare: %w", task.ID, format, err)
	}
	defer os.RemoveAll(workDir)

	if err := exporter.Export(task, workDir); err != nil {
		return fmt.Errorf("export task %d format %s: build: %w", task.ID, format, err)
	}

	staged := archivePath + ".staged-" + uuid.NewString()
	if err := makeZipArchive(workDir, staged); err != nil {
		os.Remove(staged)
		return fmt.Errorf("export task %d format %s: package: %w", task.ID, format, err)
	}
	if err := os.Rename(staged, archivePath); err != nil {
		os.Remove(staged)
		return fmt.Errorf("export task %d format %s: publish: %w", task.ID, format, err)
	}
	return nil
}

func (c *Cache) scheduleCleanup(taskID int64, format, archivePath string, stamp time.Time) {
	if c.scheduler == nil {
		return
	}
	handle, err := c.scheduler.ScheduleAfter(c.ttl, func(ctx context.Context) {
		c.clearArchive(taskID, archivePath, stamp)
	})
	if err != nil {
		// The archive stays on disk until a later export reschedules it.
		c.logger.Warn("failed to schedule cache cleanup",
			"task", taskID, "format", format, "error", err)
		return
	}
	c.logger.Info("cache cleanup scheduled",
		"task", taskID, "format", format, "job", handle.ID(), "in", c.ttl)
}

// clearArchive deletes the archive only when its publish stamp still matches
// the one captured at schedule time. A newer export changes the stamp and
// turns this into a no-op, which makes a late-firing job safe.
func (c *Cache) clearArchive(taskID int64, path string, stamp time.Time) {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("cache cleanup stat failed", "task", taskID, "path", path, "error", err)
		}
		return
	}
	if !info.ModTime().Equal(stamp) {
		c.logger.Debug("cache cleanup superseded", "task", taskID, "path", path)
		return
	}
	if err := os.Remove(path); err != nil {
		c.logger.Warn("cache cleanup remove failed", "task", taskID, "path", path, "error", err)
		return
	}
	c.logger.Info("export cache file removed", "task", taskID, "path", path)
}
