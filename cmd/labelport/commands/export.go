package commands

import (
	"fmt"
	"time"

	"github.com/rpggio/labelport/internal/coco"
	"github.com/rpggio/labelport/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportTaskID int64
	exportFormat string
	exportParts  []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a task snapshot as an interchange archive",
	Long: `Export a task snapshot as an interchange archive and print the
archive path.

Archives are cached per (task, format) under the cache directory. A cached
archive is served as-is while it is at least as new as the task's
last-modified time; an outdated archive is rebuilt and republished
atomically.

Parts (--parts, repeatable or comma-separated):
  image_info       - image metadata only, written even without annotations
  instances        - boxes, polygons, polylines and masks
  person_keypoints - keypoint groups with synthesized boxes
  captions         - free-text image captions
  labels           - whole-image classification tags

Examples:
  # Export everything
  labelport export --task 42

  # Only instance shapes and captions
  labelport export --task 42 --parts instances,captions`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().Int64Var(&exportTaskID, "task", 0, "Task id to export (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "coco", "Export format")
	exportCmd.Flags().StringSliceVar(&exportParts, "parts", nil, "Annotation parts to include (default all)")
	exportCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	parts, err := parseParts(exportParts)
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	var opts []coco.ExporterOption
	if cfg.Images.Dir != "" {
		opts = append(opts, coco.WithSourceImages(cfg.Images.Dir))
	}
	formats := map[string]*coco.Exporter{
		"coco": coco.NewExporter(parts, logger, opts...),
	}

	cache := export.NewCache(
		cfg.Cache.Dir,
		time.Duration(cfg.Cache.TTLHours)*time.Hour,
		store,
		export.NewTimerScheduler(),
		formats,
		logger,
	)

	path, err := cache.Export(cmd.Context(), exportTaskID, exportFormat)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func parseParts(names []string) ([]coco.Part, error) {
	if len(names) == 0 {
		return nil, nil
	}
	known := make(map[coco.Part]bool, len(coco.AllParts()))
	for _, part := range coco.AllParts() {
		known[part] = true
	}
	parts := make([]coco.Part, 0, len(names))
	for _, name := range names {
		part := coco.Part(name)
		if !known[part] {
			return nil, fmt.Errorf("%w: %q", coco.ErrUnknownPart, name)
		}
		parts = append(parts, part)
	}
	return parts, nil
}
