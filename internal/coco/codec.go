package coco

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/labelport/internal/domain/annotation"
	"github.com/rpggio/labelport/internal/repository"
)

// Part identifies one annotation category of the export, mapped to one JSON
// file per image subset.
type Part string

const (
	PartImageInfo Part = "image_info"
	PartInstances Part = "instances"
	PartKeypoints Part = "person_keypoints"
	PartCaptions  Part = "captions"
	PartLabels    Part = "labels"
)

// AllParts lists every part in output order.
func AllParts() []Part {
	return []Part{PartImageInfo, PartInstances, PartKeypoints, PartCaptions, PartLabels}
}

// ErrUnknownPart indicates an export request for a part outside the
// converter table.
var ErrUnknownPart = errors.New("unknown export part")

const (
	imagesDir      = "images"
	annotationsDir = "annotations"
	imageExt       = ".jpg"
)

// converter accumulates one part's document over a task snapshot. Converters
// are partial: each handles only its own annotation kinds and silently skips
// the rest.
type converter interface {
	saveCategories(task *annotation.Task)
	saveImageInfo(img *annotation.Image, fileName string)
	saveAnnotations(img *annotation.Image)
	assignIDs()
	empty() bool
	document() *Document
}

// newConverter is the startup-time table mapping each part to its converter.
func newConverter(part Part) (converter, error) {
	switch part {
	case PartImageInfo:
		return &imageInfoConverter{baseConverter: newBase()}, nil
	case PartInstances:
		return &instancesConverter{baseConverter: newBase()}, nil
	case PartKeypoints:
		return &keypointsConverter{baseConverter: newBase()}, nil
	case PartCaptions:
		return &captionsConverter{baseConverter: newBase()}, nil
	case PartLabels:
		return &labelsConverter{baseConverter: newBase()}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPart, part)
}

// baseConverter carries the shared document state and id bookkeeping.
type baseConverter struct {
	doc *Document
	// maxSeenID tracks the largest stable source id so assigned ids never
	// collide with carried-over ones.
	maxSeenID int
	task      *annotation.Task
}

func newBase() baseConverter {
	return baseConverter{doc: newDocument(), maxSeenID: 0}
}

func (b *baseConverter) saveCategories(task *annotation.Task) {
	b.task = task
}

func (b *baseConverter) saveImageInfo(img *annotation.Image, fileName string) {
	b.doc.Images = append(b.doc.Images, ImageRecord{
		ID:       img.ID,
		Width:    img.Width,
		Height:   img.Height,
		FileName: fileName,
	})
}

func (b *baseConverter) empty() bool         { return len(b.doc.Annotations) == 0 }
func (b *baseConverter) document() *Document { return b.doc }

// claimID returns the annotation's stable source id (0 when unassigned) and
// records the maximum seen.
func (b *baseConverter) claimID(a *annotation.Annotation) int {
	if a.ID > b.maxSeenID {
		b.maxSeenID = a.ID
	}
	return a.ID
}

// assignIDs fills unassigned record ids monotonically, starting past the
// maximum stable id so ids are never reused.
func (b *baseConverter) assignIDs() {
	next := b.maxSeenID + 1
	for i := range b.doc.Annotations {
		if b.doc.Annotations[i].ID == 0 {
			b.doc.Annotations[i].ID = next
			next++
		}
	}
}

func (b *baseConverter) categoryID(label string) int {
	return b.task.LabelIndex(label) + 1
}

func (b *baseConverter) scoreOf(a *annotation.Annotation) *float64 {
	if score, ok := a.Score(); ok {
		return floatPtr(score)
	}
	return nil
}

// labelCategories appends one plain category per task label, 1-indexed by
// label position.
func (b *baseConverter) labelCategories() {
	for idx, label := range b.task.Labels {
		b.doc.Categories = append(b.doc.Categories, Category{
			ID:   1 + idx,
			Name: label.Name,
		})
	}
}

// Exporter runs every configured part over a task snapshot and writes the
// interchange directory tree.
type Exporter struct {
	parts []Part
	// imagesDir optionally points at the task's source image files; when set
	// they are copied into the export under images/<id>.jpg.
	imagesDir string
	// codec optionally backfills missing image dimensions from pixel data.
	codec  repository.ImageCodec
	logger *slog.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithSourceImages copies image files from dir into the export tree.
func WithSourceImages(dir string) ExporterOption {
	return func(e *Exporter) { e.imagesDir = dir }
}

// WithImageCodec backfills missing image dimensions through codec.
func WithImageCodec(codec repository.ImageCodec) ExporterOption {
	return func(e *Exporter) { e.codec = codec }
}

// NewExporter builds an exporter for the given parts; nil parts means all.
func NewExporter(parts []Part, logger *slog.Logger, opts ...ExporterOption) *Exporter {
	if len(parts) == 0 {
		parts = AllParts()
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Exporter{parts: parts, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes images/ and annotations/ under dir, one annotations JSON
// document per non-empty (part, subset) pair.
func (e *Exporter) Export(task *annotation.Task, dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, imagesDir), 0o755); err != nil {
		return fmt.Errorf("create export dirs: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, annotationsDir), 0o755); err != nil {
		return fmt.Errorf("create export dirs: %w", err)
	}

	for _, subset := range task.Subsets() {
		converters := make(map[Part]converter, len(e.parts))
		for _, part := range e.parts {
			conv, err := newConverter(part)
			if err != nil {
				return err
			}
			conv.saveCategories(task)
			converters[part] = conv
		}

		for _, img := range task.SubsetImages(subset) {
			fileName := fmt.Sprintf("%d%s", img.ID, imageExt)
			if err := e.prepareImage(task, img, dir, fileName); err != nil {
				return err
			}
			for _, part := range e.parts {
				converters[part].saveImageInfo(img, fileName)
				converters[part].saveAnnotations(img)
			}
		}

		for _, part := range e.parts {
			conv := converters[part]
			if conv.empty() {
				continue
			}
			conv.assignIDs()
			name := fmt.Sprintf("%s_%s.json", part, subset)
			if err := writeDocument(filepath.Join(dir, annotationsDir, name), conv.document()); err != nil {
				return err
			}
			e.logger.Debug("wrote annotations document",
				"part", string(part), "subset", subset,
				"annotations", len(conv.document().Annotations))
		}
	}
	return nil
}

func (e *Exporter) prepareImage(task *annotation.Task, img *annotation.Image, dir, fileName string) error {
	if (img.Width <= 0 || img.Height <= 0) && e.codec != nil {
		w, h, _, err := e.codec.Decode(e.sourcePath(img))
		if err != nil {
			return fmt.Errorf("decode image %q: %w", img.Name, err)
		}
		img.Width, img.Height = w, h
	}
	if e.imagesDir == "" {
		return nil
	}
	return copyFile(e.sourcePath(img), filepath.Join(dir, imagesDir, fileName))
}

func (e *Exporter) sourcePath(img *annotation.Image) string {
	return filepath.Join(e.imagesDir, img.Name)
}

func writeDocument(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	return out.Close()
}
