package coco

import (
	"sort"

	"github.com/rpggio/labelport/internal/domain/annotation"
)

// keypointsConverter exports points annotations as flattened keypoint
// triples.
type keypointsConverter struct {
	baseConverter
}

func (c *keypointsConverter) saveCategories(task *annotation.Task) {
	c.baseConverter.saveCategories(task)

	indexes := make([]int, 0, len(task.Keypoints))
	for idx := range task.Keypoints {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	for _, idx := range indexes {
		if idx < 0 || idx >= len(task.Labels) {
			continue
		}
		info := task.Keypoints[idx]
		c.doc.Categories = append(c.doc.Categories, Category{
			ID:        1 + idx,
			Name:      task.Labels[idx].Name,
			Keypoints: info.Names,
			Skeleton:  info.Skeleton,
		})
	}
}

func (c *keypointsConverter) saveAnnotations(img *annotation.Image) {
	for i := range img.Annotations {
		a := &img.Annotations[i]
		if a.Kind != annotation.KindPoints {
			continue
		}

		keypoints := make([]float64, 0, len(a.Points)/2*3)
		numVisible := 0
		for p := 0; p+1 < len(a.Points); p += 2 {
			visibility := a.VisibilityAt(p / 2)
			keypoints = append(keypoints, a.Points[p], a.Points[p+1], float64(visibility))
			if visibility == annotation.VisibilityVisible {
				numVisible++
			}
		}

		// Prefer a co-grouped box of the same label; otherwise synthesize a
		// bounding box from the point extrema.
		x, y, w, h := a.BBox()
		if a.Group != nil {
			if box := groupedBox(img, *a.Group, a.Label); box != nil {
				x, y, w, h = box.BBox()
			}
		}

		c.doc.Annotations = append(c.doc.Annotations, AnnotationRecord{
			ID:           c.claimID(a),
			ImageID:      img.ID,
			CategoryID:   c.categoryID(a.Label),
			Segmentation: [][]float64{annotation.RectPolygon(x, y, w, h)},
			Area:         floatPtr(w * h),
			BBox:         []float64{x, y, w, h},
			IsCrowd:      intPtr(0),
			Keypoints:    keypoints,
			NumKeypoints: intPtr(numVisible),
			Score:        c.scoreOf(a),
		})
	}
}

func groupedBox(img *annotation.Image, group int, label string) *annotation.Annotation {
	for i := range img.Annotations {
		a := &img.Annotations[i]
		if a.Kind == annotation.KindBox && a.Label == label &&
			a.Group != nil && *a.Group == group {
			return a
		}
	}
	return nil
}
