package coco

import "github.com/rpggio/labelport/internal/domain/annotation"

// labelsConverter exports whole-image labels.
type labelsConverter struct {
	baseConverter
}

func (c *labelsConverter) saveCategories(task *annotation.Task) {
	c.baseConverter.saveCategories(task)
	c.labelCategories()
}

func (c *labelsConverter) saveAnnotations(img *annotation.Image) {
	for i := range img.Annotations {
		a := &img.Annotations[i]
		if a.Kind != annotation.KindLabel {
			continue
		}
		c.doc.Annotations = append(c.doc.Annotations, AnnotationRecord{
			ID:         c.claimID(a),
			ImageID:    img.ID,
			CategoryID: c.categoryID(a.Label),
			Score:      c.scoreOf(a),
		})
	}
}
