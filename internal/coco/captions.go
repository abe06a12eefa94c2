package coco

import "github.com/rpggio/labelport/internal/domain/annotation"

// captionsConverter exports free-text captions. Captions carry no category;
// the id stays 0.
type captionsConverter struct {
	baseConverter
}

func (c *captionsConverter) saveAnnotations(img *annotation.Image) {
	for i := range img.Annotations {
		a := &img.Annotations[i]
		if a.Kind != annotation.KindCaption {
			continue
		}
		c.doc.Annotations = append(c.doc.Annotations, AnnotationRecord{
			ID:      c.claimID(a),
			ImageID: img.ID,
			Caption: a.Caption,
			Score:   c.scoreOf(a),
		})
	}
}
