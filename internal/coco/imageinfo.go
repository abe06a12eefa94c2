package coco

import "github.com/rpggio/labelport/internal/domain/annotation"

// imageInfoConverter exports image metadata only, no annotation rows.
type imageInfoConverter struct {
	baseConverter
}

func (c *imageInfoConverter) saveAnnotations(img *annotation.Image) {}

func (c *imageInfoConverter) empty() bool {
	return len(c.doc.Images) == 0
}
