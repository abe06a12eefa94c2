package coco

import (
	"github.com/rpggio/labelport/internal/domain/annotation"
)

// instancesConverter exports box annotations with derived segmentation.
type instancesConverter struct {
	baseConverter
}

func (c *instancesConverter) saveCategories(task *annotation.Task) {
	c.baseConverter.saveCategories(task)
	c.labelCategories()
}

// saveAnnotations derives segmentation per box with a fixed tie-break:
// a co-grouped crowd mask wins, then a co-grouped polygon, then the box's
// own corner rectangle.
func (c *instancesConverter) saveAnnotations(img *annotation.Image) {
	for i := range img.Annotations {
		a := &img.Annotations[i]
		if a.Kind != annotation.KindBox {
			continue
		}

		isCrowd := a.IsCrowd()
		var segmentation any
		var area float64

		if a.Group != nil {
			if isCrowd {
				if partner := img.Grouped(*a.Group, annotation.KindMask); partner != nil && partner.Mask != nil {
					segmentation = RLESegmentation{
						Counts: partner.Mask.RLE(),
						Size:   [2]int{img.Height, img.Width},
					}
					area = float64(partner.Mask.Area())
				}
			} else {
				if partner := img.Grouped(*a.Group, annotation.KindPolygon); partner != nil {
					segmentation = [][]float64{partner.Points}
					area = annotation.PolygonArea(partner.Points)
				}
			}
		}
		if segmentation == nil {
			// No grouped partner: degenerate rectangle from the box corners.
			isCrowd = false
			segmentation = [][]float64{a.CornerPolygon()}
			area = (a.XBR - a.XTL) * (a.YBR - a.YTL)
		}

		x, y, w, h := a.BBox()
		c.doc.Annotations = append(c.doc.Annotations, AnnotationRecord{
			ID:           c.claimID(a),
			ImageID:      img.ID,
			CategoryID:   c.categoryID(a.Label),
			Segmentation: segmentation,
			Area:         floatPtr(area),
			BBox:         []float64{x, y, w, h},
			IsCrowd:      intPtr(boolToInt(isCrowd)),
			Score:        c.scoreOf(a),
		})
	}
}
