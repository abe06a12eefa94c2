package annotation

import "fmt"

// Validate checks the task snapshot invariants: unique label names, unique
// attribute names per label, resolvable label references, even point
// sequences, and visibility parity for keypoint sets.
func (t *Task) Validate() error {
	labels := map[string]bool{}
	for _, l := range t.Labels {
		if labels[l.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateLabel, l.Name)
		}
		labels[l.Name] = true

		attrs := map[string]bool{}
		for _, a := range l.Attributes {
			if attrs[a.Name] {
				return fmt.Errorf("%w: %q on label %q", ErrDuplicateAttribute, a.Name, l.Name)
			}
			attrs[a.Name] = true
		}
	}

	for i := range t.Images {
		img := &t.Images[i]
		if img.Width <= 0 || img.Height <= 0 {
			return fmt.Errorf("image %d: non-positive dimensions %dx%d", img.ID, img.Width, img.Height)
		}
		for j := range img.Annotations {
			if err := t.validateAnnotation(img, &img.Annotations[j]); err != nil {
				return fmt.Errorf("image %d: %w", img.ID, err)
			}
		}
	}
	return nil
}

func (t *Task) validateAnnotation(img *Image, a *Annotation) error {
	if a.Label != "" || a.Kind != KindCaption {
		if t.LabelIndex(a.Label) < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownLabel, a.Label)
		}
	}

	switch a.Kind {
	case KindPolygon, KindPolyline, KindPoints:
		if len(a.Points)%2 != 0 {
			return fmt.Errorf("%w: %s with %d coordinates", ErrPointParity, a.Kind, len(a.Points))
		}
	}

	if a.Kind == KindPoints && len(a.Visibility) > 0 && len(a.Visibility) != len(a.Points)/2 {
		return fmt.Errorf("%w: %d flags for %d points", ErrVisibilityLength, len(a.Visibility), len(a.Points)/2)
	}

	if a.Kind == KindMask && a.Mask != nil {
		if a.Mask.Width != img.Width || a.Mask.Height != img.Height {
			return fmt.Errorf("mask %dx%d not aligned to image %dx%d",
				a.Mask.Width, a.Mask.Height, img.Width, img.Height)
		}
	}
	return nil
}
