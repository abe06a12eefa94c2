package annotation

import (
	"fmt"
	"strconv"
	"time"
)

// AttributeInput enumerates the input widgets an attribute can be edited with.
type AttributeInput string

const (
	InputCheckbox AttributeInput = "checkbox"
	InputText     AttributeInput = "text"
	InputRadio    AttributeInput = "radio"
	InputNumber   AttributeInput = "number"
	InputSelect   AttributeInput = "select"
)

// ParseAttributeInput resolves an input type by name.
func ParseAttributeInput(name string) (AttributeInput, error) {
	switch AttributeInput(name) {
	case InputCheckbox, InputText, InputRadio, InputNumber, InputSelect:
		return AttributeInput(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInput, name)
}

// Attribute describes one declared attribute of a label. Immutable once built.
type Attribute struct {
	Name    string
	Input   AttributeInput
	Values  []string
	Default string
}

// NewAttribute builds an attribute. An empty default falls back to the first
// allowed value; a non-empty default must be one of the allowed values.
func NewAttribute(name string, input AttributeInput, values []string, defaultValue string) (Attribute, error) {
	if defaultValue == "" && len(values) > 0 {
		defaultValue = values[0]
	}
	if defaultValue != "" && len(values) > 0 {
		found := false
		for _, v := range values {
			if v == defaultValue {
				found = true
				break
			}
		}
		if !found {
			return Attribute{}, fmt.Errorf("attribute %q: default %q not in allowed values", name, defaultValue)
		}
	}
	return Attribute{Name: name, Input: input, Values: values, Default: defaultValue}, nil
}

// Label names a class of annotations. Attribute order defines column order
// in exports.
type Label struct {
	Name       string
	Attributes []Attribute
}

// Attribute returns the declared attribute with the given name.
func (l Label) Attribute(name string) (Attribute, bool) {
	for _, a := range l.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Kind tags the geometry variant of an annotation.
type Kind string

const (
	KindBox      Kind = "box"
	KindPolygon  Kind = "polygon"
	KindPolyline Kind = "polyline"
	KindPoints   Kind = "points"
	KindMask     Kind = "mask"
	KindLabel    Kind = "label"
	KindCaption  Kind = "caption"
)

// Visibility of a single keypoint.
type Visibility int

const (
	VisibilityAbsent  Visibility = 0
	VisibilityHidden  Visibility = 1
	VisibilityVisible Visibility = 2
)

// Annotation is the tagged union over geometry kinds. Box kinds use the
// corner fields, point kinds use Points as flat x,y pairs, mask kinds use
// Mask, captions use Caption.
type Annotation struct {
	// ID is the stable source id, 0 when unassigned.
	ID       int
	Kind     Kind
	Label    string
	Occluded bool
	ZOrder   *int
	Group    *int
	// Attributes holds per-annotation attribute values as opaque strings.
	Attributes map[string]string

	XTL, YTL, XBR, YBR float64
	Points             []float64
	Visibility         []Visibility
	Mask               *Mask
	Caption            string
}

// BBox returns the bounding rectangle as (x, y, width, height): the corner
// fields for boxes, the point extrema for the point kinds.
func (a *Annotation) BBox() (x, y, w, h float64) {
	if a.Kind == KindBox {
		return a.XTL, a.YTL, a.XBR - a.XTL, a.YBR - a.YTL
	}
	return PointsBounds(a.Points)
}

// CornerPolygon returns the box corners as a closed flat polygon.
func (a *Annotation) CornerPolygon() []float64 {
	return []float64{
		a.XTL, a.YTL,
		a.XBR, a.YTL,
		a.XBR, a.YBR,
		a.XTL, a.YBR,
	}
}

// Score reports the detection score attribute, if one is attached.
func (a *Annotation) Score() (float64, bool) {
	raw, ok := a.Attributes["score"]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsCrowd reports whether the annotation is flagged as a crowd instance.
func (a *Annotation) IsCrowd() bool {
	switch a.Attributes["is_crowd"] {
	case "true", "1":
		return true
	}
	return false
}

// VisibilityAt returns the visibility of the i-th point. Points without an
// explicit visibility sequence are fully visible.
func (a *Annotation) VisibilityAt(i int) Visibility {
	if i < len(a.Visibility) {
		return a.Visibility[i]
	}
	return VisibilityVisible
}

// Image is one annotated frame of a task.
type Image struct {
	ID     int
	Name   string
	Subset string
	Width  int
	Height int
	// Flipped marks a horizontally mirrored source image.
	Flipped     bool
	Annotations []Annotation
}

// Grouped returns the first annotation of the given kind sharing the group id.
func (img *Image) Grouped(group int, kind Kind) *Annotation {
	for i := range img.Annotations {
		a := &img.Annotations[i]
		if a.Kind == kind && a.Group != nil && *a.Group == group {
			return a
		}
	}
	return nil
}

// TaskMode distinguishes frame-wise annotation from track interpolation.
type TaskMode string

const (
	ModeAnnotation    TaskMode = "annotation"
	ModeInterpolation TaskMode = "interpolation"
)

// KeypointInfo is the points-category side table entry for one label: ordered
// keypoint names and the skeleton as pairs of keypoint indices.
type KeypointInfo struct {
	Names    []string
	Skeleton [][2]int
}

// DefaultSubset names the subset of images that declare none.
const DefaultSubset = "default"

// Task is the root aggregate: one annotated image set with its label schema.
// Instances are materialized per operation and treated as read-only snapshots.
type Task struct {
	ID      int64
	Name    string
	Size    int
	Mode    TaskMode
	Overlap int
	Labels  []Label
	// Keypoints is keyed by label index in Labels.
	Keypoints map[int]KeypointInfo
	Images    []Image
	UpdatedAt time.Time
}

// LabelIndex returns the position of the named label, or -1.
func (t *Task) LabelIndex(name string) int {
	for i, l := range t.Labels {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// Label returns the named label.
func (t *Task) Label(name string) (Label, bool) {
	if i := t.LabelIndex(name); i >= 0 {
		return t.Labels[i], true
	}
	return Label{}, false
}

// Subsets returns the distinct image subsets in first-seen order. Images
// without a subset fall into DefaultSubset.
func (t *Task) Subsets() []string {
	var subsets []string
	seen := map[string]bool{}
	for _, img := range t.Images {
		name := img.Subset
		if name == "" {
			name = DefaultSubset
		}
		if !seen[name] {
			seen[name] = true
			subsets = append(subsets, name)
		}
	}
	return subsets
}

// SubsetImages returns the images belonging to the named subset.
func (t *Task) SubsetImages(subset string) []*Image {
	var out []*Image
	for i := range t.Images {
		name := t.Images[i].Subset
		if name == "" {
			name = DefaultSubset
		}
		if name == subset {
			out = append(out, &t.Images[i])
		}
	}
	return out
}
