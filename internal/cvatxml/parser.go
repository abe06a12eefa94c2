package cvatxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rpggio/labelport/internal/domain/annotation"
)

// Parse reads an interchange document and materializes a validated task
// snapshot. Parsing is all-or-nothing: any structural or coercion failure
// aborts without a partial model.
func Parse(r io.Reader) (*annotation.Task, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if strings.TrimSpace(doc.Version) == "" {
		return nil, fmt.Errorf("%w: missing <version> element", ErrMalformedDocument)
	}
	if doc.Task == nil {
		return nil, fmt.Errorf("%w: missing <task> element", ErrMalformedDocument)
	}

	// Metadata pass: task, labels, attribute specs, keypoint skeletons.
	task, err := parseTask(doc.Task)
	if err != nil {
		return nil, err
	}

	// Body pass: images and their shapes.
	for i := range doc.Images {
		img, err := parseImage(&doc.Images[i])
		if err != nil {
			return nil, err
		}
		task.Images = append(task.Images, *img)
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

func parseTask(x *xmlTask) (*annotation.Task, error) {
	task := &annotation.Task{Name: x.Name, Mode: annotation.ModeAnnotation}

	var err error
	if task.ID, err = parseInt64Attr("task", "id", x.ID, 0); err != nil {
		return nil, err
	}
	if task.Size, err = parseIntAttr("task", "size", x.Size, 0); err != nil {
		return nil, err
	}
	if task.Overlap, err = parseIntAttr("task", "overlap", x.Overlap, 0); err != nil {
		return nil, err
	}
	if x.Mode != "" {
		switch annotation.TaskMode(x.Mode) {
		case annotation.ModeAnnotation, annotation.ModeInterpolation:
			task.Mode = annotation.TaskMode(x.Mode)
		default:
			return nil, fmt.Errorf("%w: task mode %q", ErrInvalidAttribute, x.Mode)
		}
	}

	for idx, xl := range x.Labels {
		label := annotation.Label{Name: xl.Name}
		for _, xa := range xl.Attributes {
			input := annotation.InputText
			if xa.InputType != "" {
				if input, err = annotation.ParseAttributeInput(xa.InputType); err != nil {
					return nil, fmt.Errorf("%w: label %q attribute %q: %v",
						ErrInvalidAttribute, xl.Name, xa.Name, err)
				}
			}
			attr, err := annotation.NewAttribute(xa.Name, input, xa.Values, xa.Default)
			if err != nil {
				return nil, fmt.Errorf("%w: label %q: %v", ErrInvalidAttribute, xl.Name, err)
			}
			label.Attributes = append(label.Attributes, attr)
		}
		task.Labels = append(task.Labels, label)

		if xl.Skeleton != nil {
			info, err := parseSkeleton(xl.Name, xl.Skeleton)
			if err != nil {
				return nil, err
			}
			if task.Keypoints == nil {
				task.Keypoints = map[int]annotation.KeypointInfo{}
			}
			task.Keypoints[idx] = info
		}
	}
	return task, nil
}

func parseSkeleton(label string, x *xmlSkeleton) (annotation.KeypointInfo, error) {
	info := annotation.KeypointInfo{Names: strings.Split(x.Nodes, ";")}
	if x.Edges == "" {
		return info, nil
	}
	for _, pair := range strings.Split(x.Edges, ";") {
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return info, fmt.Errorf("%w: label %q skeleton edge %q", ErrInvalidAttribute, label, pair)
		}
		a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
		b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errA != nil || errB != nil || a < 0 || b < 0 ||
			a >= len(info.Names) || b >= len(info.Names) {
			return info, fmt.Errorf("%w: label %q skeleton edge %q", ErrInvalidAttribute, label, pair)
		}
		info.Skeleton = append(info.Skeleton, [2]int{a, b})
	}
	return info, nil
}

func parseImage(x *xmlImage) (*annotation.Image, error) {
	for attr, val := range map[string]string{"id": x.ID, "name": x.Name, "width": x.Width, "height": x.Height} {
		if val == "" {
			return nil, fmt.Errorf("%w: image missing required attribute %q", ErrMalformedDocument, attr)
		}
	}

	img := &annotation.Image{Name: x.Name, Subset: x.Subset}
	var err error
	if img.ID, err = parseIntAttr("image", "id", x.ID, 0); err != nil {
		return nil, err
	}
	if img.Width, err = parseIntAttr("image", "width", x.Width, 0); err != nil {
		return nil, err
	}
	if img.Height, err = parseIntAttr("image", "height", x.Height, 0); err != nil {
		return nil, err
	}
	if img.Flipped, err = parseBoolAttr("image", "flipped", x.Flipped); err != nil {
		return nil, err
	}

	for i := range x.Shapes {
		ann, err := parseShape(img, &x.Shapes[i])
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", img.ID, err)
		}
		img.Annotations = append(img.Annotations, *ann)
	}
	return img, nil
}

func parseShape(img *annotation.Image, x *xmlShape) (*annotation.Annotation, error) {
	kind, err := annotation.KindFromTag(x.XMLName.Local)
	if err != nil {
		return nil, err
	}
	elem := x.XMLName.Local

	ann := &annotation.Annotation{Kind: kind, Label: x.Label}
	if ann.ID, err = parseIntAttr(elem, "id", x.ID, 0); err != nil {
		return nil, err
	}
	if ann.Occluded, err = parseBoolAttr(elem, "occluded", x.Occluded); err != nil {
		return nil, err
	}
	if ann.ZOrder, err = parseOptIntAttr(elem, "z_order", x.ZOrder); err != nil {
		return nil, err
	}
	if ann.Group, err = parseOptIntAttr(elem, "group_id", x.Group); err != nil {
		return nil, err
	}

	switch kind {
	case annotation.KindBox:
		if ann.XTL, err = parseFloatAttr(elem, "xtl", x.XTL); err != nil {
			return nil, err
		}
		if ann.YTL, err = parseFloatAttr(elem, "ytl", x.YTL); err != nil {
			return nil, err
		}
		if ann.XBR, err = parseFloatAttr(elem, "xbr", x.XBR); err != nil {
			return nil, err
		}
		if ann.YBR, err = parseFloatAttr(elem, "ybr", x.YBR); err != nil {
			return nil, err
		}
	case annotation.KindPolygon, annotation.KindPolyline, annotation.KindPoints:
		if ann.Points, err = ParsePoints(x.Points); err != nil {
			return nil, err
		}
		if kind == annotation.KindPoints && x.Visibility != "" {
			if ann.Visibility, err = parseVisibility(x.Visibility); err != nil {
				return nil, err
			}
		}
	case annotation.KindMask:
		counts, err := parseRunLengths(x.RLE)
		if err != nil {
			return nil, err
		}
		if ann.Mask, err = annotation.MaskFromRLE(img.Width, img.Height, counts); err != nil {
			return nil, fmt.Errorf("%w: mask rle: %v", ErrInvalidAttribute, err)
		}
	case annotation.KindCaption:
		ann.Caption = strings.TrimSpace(x.Text)
	}

	for _, xa := range x.Attributes {
		if ann.Attributes == nil {
			ann.Attributes = map[string]string{}
		}
		if _, dup := ann.Attributes[xa.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate <attribute> %q on <%s>", ErrMalformedDocument, xa.Name, elem)
		}
		ann.Attributes[xa.Name] = strings.TrimSpace(xa.Value)
	}
	return ann, nil
}

// ParsePoints decodes the "x1,y1;x2,y2" point text into flat coordinates.
// A malformed pair fails the whole parse.
func ParsePoints(text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var points []float64
	for _, pair := range strings.Split(text, ";") {
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: point pair %q", ErrInvalidAttribute, pair)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: point pair %q", ErrInvalidAttribute, pair)
		}
		points = append(points, x, y)
	}
	return points, nil
}

func parseVisibility(text string) ([]annotation.Visibility, error) {
	var out []annotation.Visibility
	for _, part := range strings.Split(text, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 2 {
			return nil, fmt.Errorf("%w: visibility flag %q", ErrInvalidAttribute, part)
		}
		out = append(out, annotation.Visibility(v))
	}
	return out, nil
}

func parseRunLengths(text string) ([]int, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: mask missing rle attribute", ErrMalformedDocument)
	}
	var counts []int
	for _, part := range strings.Split(text, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: rle run %q", ErrInvalidAttribute, part)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func parseIntAttr(elem, attr, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: <%s> %s=%q", ErrInvalidAttribute, elem, attr, raw)
	}
	return v, nil
}

func parseInt64Attr(elem, attr, raw string, def int64) (int64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: <%s> %s=%q", ErrInvalidAttribute, elem, attr, raw)
	}
	return v, nil
}

func parseOptIntAttr(elem, attr, raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: <%s> %s=%q", ErrInvalidAttribute, elem, attr, raw)
	}
	return &v, nil
}

func parseFloatAttr(elem, attr, raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: <%s> missing required attribute %q", ErrMalformedDocument, elem, attr)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: <%s> %s=%q", ErrInvalidAttribute, elem, attr, raw)
	}
	return v, nil
}

func parseBoolAttr(elem, attr, raw string) (bool, error) {
	switch raw {
	case "", "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	}
	return false, fmt.Errorf("%w: <%s> %s=%q", ErrInvalidAttribute, elem, attr, raw)
}
