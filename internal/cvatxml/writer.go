package cvatxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rpggio/labelport/internal/domain/annotation"
)

// Write emits a task snapshot as an interchange document. The output is
// deterministic: annotation attributes are sorted by name, everything else
// keeps model order.
func Write(w io.Writer, task *annotation.Task) error {
	doc := xmlDocument{
		Version: FormatVersion,
		Task:    buildTaskElement(task),
	}
	for i := range task.Images {
		doc.Images = append(doc.Images, buildImageElement(&task.Images[i]))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func buildTaskElement(task *annotation.Task) *xmlTask {
	x := &xmlTask{
		ID:      formatInt64(task.ID),
		Name:    task.Name,
		Size:    formatInt(task.Size),
		Mode:    string(task.Mode),
		Overlap: formatInt(task.Overlap),
	}
	for idx, label := range task.Labels {
		xl := xmlLabel{Name: label.Name}
		for _, attr := range label.Attributes {
			xl.Attributes = append(xl.Attributes, xmlAttrSpec{
				Name:      attr.Name,
				InputType: string(attr.Input),
				Default:   attr.Default,
				Values:    attr.Values,
			})
		}
		if info, ok := task.Keypoints[idx]; ok {
			xl.Skeleton = buildSkeletonElement(info)
		}
		x.Labels = append(x.Labels, xl)
	}
	return x
}

func buildSkeletonElement(info annotation.KeypointInfo) *xmlSkeleton {
	var edges []string
	for _, pair := range info.Skeleton {
		edges = append(edges, fmt.Sprintf("%d,%d", pair[0], pair[1]))
	}
	return &xmlSkeleton{
		Nodes: strings.Join(info.Names, ";"),
		Edges: strings.Join(edges, ";"),
	}
}

func buildImageElement(img *annotation.Image) xmlImage {
	x := xmlImage{
		ID:     formatInt(img.ID),
		Name:   img.Name,
		Width:  formatInt(img.Width),
		Height: formatInt(img.Height),
		Subset: img.Subset,
	}
	if img.Flipped {
		x.Flipped = "1"
	}
	for i := range img.Annotations {
		x.Shapes = append(x.Shapes, buildShapeElement(&img.Annotations[i]))
	}
	return x
}

func buildShapeElement(a *annotation.Annotation) xmlShape {
	x := xmlShape{
		XMLName: xml.Name{Local: tagForKind(a.Kind)},
		Label:   a.Label,
	}
	if a.ID != 0 {
		x.ID = formatInt(a.ID)
	}
	if a.ZOrder != nil {
		x.ZOrder = formatInt(*a.ZOrder)
	}
	if a.Group != nil {
		x.Group = formatInt(*a.Group)
	}

	switch a.Kind {
	case annotation.KindBox:
		x.Occluded = formatBool(a.Occluded)
		x.XTL = formatFloat(a.XTL)
		x.YTL = formatFloat(a.YTL)
		x.XBR = formatFloat(a.XBR)
		x.YBR = formatFloat(a.YBR)
	case annotation.KindPolygon, annotation.KindPolyline, annotation.KindPoints:
		x.Occluded = formatBool(a.Occluded)
		x.Points = FormatPoints(a.Points)
		if a.Kind == annotation.KindPoints && len(a.Visibility) > 0 {
			x.Visibility = formatVisibility(a.Visibility)
		}
	case annotation.KindMask:
		x.Occluded = formatBool(a.Occluded)
		if a.Mask != nil {
			x.RLE = formatRunLengths(a.Mask.RLE())
		}
	case annotation.KindCaption:
		x.Text = a.Caption
	}

	names := make([]string, 0, len(a.Attributes))
	for name := range a.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		x.Attributes = append(x.Attributes, xmlAnnAttr{Name: name, Value: a.Attributes[name]})
	}
	return x
}

func tagForKind(kind annotation.Kind) string {
	if kind == annotation.KindLabel {
		return "tag"
	}
	return string(kind)
}

// FormatPoints encodes flat coordinates as "x1,y1;x2,y2" point text.
func FormatPoints(points []float64) string {
	var pairs []string
	for i := 0; i+1 < len(points); i += 2 {
		pairs = append(pairs, formatFloat(points[i])+","+formatFloat(points[i+1]))
	}
	return strings.Join(pairs, ";")
}

func formatVisibility(flags []annotation.Visibility) string {
	parts := make([]string, len(flags))
	for i, v := range flags {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, ",")
}

func formatRunLengths(counts []int) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
func formatInt(v int) string       { return strconv.Itoa(v) }
func formatInt64(v int64) string   { return strconv.FormatInt(v, 10) }

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
