package cvatxml_test

import (
	"strings"
	"testing"

	"github.com/rpggio/labelport/internal/cvatxml"
	"github.com/rpggio/labelport/internal/domain/annotation"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<annotations>
  <version>1.1</version>
  <task id="7" name="seals" size="2" mode="annotation" overlap="0">
    <label name="seal">
      <attribute name="pose" input_type="select" default_value="left">
        <value>left</value>
        <value>right</value>
      </attribute>
      <skeleton nodes="nose;flipper;tail" edges="0,1;1,2"/>
    </label>
    <label name="rock"/>
  </task>
  <image id="0" name="frame0.jpg" width="1024" height="768" subset="train">
    <box label="seal" xtl="10" ytl="20" xbr="40" ybr="60" occluded="0" z_order="2" group_id="1">
      <attribute name="pose">right</attribute>
    </box>
    <polygon label="seal" points="10,20;40,20;40,60" occluded="1" group_id="1"/>
    <points label="seal" points="12,22;14.5,24" visibility="2,1" occluded="0"/>
    <tag label="rock"/>
    <caption>two seals on a rock</caption>
  </image>
  <image id="1" name="frame1.jpg" width="4" height="2">
    <mask label="seal" rle="1,4,3" occluded="0"/>
  </image>
</annotations>
`

func TestParse_FullDocument(t *testing.T) {
	task, err := cvatxml.Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	require.Equal(t, int64(7), task.ID)
	require.Equal(t, "seals", task.Name)
	require.Equal(t, annotation.ModeAnnotation, task.Mode)
	require.Len(t, task.Labels, 2)

	seal := task.Labels[0]
	require.Equal(t, "seal", seal.Name)
	require.Len(t, seal.Attributes, 1)
	require.Equal(t, annotation.InputSelect, seal.Attributes[0].Input)
	require.Equal(t, "left", seal.Attributes[0].Default)

	require.Contains(t, task.Keypoints, 0)
	require.Equal(t, []string{"nose", "flipper", "tail"}, task.Keypoints[0].Names)
	require.Equal(t, [][2]int{{0, 1}, {1, 2}}, task.Keypoints[0].Skeleton)

	require.Len(t, task.Images, 2)
	img := task.Images[0]
	require.Equal(t, "train", img.Subset)
	require.Len(t, img.Annotations, 5)

	box := img.Annotations[0]
	require.Equal(t, annotation.KindBox, box.Kind)
	require.Equal(t, 40.0, box.XBR)
	require.Equal(t, 2, *box.ZOrder)
	require.Equal(t, 1, *box.Group)
	require.Equal(t, "right", box.Attributes["pose"])

	poly := img.Annotations[1]
	require.Equal(t, annotation.KindPolygon, poly.Kind)
	require.True(t, poly.Occluded)
	require.Equal(t, []float64{10, 20, 40, 20, 40, 60}, poly.Points)

	pts := img.Annotations[2]
	require.Equal(t, annotation.KindPoints, pts.Kind)
	require.Equal(t, []float64{12, 22, 14.5, 24}, pts.Points)
	require.Equal(t, []annotation.Visibility{annotation.VisibilityVisible, annotation.VisibilityHidden}, pts.Visibility)

	require.Equal(t, annotation.KindLabel, img.Annotations[3].Kind)
	require.Equal(t, "rock", img.Annotations[3].Label)

	caption := img.Annotations[4]
	require.Equal(t, annotation.KindCaption, caption.Kind)
	require.Equal(t, "two seals on a rock", caption.Caption)

	mask := task.Images[1].Annotations[0]
	require.Equal(t, annotation.KindMask, mask.Kind)
	require.NotNil(t, mask.Mask)
	require.Equal(t, 4, mask.Mask.Area())
	require.Equal(t, []int{1, 4, 3}, mask.Mask.RLE())
}

func TestParse_MissingVersion(t *testing.T) {
	doc := `<annotations><task name="t"/></annotations>`
	_, err := cvatxml.Parse(strings.NewReader(doc))
	require.ErrorIs(t, err, cvatxml.ErrMalformedDocument)
}

func TestParse_MissingTask(t *testing.T) {
	doc := `<annotations><version>1.1</version></annotations>`
	_, err := cvatxml.Parse(strings.NewReader(doc))
	require.ErrorIs(t, err, cvatxml.ErrMalformedDocument)
}

func TestParse_ImageMissingRequiredAttribute(t *testing.T) {
	doc := `<annotations><version>1.1</version><task name="t"/>
		<image id="0" name="a.jpg" width="10"/></annotations>`
	_, err := cvatxml.Parse(strings.NewReader(doc))
	require.ErrorIs(t, err, cvatxml.ErrMalformedDocument)
}

func TestParse_NonBooleanFlipped(t *testing.T) {
	doc := `<annotations><version>1.1</version><task name="t"/>
		<image id="0" name="a.jpg" width="10" height="10" flipped="maybe"/></annotations>`
	_, err := cvatxml.Parse(strings.NewReader(doc))
	require.ErrorIs(t, err, cvatxml.ErrInvalidAttribute)
}

func TestParse_MalformedPointPair(t *testing.T) {
	doc := `<annotations><version>1.1</version>
		<task name="t"><label name="cat"/></task>
		<image id="0" name="a.jpg" width="10" height="10">
			<polygon label="cat" points="1,2;3" occluded="0"/>
		</image></annotations>`
	_, err := cvatxml.Parse(strings.NewReader(doc))
	require.ErrorIs(t, err, cvatxml.ErrInvalidAttribute)
}

func TestParse_UnknownShapeTag(t *testing.T) {
	doc := `<annotations><version>1.1</version>
		<task name="t"><label name="cat"/></task>
		<image id="0" name="a.jpg" width="10" height="10">
			<cuboid label="cat"/>
		</image></annotations>`
	_, err := cvatxml.Parse(strings.NewReader(doc))
	require.ErrorIs(t, err, annotation.ErrUnknownKind)
}

func TestParse_UnknownInputType(t *testing.T) {
	doc := `<annotations><version>1.1</version>
		<task name="t"><label name="cat">
			<attribute name="a" input_type="slider"/>
		</label></task></annotations>`
	_, err := cvatxml.Parse(strings.NewReader(doc))
	require.ErrorIs(t, err, cvatxml.ErrInvalidAttribute)
}

func TestParse_UnresolvedLabelReference(t *testing.T) {
	doc := `<annotations><version>1.1</version>
		<task name="t"><label name="cat"/></task>
		<image id="0" name="a.jpg" width="10" height="10">
			<box label="dog" xtl="1" ytl="1" xbr="2" ybr="2" occluded="0"/>
		</image></annotations>`
	_, err := cvatxml.Parse(strings.NewReader(doc))
	require.ErrorIs(t, err, annotation.ErrUnknownLabel)
}

func TestParse_EmptyDocumentIsValid(t *testing.T) {
	doc := `<annotations><version>1.1</version><task name="empty"/></annotations>`
	task, err := cvatxml.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Empty(t, task.Images)
}

func TestParsePoints(t *testing.T) {
	points, err := cvatxml.ParsePoints("1,2;3.5,4")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3.5, 4}, points)

	_, err = cvatxml.ParsePoints("1,2;x,4")
	require.ErrorIs(t, err, cvatxml.ErrInvalidAttribute)
}
