package coco_test

import (
	"testing"

	"github.com/rpggio/labelport/internal/coco"
	"github.com/rpggio/labelport/internal/domain/annotation"
	"github.com/stretchr/testify/require"
)

func keypointsTask(annotations ...annotation.Annotation) *annotation.Task {
	return &annotation.Task{
		ID:     1,
		Name:   "t",
		Labels: []annotation.Label{{Name: "person"}},
		Keypoints: map[int]annotation.KeypointInfo{
			0: {Names: []string{"head", "hip", "foot"}, Skeleton: [][2]int{{0, 1}, {1, 2}}},
		},
		Images: []annotation.Image{{
			ID: 3, Name: "frame.jpg", Width: 100, Height: 100,
			Annotations: annotations,
		}},
	}
}

func TestKeypoints_VisibilityEncoding(t *testing.T) {
	task := keypointsTask(annotation.Annotation{
		Kind:   annotation.KindPoints,
		Label:  "person",
		Points: []float64{10, 20, 30, 40, 50, 60},
		Visibility: []annotation.Visibility{
			annotation.VisibilityVisible,
			annotation.VisibilityHidden,
			annotation.VisibilityAbsent,
		},
	})

	doc := exportPart(t, task, coco.PartKeypoints)
	require.Len(t, doc.Annotations, 1)
	rec := doc.Annotations[0]

	require.Equal(t, 1, *rec.NumKeypoints)
	require.Len(t, rec.Keypoints, 9)
	require.Equal(t, []float64{10, 20, 2, 30, 40, 1, 50, 60, 0}, rec.Keypoints)
}

func TestKeypoints_SynthesizedBBoxFromExtrema(t *testing.T) {
	task := keypointsTask(annotation.Annotation{
		Kind:   annotation.KindPoints,
		Label:  "person",
		Points: []float64{10, 20, 30, 40},
	})

	doc := exportPart(t, task, coco.PartKeypoints)
	rec := doc.Annotations[0]
	require.Equal(t, []float64{10, 20, 20, 20}, rec.BBox)
	require.Equal(t, 400.0, *rec.Area)
	require.Equal(t, 0, *rec.IsCrowd)
}

func TestKeypoints_PrefersGroupedBoxOfSameLabel(t *testing.T) {
	group := 4
	task := keypointsTask(
		annotation.Annotation{
			Kind:   annotation.KindPoints,
			Label:  "person",
			Group:  &group,
			Points: []float64{10, 20, 30, 40},
		},
		annotation.Annotation{
			Kind: annotation.KindBox, Label: "person", Group: &group,
			XTL: 5, YTL: 5, XBR: 45, YBR: 55,
		},
	)

	doc := exportPart(t, task, coco.PartKeypoints)
	rec := doc.Annotations[0]
	require.Equal(t, []float64{5, 5, 40, 50}, rec.BBox)
	require.Equal(t, 2000.0, *rec.Area)
}

func TestKeypoints_CategoryCarriesNamesAndSkeleton(t *testing.T) {
	task := keypointsTask(annotation.Annotation{
		Kind: annotation.KindPoints, Label: "person", Points: []float64{1, 2},
	})

	doc := exportPart(t, task, coco.PartKeypoints)
	require.Len(t, doc.Categories, 1)
	cat := doc.Categories[0]
	require.Equal(t, 1, cat.ID)
	require.Equal(t, "person", cat.Name)
	require.Equal(t, []string{"head", "hip", "foot"}, cat.Keypoints)
	require.Equal(t, [][2]int{{0, 1}, {1, 2}}, cat.Skeleton)
}

func TestKeypoints_MissingVisibilityDefaultsToVisible(t *testing.T) {
	task := keypointsTask(annotation.Annotation{
		Kind: annotation.KindPoints, Label: "person", Points: []float64{1, 2, 3, 4},
	})

	doc := exportPart(t, task, coco.PartKeypoints)
	rec := doc.Annotations[0]
	require.Equal(t, 2, *rec.NumKeypoints)
	require.Equal(t, []float64{1, 2, 2, 3, 4, 2}, rec.Keypoints)
}
