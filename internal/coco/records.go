// Package coco converts task snapshots into the multi-file JSON interchange
// layout used by common object-detection tooling.
package coco

// License entry; the exporter seeds a single empty license with id 0.
type License struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
	URL  string `json:"url"`
}

// Info is the dataset-level metadata block.
type Info struct {
	Contributor string `json:"contributor"`
	DateCreated string `json:"date_created"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Version     string `json:"version"`
	Year        string `json:"year"`
}

// Category is the export-facing numbered representation of a label.
// Keypoints and Skeleton are set only in the keypoints part.
type Category struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Supercategory string   `json:"supercategory"`
	Keypoints     []string `json:"keypoints,omitempty"`
	Skeleton      [][2]int `json:"skeleton,omitempty"`
}

// ImageRecord describes one exported image.
type ImageRecord struct {
	ID           int    `json:"id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileName     string `json:"file_name"`
	License      int    `json:"license"`
	FlickrURL    string `json:"flickr_url"`
	CocoURL      string `json:"coco_url"`
	DateCaptured int    `json:"date_captured"`
}

// RLESegmentation is the run-length form of a crowd mask. Size is
// [height, width]; counts alternate background/foreground in row-major
// order starting with background.
type RLESegmentation struct {
	Counts []int  `json:"counts"`
	Size   [2]int `json:"size"`
}

// AnnotationRecord is one exported annotation row. Field presence varies by
// part: instances carry segmentation/area/bbox/iscrowd, keypoints add the
// flattened triples, captions carry only the text.
type AnnotationRecord struct {
	ID           int       `json:"id"`
	ImageID      int       `json:"image_id"`
	CategoryID   int       `json:"category_id"`
	Segmentation any       `json:"segmentation,omitempty"`
	Area         *float64  `json:"area,omitempty"`
	BBox         []float64 `json:"bbox,omitempty"`
	IsCrowd      *int      `json:"iscrowd,omitempty"`
	Keypoints    []float64 `json:"keypoints,omitempty"`
	NumKeypoints *int      `json:"num_keypoints,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	Score        *float64  `json:"score,omitempty"`
}

// Document is one annotations/<part>_<subset>.json file.
type Document struct {
	Licenses    []License          `json:"licenses"`
	Info        Info               `json:"info"`
	Categories  []Category         `json:"categories"`
	Images      []ImageRecord      `json:"images"`
	Annotations []AnnotationRecord `json:"annotations"`
}

func newDocument() *Document {
	return &Document{
		Licenses:    []License{{}},
		Categories:  []Category{},
		Images:      []ImageRecord{},
		Annotations: []AnnotationRecord{},
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
