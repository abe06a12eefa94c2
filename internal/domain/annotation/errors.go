package annotation

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownInput indicates an attribute input type name outside the
	// closed enumeration.
	ErrUnknownInput = errors.New("unknown attribute input type")
	// ErrUnknownKind indicates an annotation kind tag outside the closed
	// enumeration.
	ErrUnknownKind = errors.New("unknown annotation kind")
	// ErrDuplicateLabel indicates a label name reused within a task.
	ErrDuplicateLabel = errors.New("duplicate label name")
	// ErrDuplicateAttribute indicates an attribute name reused within a label.
	ErrDuplicateAttribute = errors.New("duplicate attribute name")
	// ErrUnknownLabel indicates an annotation referencing a label the task
	// does not declare.
	ErrUnknownLabel = errors.New("annotation references unknown label")
	// ErrPointParity indicates an odd flat coordinate sequence.
	ErrPointParity = errors.New("point sequence length is odd")
	// ErrVisibilityLength indicates a visibility sequence not matching the
	// point count.
	ErrVisibilityLength = errors.New("visibility length does not match point count")
)

// KindFromTag maps an interchange element name onto an annotation kind.
// The mapping is closed; unmapped tags fail with ErrUnknownKind.
func KindFromTag(tag string) (Kind, error) {
	switch tag {
	case "box":
		return KindBox, nil
	case "polygon":
		return KindPolygon, nil
	case "polyline":
		return KindPolyline, nil
	case "points":
		return KindPoints, nil
	case "mask":
		return KindMask, nil
	case "tag":
		return KindLabel, nil
	case "caption":
		return KindCaption, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, tag)
}
