package cvatxml

import "errors"

var (
	// ErrMalformedDocument indicates a structurally invalid document:
	// undecodable XML or missing required elements and attributes.
	ErrMalformedDocument = errors.New("malformed interchange document")
	// ErrInvalidAttribute indicates an attribute value that cannot be
	// coerced to its declared type.
	ErrInvalidAttribute = errors.New("invalid attribute value")
)
