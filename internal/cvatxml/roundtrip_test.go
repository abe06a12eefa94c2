package cvatxml_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rpggio/labelport/internal/cvatxml"
	"github.com/stretchr/testify/require"
)

func TestWriteParse_RoundTrip(t *testing.T) {
	original, err := cvatxml.Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, cvatxml.Write(&buf, original))

	reparsed, err := cvatxml.Parse(&buf)
	require.NoError(t, err)
	require.Equal(t, original, reparsed)
}

func TestWrite_Deterministic(t *testing.T) {
	task, err := cvatxml.Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	var first, second bytes.Buffer
	require.NoError(t, cvatxml.Write(&first, task))
	require.NoError(t, cvatxml.Write(&second, task))
	require.Equal(t, first.String(), second.String())
}
