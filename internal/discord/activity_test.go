package discord

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivity_Wire(t *testing.T) {
	w := Activity{
		Details:    "So What",
		State:      "Miles Davis",
		LargeImage: "default",
		LargeText:  "Kind of Blue",
		Timestamps: Timestamps{Start: 10, End: 20},
		Type:       ActivityListening,
	}.wire()

	assert.Equal(t, 2, w.Type)
	require.NotNil(t, w.Timestamps)
	assert.Equal(t, int64(20), w.Timestamps.End)
	require.NotNil(t, w.Assets)
	assert.Equal(t, "default", w.Assets.LargeImage)
}

func TestActivity_WireOmitsEmpty(t *testing.T) {
	w := Activity{Details: "x", Type: ActivityListening}.wire()

	assert.Nil(t, w.Timestamps)
	assert.Nil(t, w.Assets)
}

func TestActivity_WireTruncates(t *testing.T) {
	w := Activity{Details: strings.Repeat("é", 200)}.wire()

	assert.Equal(t, maxFieldLen, utf8.RuneCountInString(w.Details))
	assert.True(t, strings.HasSuffix(w.Details, "…"))
}
