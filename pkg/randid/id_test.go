package randid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	id := Generate(6)
	assert.Len(t, id, 6)
	for _, r := range id {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
	}

	assert.Empty(t, Generate(0))
}
