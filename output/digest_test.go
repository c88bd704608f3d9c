package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigest(t *testing.T) {
	a := Digest("# Dev Agent: T-1\n")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Digest("# Dev Agent: T-1\n"))
	assert.NotEqual(t, a, Digest("# Dev Agent: T-2\n"))
}
