package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New("when", "chain")
	s.Add("pipe")
	assert.True(t, s.Has("when"))
	assert.False(t, s.Has("render"))

	s.Delete("chain")
	assert.Equal(t, []string{"pipe", "when"}, Sorted(s))
}
