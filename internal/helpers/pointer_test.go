package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointerHelpers(t *testing.T) {
	p := Ptr(3)
	assert.Equal(t, 3, *p)
	assert.Equal(t, 3, Value(p))
	assert.Equal(t, 0, Value[int](nil))
	assert.Equal(t, 7, ValueOr(nil, 7))
	assert.Equal(t, 3, ValueOr(p, 7))
}
