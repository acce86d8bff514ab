package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct{ n int }

func TestGenericKey(t *testing.T) {
	k := NewGenericKey[*sample]("sample")
	assert.Equal(t, "sample", k.Name())
	assert.Equal(t, "sample<*types.sample>", k.String())

	v, ok := k.Cast(&sample{n: 3})
	assert.True(t, ok)
	assert.Equal(t, 3, v.n)

	_, ok = k.Cast("not a sample")
	assert.False(t, ok)

	assert.Equal(t, k, NewGenericKey[*sample]("sample"))
}
