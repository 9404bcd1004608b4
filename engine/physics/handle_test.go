package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaReusesSlotWithNewGeneration(t *testing.T) {
	var a arena[string]
	i1, g1 := a.insert("first")
	require.True(t, a.remove(i1, g1))

	i2, g2 := a.insert("second")
	assert.Equal(t, i1, i2)
	assert.NotEqual(t, g1, g2)

	_, ok := a.get(i1, g1)
	assert.False(t, ok, "stale handle must not alias the reused slot")
	v, ok := a.get(i2, g2)
	require.True(t, ok)
	assert.Equal(t, "second", *v)
	assert.Equal(t, 1, a.len())
}

func TestArenaRejectsZeroAndOutOfRange(t *testing.T) {
	var a arena[int]
	_, ok := a.get(0, 0)
	assert.False(t, ok)
	_, ok = a.get(5, 1)
	assert.False(t, ok)
	assert.False(t, a.remove(0, 1))
}

func TestArenaEachSkipsFreedSlots(t *testing.T) {
	var a arena[int]
	a.insert(1)
	i, g := a.insert(2)
	a.insert(3)
	a.remove(i, g)

	var seen []int
	a.each(func(_, _ uint32, v *int) { seen = append(seen, *v) })
	assert.Equal(t, []int{1, 3}, seen)
}

func TestZeroHandles(t *testing.T) {
	assert.True(t, BodyHandle{}.IsZero())
	assert.True(t, ColliderHandle{}.IsZero())
	assert.Equal(t, "body(3@2)", BodyHandle{index: 3, generation: 2}.String())
}
