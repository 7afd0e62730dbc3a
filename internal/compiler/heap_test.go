package compiler

import (
	"testing"

	"github.com/mattpair/conder-sub001/internal/testconfig"
	"github.com/mattpair/conder-sub001/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapManager(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("slots are strictly increasing", func(t *testing.T) {
		h := newHeapManager()
		prev := -1

		for _, name := range []string{"a", "b", "c"} {
			slot, ok := h.add(name, types.Int)
			require.True(t, ok)
			assert.Greater(t, slot, prev)
			prev = slot
		}
		assert.Equal(t, 2, h.maximumVars())
		assert.Equal(t, 3, h.slotCount())
	})

	t.Run("a name cannot be bound twice", func(t *testing.T) {
		h := newHeapManager()
		_, ok := h.add("a", types.Int)
		require.True(t, ok)

		h.startLevel()
		_, ok = h.add("a", types.String)
		assert.False(t, ok)
	})

	t.Run("ending a level removes its bindings only", func(t *testing.T) {
		h := newHeapManager()
		h.add("outer", types.Int)

		h.startLevel()
		h.add("x", types.Int)
		h.add("y", types.Int)

		h.startLevel()
		h.add("z", types.Int)
		assert.Equal(t, 1, h.endLevel())

		_, ok := h.get("z")
		assert.False(t, ok)
		_, ok = h.get("x")
		assert.True(t, ok)

		assert.Equal(t, 2, h.endLevel())
		_, ok = h.get("x")
		assert.False(t, ok)

		entry, ok := h.get("outer")
		require.True(t, ok)
		assert.Equal(t, 0, entry.slot)
		assert.Equal(t, types.Int, entry.typ)
	})

	t.Run("slots are not reused after a level ends", func(t *testing.T) {
		h := newHeapManager()

		h.startLevel()
		first, _ := h.add("x", types.Int)
		h.endLevel()

		second, ok := h.add("x", types.String)
		require.True(t, ok)
		assert.Greater(t, second, first)
		assert.Equal(t, second, h.maximumVars())
	})

	t.Run("empty level", func(t *testing.T) {
		h := newHeapManager()
		h.startLevel()
		assert.Zero(t, h.endLevel())
		assert.Zero(t, h.maximumVars())
		assert.Zero(t, h.slotCount())
	})

	t.Run("the function level cannot be ended", func(t *testing.T) {
		h := newHeapManager()
		assert.Panics(t, func() {
			h.endLevel()
		})
	})
}
