package compiler

import (
	"github.com/mattpair/conder-sub001/internal/types"
)

type heapEntry struct {
	slot int
	typ  types.Type
}

// heapManager assigns heap slots to variables. Slots are strictly increasing and never reused
// during the compilation of a function: the highest slot is the size of the frame the VM allocates.
//
// Each scope level records the names it introduced so that leaving the level removes exactly
// these bindings and reports how many heap values the caller should truncate.
type heapManager struct {
	vars    map[string]heapEntry
	levels  [][]string
	count   int
	maxVars int
}

func newHeapManager() *heapManager {
	return &heapManager{
		vars:   map[string]heapEntry{},
		levels: [][]string{nil}, //function level
	}
}

// add binds name to the next slot, false is returned if name is already bound.
func (h *heapManager) add(name string, t types.Type) (int, bool) {
	if _, ok := h.vars[name]; ok {
		return 0, false
	}

	slot := h.count
	h.count++
	h.vars[name] = heapEntry{slot: slot, typ: t}

	last := len(h.levels) - 1
	h.levels[last] = append(h.levels[last], name)
	h.maxVars = max(h.maxVars, slot)
	return slot, true
}

func (h *heapManager) get(name string) (heapEntry, bool) {
	entry, ok := h.vars[name]
	return entry, ok
}

func (h *heapManager) startLevel() {
	h.levels = append(h.levels, nil)
}

// endLevel removes the bindings introduced since the matching startLevel and returns their count.
func (h *heapManager) endLevel() int {
	last := len(h.levels) - 1
	if last == 0 {
		panic("function level cannot be ended")
	}

	names := h.levels[last]
	for _, name := range names {
		delete(h.vars, name)
	}
	h.levels = h.levels[:last]
	return len(names)
}

// maximumVars returns the highest slot ever assigned, 0 if no slot was assigned.
func (h *heapManager) maximumVars() int {
	return h.maxVars
}

// slotCount returns the number of slots ever assigned.
func (h *heapManager) slotCount() int {
	return h.count
}
