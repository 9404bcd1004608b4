package physics

import "fmt"

// BodyHandle references a rigid body owned by a World.
// The zero value never refers to a live body.
type BodyHandle struct {
	index      uint32
	generation uint32
}

// ColliderHandle references a collider owned by a World.
// The zero value never refers to a live collider.
type ColliderHandle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero handle.
func (h BodyHandle) IsZero() bool { return h.generation == 0 }

// IsZero reports whether h is the zero handle.
func (h ColliderHandle) IsZero() bool { return h.generation == 0 }

func (h BodyHandle) String() string {
	return fmt.Sprintf("body(%d@%d)", h.index, h.generation)
}

func (h ColliderHandle) String() string {
	return fmt.Sprintf("collider(%d@%d)", h.index, h.generation)
}

// arena stores values in slots addressed by index and generation.
// Removing a value bumps the slot generation, so handles to the old value stop resolving
// instead of aliasing whatever is inserted into the slot next.
type arena[T any] struct {
	slots []arenaSlot[T]
	free  []uint32
	live  int
}

type arenaSlot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

func (a *arena[T]) insert(v T) (index, generation uint32) {
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, arenaSlot[T]{})
	}
	s := &a.slots[index]
	s.generation++
	s.value = v
	s.occupied = true
	a.live++
	return index, s.generation
}

func (a *arena[T]) get(index, generation uint32) (*T, bool) {
	if generation == 0 || int(index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[index]
	if !s.occupied || s.generation != generation {
		return nil, false
	}
	return &s.value, true
}

func (a *arena[T]) remove(index, generation uint32) bool {
	if _, ok := a.get(index, generation); !ok {
		return false
	}
	s := &a.slots[index]
	var zero T
	s.value = zero
	s.occupied = false
	a.free = append(a.free, index)
	a.live--
	return true
}

// each visits occupied slots in index order.
func (a *arena[T]) each(fn func(index, generation uint32, v *T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.occupied {
			fn(uint32(i), s.generation, &s.value)
		}
	}
}

func (a *arena[T]) len() int {
	return a.live
}
