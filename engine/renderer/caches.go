package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/dreamscape/engine/logger"
	"go.uber.org/zap"
)

// Cache creates a value the first time its key is requested and returns the same value after.
// The renderer keeps one per resource kind: model bindings by ModelID, textures by name.
type Cache[K comparable, V any] struct {
	items   map[K]V
	release func(V)
}

// NewCache creates an empty cache.
//
// Parameters:
//   - release: frees a value when the cache is released, may be nil
//
// Returns:
//   - *Cache[K, V]: the cache
func NewCache[K comparable, V any](release func(V)) *Cache[K, V] {
	return &Cache[K, V]{items: make(map[K]V), release: release}
}

// GetOrCreate returns the cached value for key, creating it with create on first use.
// A failed create caches nothing.
//
// Parameters:
//   - key: the cache key
//   - create: builds the value
//
// Returns:
//   - V: the cached or new value
//   - error: the error returned by create
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	if v, ok := c.items[key]; ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.items[key] = v
	return v, nil
}

// Get returns the cached value for key without creating it.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.items[key]
	return v, ok
}

// Len returns the number of cached values.
func (c *Cache[K, V]) Len() int {
	return len(c.items)
}

// Release frees every value and empties the cache.
func (c *Cache[K, V]) Release() {
	if c.release != nil {
		for _, v := range c.items {
			c.release(v)
		}
	}
	clear(c.items)
}

// BufferAllocator creates and frees GPU buffers for the instance buffer cache.
type BufferAllocator[B any] interface {
	// Allocate creates a buffer of exactly size bytes.
	Allocate(label string, size uint64) (B, error)
	// Free releases a buffer returned by Allocate.
	Free(buf B)
}

type instanceEntry[B any] struct {
	buffer   B
	capacity uint64
	valid    bool
}

// InstanceBuffers keeps one instance buffer per stable model ordinal. A buffer only ever grows:
// when a frame needs more bytes than it holds it is replaced by one of exactly the required size,
// and it is never shrunk when fewer instances are drawn.
type InstanceBuffers[B any] struct {
	alloc  BufferAllocator[B]
	stride uint64
	slots  []instanceEntry[B]
}

// NewInstanceBuffers creates an empty cache.
//
// Parameters:
//   - alloc: creates and frees the buffers
//   - stride: bytes per instance
//
// Returns:
//   - *InstanceBuffers[B]: the cache
func NewInstanceBuffers[B any](alloc BufferAllocator[B], stride uint64) *InstanceBuffers[B] {
	return &InstanceBuffers[B]{alloc: alloc, stride: stride}
}

// Ensure returns the buffer for an ordinal, large enough for count instances. A new ordinal
// starts with room for one instance or for count, whichever is larger.
//
// Parameters:
//   - ordinal: the model's stable ordinal
//   - count: instances drawn this frame
//
// Returns:
//   - B: the buffer
//   - error: an error if allocation fails; the previous buffer stays cached then
func (c *InstanceBuffers[B]) Ensure(ordinal, count int) (B, error) {
	if ordinal < 0 {
		var zero B
		return zero, fmt.Errorf("invalid instance buffer ordinal %d", ordinal)
	}
	for len(c.slots) <= ordinal {
		c.slots = append(c.slots, instanceEntry[B]{})
	}

	required := uint64(max(count, 1)) * c.stride
	slot := &c.slots[ordinal]
	if slot.valid && required <= slot.capacity {
		return slot.buffer, nil
	}

	buf, err := c.alloc.Allocate(fmt.Sprintf("instances %d", ordinal), required)
	if err != nil {
		var zero B
		return zero, fmt.Errorf("instance buffer %d: %w", ordinal, err)
	}
	if slot.valid {
		c.alloc.Free(slot.buffer)
		logger.Log.Debug("instance buffer grown",
			zap.Int("ordinal", ordinal),
			zap.Uint64("from", slot.capacity),
			zap.Uint64("to", required),
		)
	}
	*slot = instanceEntry[B]{buffer: buf, capacity: required, valid: true}
	return buf, nil
}

// Capacity returns the byte size of an ordinal's buffer, 0 if none exists.
func (c *InstanceBuffers[B]) Capacity(ordinal int) uint64 {
	if ordinal < 0 || ordinal >= len(c.slots) {
		return 0
	}
	return c.slots[ordinal].capacity
}

// Release frees every buffer.
func (c *InstanceBuffers[B]) Release() {
	for _, slot := range c.slots {
		if slot.valid {
			c.alloc.Free(slot.buffer)
		}
	}
	c.slots = nil
}
