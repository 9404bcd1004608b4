package model

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
)

// Group is one instanced draw: every instance of a model packed for the GPU.
type Group struct {
	Model ModelID
	// Ordinal is stable for a ModelID for the grouper's lifetime. Instance buffers are keyed by it.
	Ordinal int
	Count   int
	// Data holds Count GPUInstance records. It is reused by the next frame.
	Data []byte
}

// Grouper collects (ModelSpec, world matrix) pairs each frame and packs them per model.
type Grouper interface {
	// Reset starts a new frame. Previously returned groups become invalid.
	Reset()

	// Add records one instance of a model.
	//
	// Parameters:
	//   - spec: the entity's model component
	//   - world: the entity's world matrix
	Add(spec ModelSpec, world mgl32.Mat4)

	// Groups packs the recorded instances and returns one group per model, ordered by ordinal.
	// Packing fans out over the worker pool and returns after every group is packed.
	//
	// Returns:
	//   - []Group: the frame's instanced draws
	Groups() []Group

	// Ordinal returns the stable ordinal of a model, if it was ever seen.
	Ordinal(id ModelID) (int, bool)

	// Close stops the worker pool.
	Close()
}

type groupBucket struct {
	id       ModelID
	ordinal  int
	matrices []mgl32.Mat4
	data     []byte
}

type grouper struct {
	ordinals map[ModelID]int
	buckets  []*groupBucket
	groups   []Group

	workers         int
	serialThreshold int
	pool            worker.DynamicWorkerPool
}

var _ Grouper = &grouper{}

// NewGrouper creates a Grouper with its own worker pool.
//
// Parameters:
//   - options: functional options to configure the grouper
//
// Returns:
//   - Grouper: the grouper
func NewGrouper(options ...GrouperBuilderOption) Grouper {
	g := &grouper{
		ordinals:        make(map[ModelID]int),
		workers:         runtime.GOMAXPROCS(0),
		serialThreshold: 256,
	}
	for _, opt := range options {
		opt(g)
	}
	if g.workers > 1 {
		g.pool = worker.NewDynamicWorkerPool(g.workers, 256, time.Second)
	}
	return g
}

func (g *grouper) Reset() {
	for _, b := range g.buckets {
		b.matrices = b.matrices[:0]
	}
}

func (g *grouper) Add(spec ModelSpec, world mgl32.Mat4) {
	ord, ok := g.ordinals[spec.ID]
	if !ok {
		ord = len(g.buckets)
		g.ordinals[spec.ID] = ord
		g.buckets = append(g.buckets, &groupBucket{id: spec.ID, ordinal: ord})
	}
	b := g.buckets[ord]
	b.matrices = append(b.matrices, world)
}

func (g *grouper) Groups() []Group {
	active := make([]*groupBucket, 0, len(g.buckets))
	total := 0
	for _, b := range g.buckets {
		if len(b.matrices) > 0 {
			active = append(active, b)
			total += len(b.matrices)
		}
	}

	if g.pool == nil || total < g.serialThreshold || len(active) < 2 {
		for _, b := range active {
			b.pack()
		}
	} else {
		var wg sync.WaitGroup
		for i, b := range active {
			wg.Add(1)
			bCap := b
			g.pool.SubmitTask(worker.Task{
				ID: i,
				Do: func() (any, error) {
					defer wg.Done()
					bCap.pack()
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	g.groups = g.groups[:0]
	for _, b := range active {
		g.groups = append(g.groups, Group{
			Model:   b.id,
			Ordinal: b.ordinal,
			Count:   len(b.matrices),
			Data:    b.data,
		})
	}
	slices.SortFunc(g.groups, func(a, b Group) int { return a.Ordinal - b.Ordinal })
	return g.groups
}

func (g *grouper) Ordinal(id ModelID) (int, bool) {
	ord, ok := g.ordinals[id]
	return ord, ok
}

func (g *grouper) Close() {
	if g.pool != nil {
		g.pool.Stop()
		g.pool = nil
	}
}

func (b *groupBucket) pack() {
	size := len(b.matrices) * GPUInstanceSize
	if cap(b.data) < size {
		b.data = make([]byte, size)
	}
	b.data = b.data[:size]
	for i, m := range b.matrices {
		inst := NewGPUInstance(m)
		inst.Put(b.data[i*GPUInstanceSize:])
	}
}
