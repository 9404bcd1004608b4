package model

// GrouperBuilderOption is a functional option for configuring a Grouper via NewGrouper.
type GrouperBuilderOption func(*grouper)

// WithWorkers sets the number of packing workers. One or fewer disables the pool.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - GrouperBuilderOption: a function that applies the worker count
func WithWorkers(n int) GrouperBuilderOption {
	return func(g *grouper) {
		g.workers = n
	}
}

// WithSerialThreshold sets the instance count under which packing stays on the calling goroutine.
//
// Parameters:
//   - n: the instance count threshold
//
// Returns:
//   - GrouperBuilderOption: a function that applies the threshold
func WithSerialThreshold(n int) GrouperBuilderOption {
	return func(g *grouper) {
		g.serialThreshold = n
	}
}
