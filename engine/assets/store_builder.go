package assets

// StoreBuilderOption is a functional option for configuring a Store via NewStore.
type StoreBuilderOption func(*store)

// WithLoadParallelism caps the number of texture files decoded at once. Values below 1 are ignored.
//
// Parameters:
//   - n: the maximum concurrent decodes
//
// Returns:
//   - StoreBuilderOption: a function that applies the limit
func WithLoadParallelism(n int) StoreBuilderOption {
	return func(s *store) {
		if n > 0 {
			s.loadPar = n
		}
	}
}
