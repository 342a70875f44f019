package memo

// Option applies a configuration option to the in-memory Set.
type Option func(*inMemorySet)

// WithCapacity pre-sizes the backing map. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(s *inMemorySet) {
		if n > 0 {
			s.hint = n
		}
	}
}
