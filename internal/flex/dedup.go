package flex

import "sync"

// ConcurrentSet admits the first value stored under each key and rejects the
// rest. Which of several concurrent duplicates wins is unspecified; the set of
// admitted keys is not.
type ConcurrentSet[K comparable, V any] struct {
	m sync.Map
}

// Add stores v under k unless a value is already there, and reports whether
// v was stored.
func (s *ConcurrentSet[K, V]) Add(k K, v V) bool {
	_, loaded := s.m.LoadOrStore(k, v)
	return !loaded
}

// Values returns every admitted value in unspecified order.
func (s *ConcurrentSet[K, V]) Values() []V {
	var values []V
	s.m.Range(func(_, v any) bool {
		values = append(values, v.(V))
		return true
	})
	return values
}
