package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of buffered frames.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithDropOldest makes a full queue discard its oldest frame to admit the
// new one. Renderers only care about the latest pose, so streams use it.
func WithDropOldest() Option {
	return func(q *InMemoryQueue) {
		q.dropOldest = true
	}
}
