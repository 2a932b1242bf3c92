package crosspost

import (
	"context"
	"sync"
)

// AccessSerializer lets one critical section run at a time. It guards the
// Twitter client's set-credentials + publish pair so a tweet is never
// published under another account's credentials.
type AccessSerializer struct {
	sem chan struct{}
}

func NewAccessSerializer() *AccessSerializer {
	return &AccessSerializer{sem: make(chan struct{}, 1)}
}

var (
	shared     *AccessSerializer
	sharedOnce sync.Once
)

// SharedSerializer returns the process-wide serializer used by every Twitter
// dispatcher, so concurrent events cannot interleave their credential windows.
func SharedSerializer() *AccessSerializer {
	sharedOnce.Do(func() {
		shared = NewAccessSerializer()
	})
	return shared
}

// Do waits for the lock, runs fn and releases the lock on every exit path,
// panics included. It returns ctx.Err() if ctx ends before the lock is taken.
func (s *AccessSerializer) Do(ctx context.Context, fn func() error) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	return fn()
}
