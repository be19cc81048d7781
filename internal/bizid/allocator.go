package bizid

import (
	"context"
	"errors"
	"fmt"

	"github.com/BruksfildServices01/barber-manager/internal/lock"
)

const maxAttempts = 3

var ErrExhausted = errors.New("bizid: could not allocate a free id")

// Source loads the IDs already stored that start with pattern.
type Source func(ctx context.Context, pattern string) ([]string, error)

// Allocator turns Next into a reservation: scan, compute and insert run
// under a lock, and a unique-constraint hit triggers a fresh scan.
type Allocator struct {
	locker     lock.Locker
	isConflict func(error) bool
}

func NewAllocator(locker lock.Locker, isConflict func(error) bool) *Allocator {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if isConflict == nil {
		isConflict = func(error) bool { return false }
	}
	return &Allocator{locker: locker, isConflict: isConflict}
}

// Peek returns the ID the next Allocate would most likely hand out.
// Nothing is reserved.
func (a *Allocator) Peek(ctx context.Context, s Scheme, year int, src Source) (string, error) {
	existing, err := src(ctx, s.Pattern(year))
	if err != nil {
		return "", fmt.Errorf("load existing ids: %w", err)
	}
	return Next(s, year, existing), nil
}

func (a *Allocator) Allocate(
	ctx context.Context,
	key string,
	s Scheme,
	year int,
	src Source,
	create func(id string) error,
) (string, error) {

	unlock, err := a.locker.Lock(ctx, key)
	if err != nil {
		return "", fmt.Errorf("lock %s: %w", key, err)
	}
	defer unlock()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := a.Peek(ctx, s, year, src)
		if err != nil {
			return "", err
		}

		err = create(id)
		if err == nil {
			return id, nil
		}
		if !a.isConflict(err) {
			return "", err
		}
	}

	return "", ErrExhausted
}
