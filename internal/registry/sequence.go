package registry

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Sequence hands out room ids. Every call must return an id never returned before.
type Sequence interface {
	Next(ctx context.Context) (string, error)
}

type counterSequence struct {
	last atomic.Uint64
}

// NewCounterSequence - ids "1", "2", ... unique within the process.
func NewCounterSequence() Sequence {
	return &counterSequence{}
}

func (that *counterSequence) Next(_ context.Context) (string, error) {
	return strconv.FormatUint(that.last.Add(1), 10), nil
}

type uuidSequence struct{}

// NewUUIDSequence - random v4 UUID ids.
func NewUUIDSequence() Sequence {
	return uuidSequence{}
}

func (uuidSequence) Next(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}

	return id.String(), nil
}
