package memory

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity is the number of turns kept when none is configured.
const DefaultCapacity = 5

// Buffer is an in-process Memory backed by a fixed-size ring.
// Thread-safe for concurrent access.
type Buffer struct {
	mu    sync.RWMutex
	turns []ConversationTurn
	start int // index of the oldest turn
	size  int
}

// NewBuffer creates a buffer holding at most capacity turns (default 5).
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{turns: make([]ConversationTurn, capacity)}
}

// Capacity returns the maximum number of turns.
func (b *Buffer) Capacity() int {
	return len(b.turns)
}

func (b *Buffer) Append(_ context.Context, turn ConversationTurn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.turns)
	if b.size < capacity {
		b.turns[(b.start+b.size)%capacity] = turn
		b.size++
		return nil
	}
	// Full: overwrite the oldest slot and advance.
	b.turns[b.start] = turn
	b.start = (b.start + 1) % capacity
	return nil
}

func (b *Buffer) LastN(_ context.Context, n int) ([]ConversationTurn, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || b.size == 0 {
		return []ConversationTurn{}, nil
	}
	if n > b.size {
		n = b.size
	}

	capacity := len(b.turns)
	result := make([]ConversationTurn, 0, n)
	for i := b.size - n; i < b.size; i++ {
		result = append(result, b.turns[(b.start+i)%capacity])
	}
	return result, nil
}

func (b *Buffer) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.turns)
	b.start, b.size = 0, 0
	return nil
}

func (b *Buffer) Len(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size, nil
}
