package gateway

import (
	"context"
	"sync"
)

// DefaultHistorySize is the number of messages kept per address.
const DefaultHistorySize = 720

// History keeps a bounded, time-ordered log of messages per address.
type History struct {
	size int

	mu     sync.RWMutex
	byAddr map[int][]Message
}

var _ Sink = (*History)(nil)

// NewHistory creates a store keeping at most size messages per address.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size, byAddr: make(map[int][]Message)}
}

func (h *History) Name() string { return "history" }

// Write appends m, dropping the oldest message when full.
func (h *History) Write(_ context.Context, m Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := append(h.byAddr[m.Address], m)
	if len(msgs) > h.size {
		msgs = msgs[len(msgs)-h.size:]
	}
	h.byAddr[m.Address] = msgs
	return nil
}

// Get returns up to maxPoints messages from address spread evenly over the
// stored range. maxPoints <= 0 returns everything.
func (h *History) Get(address int, maxPoints int) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msgs := h.byAddr[address]
	if maxPoints <= 0 {
		maxPoints = len(msgs)
	}
	return Downsample(nil, msgs, maxPoints)
}

// Downsample picks maxPoints evenly spaced elements of src, starting with the
// oldest, into dst. dst is reused when large enough.
func Downsample[T any](dst []T, src []T, maxPoints int) []T {
	n := max(0, min(len(src), maxPoints))
	if cap(dst) < n {
		dst = make([]T, 0, n)
	}
	dst = dst[:0]
	if n == len(src) {
		return append(dst, src...)
	}
	for i := 0; i < n; i++ {
		dst = append(dst, src[i*len(src)/n])
	}
	return dst
}
