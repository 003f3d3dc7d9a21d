package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is an in-memory Counter for tests and for running
// without Redis. Windowing works the same way as the Redis counter:
// counts are keyed by identity and current window.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
	mode   Mode
	now    func() time.Time
}

// NewMemoryCounter returns an empty in-memory counter.
func NewMemoryCounter(limit int, mode Mode) *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int), limit: limit, mode: mode, now: time.Now}
}

func (c *MemoryCounter) Check(_ context.Context, identity string) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, windowEnd := windowKey(identity, c.mode, c.now())
	used := c.counts[key]

	st := Status{
		LimitReached: used >= c.limit,
		Remaining:    c.limit - used,
		Used:         used,
		Limit:        c.limit,
		Mode:         c.mode,
	}
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if !windowEnd.IsZero() {
		st.ResetsAt = &windowEnd
	}
	return st, nil
}

func (c *MemoryCounter) Increment(_ context.Context, identity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, _ := windowKey(identity, c.mode, c.now())
	c.counts[key]++
	return nil
}

var _ Counter = (*MemoryCounter)(nil)
