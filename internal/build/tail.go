package build

import "sync"

// tailBuffer keeps the last limit bytes written to it. It is safe for
// concurrent writers.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
	drop  bool
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.drop = true
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drop {
		return "..." + string(t.buf)
	}
	return string(t.buf)
}
