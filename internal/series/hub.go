package series

import "barstream/internal/model"

// Hub owns one rolling buffer per instrument and interval, keyed by the
// bar's stream key so 1-minute and window series never mix. Single-goroutine
// use, like the buffers it holds.
type Hub struct {
	size    int
	buffers map[string]*Buffer
}

// NewHub creates a hub whose buffers have the given capacity
// (DefaultSize when <= 0).
func NewHub(size int) *Hub {
	return &Hub{size: size, buffers: make(map[string]*Buffer)}
}

// Update routes a bar into its instrument-and-interval buffer, creating the
// buffer on first use, and returns it after the update.
func (h *Hub) Update(bar *model.Bar) *Buffer {
	key := bar.StreamKey()
	buf := h.buffers[key]
	if buf == nil {
		buf = NewBuffer(h.size)
		h.buffers[key] = buf
	}
	buf.UpdateBar(bar)
	return buf
}

// Get returns the buffer for a stream key, or nil when no bar of that stream
// has been seen yet.
func (h *Hub) Get(key string) *Buffer { return h.buffers[key] }

// Len returns the number of live buffers.
func (h *Hub) Len() int { return len(h.buffers) }
