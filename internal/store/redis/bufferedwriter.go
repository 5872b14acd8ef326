package redis

import (
	"context"
	"log"
	"sync"

	"barstream/internal/model"
)

// BufferedWriter wraps a Redis Writer with a circuit breaker.
// During circuit-open state, bars are buffered locally and flushed
// when the circuit closes again.
type BufferedWriter struct {
	writer *Writer
	cb     *CircuitBreaker
	ctx    context.Context

	mu     sync.Mutex
	buffer []model.Bar
	maxBuf int // max buffered bars before dropping oldest (default: 10000)

	// Callbacks
	OnBuffer func()          // called when a bar is buffered (for metrics)
	OnFlush  func(count int) // called after flushing buffered bars
}

// NewBufferedWriter creates a BufferedWriter wrapping the given Writer.
func NewBufferedWriter(ctx context.Context, w *Writer, cb *CircuitBreaker, maxBufferSize int) *BufferedWriter {
	if maxBufferSize <= 0 {
		maxBufferSize = 10000
	}
	bw := &BufferedWriter{
		writer: w,
		cb:     cb,
		ctx:    ctx,
		buffer: make([]model.Bar, 0, 256),
		maxBuf: maxBufferSize,
	}

	// Register flush on circuit close
	prevCallback := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prevCallback != nil {
			prevCallback(from, to)
		}
		if to == StateClosed {
			go bw.flush()
		}
	}

	return bw
}

// Run reads bars from barCh and writes them through the circuit breaker.
// Blocks until ctx is cancelled or barCh is closed.
func (bw *BufferedWriter) Run(ctx context.Context, barCh <-chan model.Bar) {
	for {
		select {
		case <-ctx.Done():
			return
		case bar, ok := <-barCh:
			if !ok {
				return
			}
			bw.WriteBar(bar)
		}
	}
}

// WriteBar writes a bar through the circuit breaker.
// If the circuit is open, the bar is buffered locally.
func (bw *BufferedWriter) WriteBar(bar model.Bar) error {
	err := bw.cb.Execute(func() error {
		bw.writer.writeBar(bw.ctx, bar)
		return nil // writeBar logs errors internally
	})
	if err == ErrCircuitOpen {
		bw.bufferBar(bar)
		return nil // buffered, not lost
	}
	return err
}

func (bw *BufferedWriter) bufferBar(bar model.Bar) {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if len(bw.buffer) >= bw.maxBuf {
		// Buffer full — drop oldest
		bw.buffer = bw.buffer[1:]
	}
	bw.buffer = append(bw.buffer, bar)

	if bw.OnBuffer != nil {
		bw.OnBuffer()
	}
}

// flush replays all buffered bars through the underlying writer.
func (bw *BufferedWriter) flush() {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return
	}
	// Take ownership of the buffer
	toFlush := bw.buffer
	bw.buffer = make([]model.Bar, 0, 256)
	bw.mu.Unlock()

	for _, bar := range toFlush {
		bw.writer.writeBar(bw.ctx, bar)
	}

	log.Printf("[buffered-writer] flushed %d buffered bars", len(toFlush))
	if bw.OnFlush != nil {
		bw.OnFlush(len(toFlush))
	}
}

// PendingCount returns the number of buffered bars waiting to be flushed.
func (bw *BufferedWriter) PendingCount() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}

// Underlying returns the wrapped Redis writer for direct access.
func (bw *BufferedWriter) Underlying() *Writer {
	return bw.writer
}
