package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"barstream/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: ~8 trading days of 1m bars + buffer
	streamMaxLen     = 3000
	defaultLatestTTL = 24 * time.Hour
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Writer publishes completed bars to Redis: a capped stream for recent
// history, a latest-value key, and a pubsub channel for live subscribers.
type Writer struct {
	client *goredis.Client

	// OnWrite, when set, receives the pipeline latency of each write.
	OnWrite func(d time.Duration)
}

var _ model.BarWriter = (*Writer)(nil)

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client}, nil
}

// Run reads bars from barCh and writes them to Redis.
// Blocks until ctx is cancelled or barCh is closed.
func (w *Writer) Run(ctx context.Context, barCh <-chan model.Bar) {
	for {
		select {
		case <-ctx.Done():
			return
		case bar, ok := <-barCh:
			if !ok {
				return
			}
			w.writeBar(ctx, bar)
		}
	}
}

// writeBar performs pipelined writes for one completed bar.
func (w *Writer) writeBar(ctx context.Context, bar model.Bar) {
	streamKey := bar.StreamKey()
	latestKey := fmt.Sprintf("bar:%s:latest:%s:%s", bar.Interval, bar.Exchange, bar.Symbol)
	pubsubCh := fmt.Sprintf("pub:bar:%s:%s:%s", bar.Interval, bar.Exchange, bar.Symbol)
	jsonData := string(bar.JSON())

	start := time.Now()
	pipe := w.client.Pipeline()

	// SET latest bar with TTL
	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)

	// XADD to stream with auto-trimming
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": jsonData,
		},
	})

	// PUBLISH to pubsub channel
	pipe.Publish(ctx, pubsubCh, jsonData)

	_, err := pipe.Exec(ctx)
	if err != nil {
		log.Printf("[redis] pipeline error for %s: %v", bar.Key(), err)
		return
	}
	if w.OnWrite != nil {
		w.OnWrite(time.Since(start))
	}
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
