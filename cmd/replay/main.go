// cmd/replay rebuilds window bars and indicator series from stored 1-minute
// bars, to validate aggregation and warm up series without live market data.
//
// Usage:
//
//	go run ./cmd/replay --exchange=SHFE --symbol=rb2301 --window=5 --speed=0
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"barstream/internal/bargen"
	"barstream/internal/feed/replay"
	"barstream/internal/model"
	"barstream/internal/series"
	"barstream/internal/session"
	sqlitestore "barstream/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	// Flags
	exchange := flag.String("exchange", "SHFE", "Exchange code")
	symbol := flag.String("symbol", "", "Instrument symbol (required)")
	window := flag.Int("window", 5, "Base intervals per window bar")
	intervalStr := flag.String("interval", "1m", "Window interval: 1m, 1h or d")
	dailyEndStr := flag.String("daily-end", "15:00", "Session close for daily bars")
	speed := flag.Float64("speed", 0, "Playback speed multiplier (0=max, 1=realtime)")
	fromTS := flag.Int64("from", 0, "Unix timestamp to start replay from (0=all)")
	dbPath := flag.String("db", "data/bars.db", "Path to SQLite database")
	seriesSize := flag.Int("series", 100, "Rolling series capacity")
	flag.Parse()

	if *symbol == "" {
		log.Fatal("[replay] --symbol is required")
	}

	interval := model.Interval(*intervalStr)
	if !interval.Valid() {
		log.Fatalf("[replay] invalid interval %q", *intervalStr)
	}
	dailyEnd, _ := session.ParseTimeOfDay(*dailyEndStr)

	// Open SQLite
	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[replay] sqlite open failed: %v", err)
	}
	defer reader.Close()

	// Window aggregation over replayed bars
	buf := series.NewBuffer(*seriesSize)
	windowBars := 0
	var printer model.BarSink = model.BarSinkFunc(func(bar model.Bar) {
		windowBars++
		buf.UpdateBar(&bar)
		if windowBars <= 10 || windowBars%50 == 0 {
			line := fmt.Sprintf("  [%s] %s O=%.2f H=%.2f L=%.2f C=%.2f V=%.0f",
				bar.Timestamp.Format("2006-01-02 15:04"), bar.Interval,
				bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
			if buf.Inited() {
				line += fmt.Sprintf("  sma10=%.2f rsi14=%.2f",
					series.Last(buf.Sma(10)), series.Last(buf.Rsi(14)))
			}
			fmt.Println(line)
		}
	})
	gen, err := bargen.New(bargen.Config{
		OnBar:       func(model.Bar) {},
		OnWindowBar: printer.OnBar,
		Window:      *window,
		Interval:    interval,
		DailyEnd:    dailyEnd,
	})
	if err != nil {
		log.Fatalf("[replay] generator init failed: %v", err)
	}

	// Setup context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Replay in background
	replayer := replay.New(reader)
	barCh := make(chan model.Bar, 10000)
	go func() {
		if err := replayer.Run(ctx, *exchange, *symbol, *fromTS, *speed, barCh); err != nil {
			log.Printf("[replay] error: %v", err)
		}
		close(barCh)
	}()

	processed := 0
	for bar := range barCh {
		gen.UpdateBar(bar)
		processed++
	}

	fmt.Println()
	fmt.Printf("replay complete: %d bars in, %d window bars out, series inited=%v\n",
		processed, windowBars, buf.Inited())
}
