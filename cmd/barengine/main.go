// cmd/barengine ingests a live tick feed over WebSocket, builds 1-minute and
// window bars per instrument, and persists completed bars to SQLite and Redis.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"barstream/config"
	"barstream/internal/bargen"
	"barstream/internal/bus"
	"barstream/internal/feed/ws"
	"barstream/internal/logger"
	"barstream/internal/metrics"
	"barstream/internal/model"
	"barstream/internal/series"
	"barstream/internal/session"
	redisstore "barstream/internal/store/redis"
	sqlitestore "barstream/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	logger.Init("barengine", slog.LevelInfo)
	slog.Info("starting")

	cfg := config.Load()

	interval := model.Interval(cfg.BarInterval)
	if !interval.Valid() {
		log.Fatalf("[barengine] invalid BAR_INTERVAL %q", cfg.BarInterval)
	}

	var dailyEnd time.Duration
	if interval == model.IntervalDaily {
		var err error
		dailyEnd, err = session.ParseTimeOfDay(cfg.DailyEnd)
		if err != nil {
			log.Fatalf("[barengine] invalid DAILY_END: %v", err)
		}
	}

	// ---- Trading calendar (optional) ----
	var calendar *session.Calendar
	if cfg.SessionsFile != "" {
		sessCfg, err := config.LoadSessions(cfg.SessionsFile)
		if err != nil {
			log.Fatalf("[barengine] sessions: %v", err)
		}
		calendar, err = session.New(sessCfg)
		if err != nil {
			log.Fatalf("[barengine] sessions: %v", err)
		}
		slog.Info("trading calendar loaded", "sessions", len(calendar.Sessions()))
	}

	// ---- Per-concern file loggers ----
	os.MkdirAll(cfg.LogDir, 0o755)
	registry := logger.NewRegistry(cfg.LogDir, slog.LevelInfo)
	defer registry.Close()
	barLog, err := registry.File("bars")
	if err != nil {
		log.Fatalf("[barengine] logger: %v", err)
	}

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- SQLite writer (off hot path) ----
	os.MkdirAll("data", 0o755)
	sqlWriter, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[barengine] sqlite init failed: %v", err)
	}
	defer sqlWriter.Close()
	sqlWriter.OnCommit = func(d time.Duration) {
		prom.SQLiteCommitDur.Observe(d.Seconds())
	}
	health.SetSQLiteOK(true)

	// ---- Redis writer behind a circuit breaker ----
	var redisBuf *redisstore.BufferedWriter
	redisWriter, err := redisstore.New(redisstore.WriterConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[barengine] WARNING: redis init failed: %v (continuing without redis)", err)
		health.SetRedisConnected(false)
	} else {
		health.SetRedisConnected(true)
		redisWriter.OnWrite = func(d time.Duration) {
			prom.RedisWriteDur.Observe(d.Seconds())
		}

		cb := redisstore.NewCircuitBreaker(5, 10*time.Second)
		cb.OnStateChange = func(from, to redisstore.State) {
			prom.RedisCircuitBreakerState.Set(float64(to))
			if to == redisstore.StateOpen {
				prom.RedisCircuitBreakerTrips.Inc()
			}
			slog.Info("redis circuit breaker", "from", from.String(), "to", to.String())
		}
		redisBuf = redisstore.NewBufferedWriter(ctx, redisWriter, cb, 10000)
		redisBuf.OnBuffer = func() { prom.RedisBufferedWrites.Inc() }
	}

	// ---- Periodic liveness checks ----
	if redisWriter != nil {
		health.StartLivenessChecker(ctx, redisWriter.Client(), sqlWriter.DB(), 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, sqlWriter.DB(), 10*time.Second)
	}

	// ---- Fan-out completed bars to SQLite + Redis ----
	barCh := make(chan model.Bar, 5000)
	fanout := bus.New(5000)
	fanout.OnDrop = func(subscriberIdx int) {
		prom.FanoutDropsTotal.WithLabelValues(strconv.Itoa(subscriberIdx)).Inc()
	}

	sqliteBarCh := fanout.Subscribe()
	var redisBarCh <-chan model.Bar
	if redisBuf != nil {
		redisBarCh = fanout.Subscribe()
	}

	go fanout.Run(ctx, barCh)
	go sqlWriter.Run(ctx, sqliteBarCh)
	if redisBuf != nil {
		go redisBuf.Run(ctx, redisBarCh)
	}

	// ---- Bar generators, one per instrument ----
	// Both 1-minute and window bars feed the series hub, so indicators warm
	// up even when window aggregation is disabled.
	seriesHub := series.NewHub(cfg.SeriesSize)
	updateSeries := func(bar model.Bar) {
		buf := seriesHub.Update(&bar)
		if buf.Inited() {
			barLog.Info("series",
				"key", bar.Key(),
				"interval", string(bar.Interval),
				"sma10", series.Last(buf.Sma(10)),
				"rsi14", series.Last(buf.Rsi(14)),
				"atr14", series.Last(buf.Atr(14)))
		}
	}

	emitBar := func(bar model.Bar) {
		prom.BarsTotal.WithLabelValues(string(model.IntervalMinute)).Inc()
		prom.BarLag.Set(time.Since(bar.Timestamp).Seconds())
		barLog.Info("bar", "key", bar.Key(), "ts", bar.Timestamp, "close", bar.Close, "volume", bar.Volume)
		select {
		case barCh <- bar:
		default:
			log.Printf("[barengine] barCh full, dropping bar %s", bar.Key())
		}
		updateSeries(bar)
	}

	emitWindowBar := func(bar model.Bar) {
		prom.WindowBarsTotal.WithLabelValues(string(bar.Interval)).Inc()
		select {
		case barCh <- bar:
		default:
			log.Printf("[barengine] barCh full, dropping window bar %s", bar.Key())
		}
		updateSeries(bar)
	}

	generators := make(map[string]*bargen.Generator)
	generatorFor := func(key string) (*bargen.Generator, error) {
		if g, ok := generators[key]; ok {
			return g, nil
		}
		g, err := bargen.New(bargen.Config{
			OnBar:       emitBar,
			Window:      cfg.BarWindow,
			OnWindowBar: emitWindowBar,
			Interval:    interval,
			DailyEnd:    dailyEnd,
			Calendar:    calendar,
		})
		if err != nil {
			return nil, err
		}
		g.OnDrop = func(reason string) {
			prom.DroppedTicks.WithLabelValues(reason).Inc()
		}
		generators[key] = g
		return g, nil
	}

	// Tick intake gets its own context so shutdown can stop the feed first,
	// flush open bars, and only then tear down the writers.
	tickCtx, tickCancel := context.WithCancel(ctx)
	defer tickCancel()

	// ---- Tick loop (HOT PATH) ----
	tickCh := make(chan model.Tick, 10000)
	tickLoopDone := make(chan struct{})
	go func() {
		defer close(tickLoopDone)
		for {
			select {
			case <-tickCtx.Done():
				return
			case tick, ok := <-tickCh:
				if !ok {
					return
				}
				prom.TicksTotal.Inc()
				health.SetLastTickTime(time.Now())

				g, err := generatorFor(tick.Key())
				if err != nil {
					log.Printf("[barengine] generator init for %s: %v", tick.Key(), err)
					continue
				}
				g.UpdateTick(tick)
			}
		}
	}()

	// ---- WebSocket feed ----
	ingest, err := ws.New(ws.Config{
		URL:               cfg.FeedURL,
		ReconnectDelay:    2 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
	})
	if err != nil {
		log.Fatalf("[barengine] feed init failed: %v", err)
	}
	ingest.OnReconnect = func() { prom.WSReconnects.Inc() }
	ingest.OnConnect = health.SetWSConnected

	go func() {
		if err := ingest.Start(tickCtx, tickCh); err != nil {
			log.Printf("[barengine] feed error: %v", err)
			health.SetWSConnected(false)
		}
	}()

	slog.Info("pipeline ready",
		"feed", cfg.FeedURL,
		"interval", cfg.BarInterval,
		"window", cfg.BarWindow,
		"redis", redisWriter != nil)

	// ---- Wait for shutdown signal ----
	<-sigCh
	slog.Info("shutdown signal received, flushing open bars")

	// Stop the feed and the tick loop, then force-close any open bars so the
	// last partial minute is persisted. Generate delivers through OnBar.
	tickCancel()
	<-tickLoopDone
	for _, g := range generators {
		g.Generate()
	}

	// Let the fan-out and writers drain before cancelling them.
	time.Sleep(500 * time.Millisecond)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)

	if redisWriter != nil {
		redisWriter.Close()
	}

	slog.Info("shutdown complete")
}
