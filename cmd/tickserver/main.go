// cmd/tickserver — Demo WebSocket tick server.
// Broadcasts simulated tick data for testing barengine without a real feed.
//
// Tick JSON shape is identical to model.Tick:
//
//	{"symbol":"rb2301","exchange":"SHFE","last_price":4017.0,"volume":123456,"ts":"..."}
//
// Volume and turnover are cumulative for the run, matching a real session feed.
//
// Config (env vars):
//
//	TICK_SERVER_ADDR  — listen address  (default: ":9001")
//	TICK_SYMBOLS      — comma-separated SYMBOL:EXCHANGE pairs (default: "rb2301:SHFE")
//	TICK_INTERVAL_MS  — broadcast interval milliseconds (default: "500")
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"barstream/internal/mathutil"
	"barstream/internal/model"

	"github.com/gorilla/websocket"
)

// instrument holds per-symbol simulation state.
type instrument struct {
	Symbol    string
	Exchange  string
	Price     float64
	PriceTick float64 // minimum price increment, prices snap to it
	Open      float64
	High      float64
	Low       float64
	Volume    float64 // cumulative
	Turnover  float64 // cumulative
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client — drop tick
		}
	}
}

// ─── WebSocket handler ────────────────────────────────────────────────────────

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[tickserver] upgrade error: %v", err)
			return
		}
		log.Printf("[tickserver] client connected: %s", r.RemoteAddr)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[tickserver] client disconnected: %s", r.RemoteAddr)
		}()

		// Write pump: sends tick JSON to this client.
		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// ─── Tick generator ──────────────────────────────────────────────────────────

// step applies one simulated trade to the instrument: a tiny random walk
// (±0.1%) plus a cumulative volume/turnover advance.
func (ins *instrument) step(rng *rand.Rand) model.Tick {
	pct := (rng.Float64()*0.2 - 0.1) / 100.0
	ins.Price = mathutil.RoundTo(ins.Price+ins.Price*pct, ins.PriceTick)
	if ins.Price < 1 {
		ins.Price = 1
	}
	if ins.Price > ins.High {
		ins.High = ins.Price
	}
	if ins.Price < ins.Low {
		ins.Low = ins.Price
	}

	qty := float64(rng.Intn(100) + 1)
	ins.Volume += qty
	ins.Turnover += qty * ins.Price

	tick := model.Tick{
		Symbol:     ins.Symbol,
		Exchange:   ins.Exchange,
		Timestamp:  time.Now().UTC(),
		LastPrice:  ins.Price,
		LastVolume: qty,
		Volume:     ins.Volume,
		Turnover:   ins.Turnover,
		Open:       ins.Open,
		High:       ins.High,
		Low:        ins.Low,
	}
	// Synthetic 5-level book around the last price.
	for lvl := 0; lvl < model.DepthLevels; lvl++ {
		spread := ins.Price*0.0001*float64(lvl) + ins.PriceTick
		tick.BidPrice[lvl] = mathutil.FloorTo(ins.Price-spread, ins.PriceTick)
		tick.AskPrice[lvl] = mathutil.CeilTo(ins.Price+spread, ins.PriceTick)
		tick.BidVolume[lvl] = float64(rng.Intn(500) + 1)
		tick.AskVolume[lvl] = float64(rng.Intn(500) + 1)
	}
	return tick
}

func runGenerator(h *hub, instruments []instrument, intervalMs int) {
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for range ticker.C {
		for i := range instruments {
			tick := instruments[i].step(rng)
			b, err := json.Marshal(&tick)
			if err != nil {
				continue
			}
			h.broadcast(b)
		}
	}
}

// ─── main ─────────────────────────────────────────────────────────────────────

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[tickserver] starting demo tick server...")

	addr := envOrDefault("TICK_SERVER_ADDR", ":9001")
	symbolsEnv := envOrDefault("TICK_SYMBOLS", "rb2301:SHFE")
	intervalMs := envIntOrDefault("TICK_INTERVAL_MS", 500)

	instruments := parseInstruments(symbolsEnv)
	if len(instruments) == 0 {
		log.Fatalf("[tickserver] no instruments configured via TICK_SYMBOLS")
	}
	log.Printf("[tickserver] instruments: %+v", instruments)
	log.Printf("[tickserver] broadcast interval: %dms", intervalMs)

	h := newHub()

	go runGenerator(h, instruments, intervalMs)

	http.HandleFunc("/ws", wsHandler(h))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"tickserver"}`)
	})

	log.Printf("[tickserver] listening on %s  (WebSocket: ws://localhost%s/ws)", addr, addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("[tickserver] server error: %v", err)
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func parseInstruments(s string) []instrument {
	// Default starting prices and price ticks
	defaultPrices := map[string]float64{
		"rb2301": 4017.0,
		"IF2306": 3850.6,
		"cu2305": 68210.0,
	}
	defaultTicks := map[string]float64{
		"rb2301": 1.0,
		"IF2306": 0.2,
		"cu2305": 10.0,
	}

	var result []instrument
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		seg := strings.SplitN(part, ":", 2)
		if len(seg) != 2 {
			log.Printf("[tickserver] skipping invalid symbol spec: %q", part)
			continue
		}
		symbol, exchange := strings.TrimSpace(seg[0]), strings.TrimSpace(seg[1])
		price := defaultPrices[symbol]
		if price == 0 {
			price = 1000.0
		}
		priceTick := defaultTicks[symbol]
		if priceTick == 0 {
			priceTick = 0.01
		}
		result = append(result, instrument{
			Symbol:    symbol,
			Exchange:  exchange,
			Price:     price,
			PriceTick: priceTick,
			Open:      price,
			High:      price,
			Low:       price,
		})
	}
	return result
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
