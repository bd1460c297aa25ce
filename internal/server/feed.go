package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/adverant/nexus/boll-capture-worker/internal/logging"
	"github.com/adverant/nexus/boll-capture-worker/internal/processor"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10

	// events queued per client before new ones are dropped
	sendQueueSize = 16
)

// Feed streams readings to websocket clients and serves the latest one
// over HTTP.
type Feed struct {
	upgrader websocket.Upgrader
	clients  map[*feedClient]struct{}
	mu       sync.Mutex
	latest   *processor.ReadingEvent
	logger   *logging.Logger
}

// feedClient owns one connection; only its writer goroutine writes to conn.
type feedClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue never blocks; a client that is not keeping up misses the event
func (c *feedClient) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*feedClient]struct{}),
		logger:  logging.NewLogger("feed"),
	}
}

// Handler exposes /ws, /latest and /healthz
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", f.handleWS)
	mux.HandleFunc("/latest", f.handleLatest)
	mux.HandleFunc("/healthz", f.handleHealth)
	return mux
}

// Run serves the feed on addr until ctx is cancelled
func (f *Feed) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           f.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		f.closeAll()
	}()

	f.logger.Info("Live feed listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Name identifies the sink in logs
func (f *Feed) Name() string {
	return "feed"
}

// Publish records event as the latest reading and queues it for every
// client. It does not wait for any client to receive it.
func (f *Feed) Publish(_ context.Context, event *processor.ReadingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	dropped := 0
	f.mu.Lock()
	f.latest = event
	for c := range f.clients {
		if !c.enqueue(payload) {
			dropped++
		}
	}
	f.mu.Unlock()

	if dropped > 0 {
		f.logger.Debug("Feed clients lagging, event dropped", "cycle_id", event.CycleID, "clients", dropped)
	}
	return nil
}

func (f *Feed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &feedClient{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}

	f.mu.Lock()
	f.clients[c] = struct{}{}
	if f.latest != nil {
		if payload, err := json.Marshal(f.latest); err == nil {
			c.enqueue(payload)
		}
	}
	f.mu.Unlock()

	f.logger.Debug("Feed client connected", "remote", r.RemoteAddr, "clients", f.clientCount())

	go f.writePump(c)

	go func() {
		defer f.removeClient(c)
		// Client messages are ignored; reading keeps pong handling alive.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (f *Feed) writePump(c *feedClient) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	defer f.removeClient(c)

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := writeMessage(c.conn, websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := writeMessage(c.conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *Feed) handleLatest(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	latest := f.latest
	f.mu.Unlock()

	if latest == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(latest)
}

func (f *Feed) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (f *Feed) removeClient(c *feedClient) {
	f.mu.Lock()
	delete(f.clients, c)
	f.mu.Unlock()
	c.close()
}

func (f *Feed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		c.close()
		delete(f.clients, c)
	}
}

func (f *Feed) clientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func writeMessage(conn *websocket.Conn, messageType int, payload []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}
