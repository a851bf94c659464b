package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"arb_go/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// BookSnapshot is the latest top-of-book seen on the WS feed.
type BookSnapshot struct {
	BidPrice decimal.Decimal
	BidQty   decimal.Decimal
	AskPrice decimal.Decimal
	AskQty   decimal.Decimal
	At       time.Time
}

// BookWorker maintains a websocket subscription to the venue's top-of-book
// channel and caches the latest snapshot for the connector to drain.
type BookWorker struct {
	wsURL  string
	symbol string
	logger *slog.Logger

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	pingDone  chan struct{} // closed with the connection it pings
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	snapMu  sync.RWMutex
	snap    BookSnapshot
	hasSnap bool
}

// NewBookWorker factory
func NewBookWorker(wsURL, symbol string, logger *slog.Logger) *BookWorker {
	return &BookWorker{
		wsURL:  wsURL,
		symbol: symbol,
		logger: logger,
	}
}

// Connect starts the connection loop in the background.
func (w *BookWorker) Connect(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
}

func (w *BookWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			w.logger.Warn("book feed connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0 // keep reconnecting, reset the delay curve
			}
			delay := infra.CalculateBackoff(retryCount)
			time.Sleep(delay)
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *BookWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.pingDone = done
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	go w.pingLoop(ctx, done)
	w.logger.Info("book feed connected")
	return nil
}

func (w *BookWorker) subscribe() error {
	req := subscribeRequest{
		Op:   "subscribe",
		Args: []subscribeArg{{Channel: "books1", InstID: w.symbol}},
	}
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return w.threadSafeWrite(websocket.TextMessage, b)
}

// pingLoop pings until the context is canceled or the connection it was
// started for is closed. Bound to one connection so reconnects never stack
// ping goroutines.
func (w *BookWorker) pingLoop(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			w.threadSafeWrite(websocket.TextMessage, []byte("ping"))
		}
	}
}

func (w *BookWorker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *BookWorker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		if w.conn == nil {
			w.mu.RUnlock()
			return
		}
		w.conn.SetReadDeadline(time.Now().Add(readTimeout))
		w.mu.RUnlock()

		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			w.closeConnection()
			return
		}
		if string(msg) == "pong" {
			continue
		}
		w.handleMessage(msg)
	}
}

func (w *BookWorker) handleMessage(msg []byte) {
	var resp bookMessage
	json.Unmarshal(msg, &resp)
	if resp.Arg.Channel != "books1" || len(resp.Data) == 0 {
		return
	}

	data := resp.Data[len(resp.Data)-1]
	if len(data.Bids) == 0 || len(data.Asks) == 0 {
		return
	}

	bidPrice, err1 := decimal.NewFromString(data.Bids[0][0])
	bidQty, err2 := decimal.NewFromString(data.Bids[0][1])
	askPrice, err3 := decimal.NewFromString(data.Asks[0][0])
	askQty, err4 := decimal.NewFromString(data.Asks[0][1])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return
	}
	// A zero-priced level is a venue glitch, not a market; caching it would
	// hand the connector a fresh timestamp on an unusable book.
	if !bidPrice.IsPositive() || !askPrice.IsPositive() {
		return
	}

	w.snapMu.Lock()
	w.snap = BookSnapshot{
		BidPrice: bidPrice,
		BidQty:   bidQty,
		AskPrice: askPrice,
		AskQty:   askQty,
		At:       time.UnixMilli(data.Ts),
	}
	w.hasSnap = true
	w.snapMu.Unlock()
}

// Snapshot returns the latest cached top-of-book, if any has arrived.
func (w *BookWorker) Snapshot() (BookSnapshot, bool) {
	w.snapMu.RLock()
	defer w.snapMu.RUnlock()
	return w.snap, w.hasSnap
}

func (w *BookWorker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	if w.pingDone != nil {
		close(w.pingDone)
		w.pingDone = nil
	}
	w.connected = false
}

// Disconnect stops the worker and closes the connection.
func (w *BookWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
