// Package relay receives ledger events pushed over websocket by the event
// relay. The chain subscription only carries Cancels; new orders and
// trades observed by the relay arrive through this feed.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dexview/internal/domain"
	"dexview/internal/infra"
)

const (
	relayMaxRetries  = 10
	relayBaseDelay   = 1 * time.Second
	relayMaxDelay    = 60 * time.Second
	relayReadTimeout = 60 * time.Second
	handshakeTimeout = 10 * time.Second
)

// relayFrame is one websocket message from the relay.
type relayFrame struct {
	Type string          `json:"type"` // "event" frames carry a ledger event
	Data domain.RawEvent `json:"data"`
}

// Worker handles the relay WebSocket connection
type Worker struct {
	url       string
	channels  []string
	sink      chan<- domain.RawEvent
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a relay worker forwarding decoded events to sink.
// Channels name the event kinds to subscribe to (e.g. "orders", "trades").
func NewWorker(url string, channels []string, sink chan<- domain.RawEvent) *Worker {
	return &Worker{
		url:      url,
		channels: channels,
		sink:     sink,
	}
}

// Connect starts the WebSocket connection with automatic reconnection
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.connectionLoop(ctx)

	return nil
}

// connectionLoop handles connection and reconnection with exponential backoff
func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Relay panic recovered", slog.Any("panic", r))
		}
	}()

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("Relay connection loop stopped")
			return
		default:
		}

		err := w.connect(ctx)
		if err != nil {
			slog.Warn("Relay connection failed",
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

			delay := w.calculateBackoff(retryCount)
			retryCount++
			if retryCount > relayMaxRetries {
				slog.Error("Relay max retries exceeded, resetting counter")
				retryCount = 0
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		// Connection successful, reset retry counter
		retryCount = 0

		infra.GlobalMetrics.IncrementConnections()
		w.readLoop(ctx)
		infra.GlobalMetrics.DecrementConnections()
	}
}

// calculateBackoff returns the delay for the current retry attempt
func (w *Worker) calculateBackoff(retryCount int) time.Duration {
	delay := relayBaseDelay * time.Duration(math.Pow(2, float64(retryCount)))
	if delay > relayMaxDelay {
		delay = relayMaxDelay
	}
	return delay
}

// connect establishes the WebSocket connection and subscribes to channels
func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, w.url, http.Header{})
	if err != nil {
		return domain.NewTransportError("dial", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return domain.NewTransportError("subscribe", err)
	}

	slog.Info("Relay WebSocket connected",
		slog.String("url", w.url),
		slog.Int("channels", len(w.channels)),
	)

	return nil
}

// subscribe sends the subscription message for all channels
func (w *Worker) subscribe() error {
	subscribeMsg := map[string]interface{}{
		"type":     "subscribe",
		"ticket":   fmt.Sprintf("dexview-%d", time.Now().UnixNano()),
		"channels": w.channels,
	}

	msgBytes, err := json.Marshal(subscribeMsg)
	if err != nil {
		return err
	}

	return w.threadSafeWrite(websocket.TextMessage, msgBytes)
}

// threadSafeWrite sends a message to the WebSocket connection in a thread-safe manner
func (w *Worker) threadSafeWrite(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	return conn.WriteMessage(messageType, data)
}

// readLoop reads messages from the WebSocket until error
func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(relayReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Relay WebSocket read error", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}

		w.handleMessage(message)
	}
}

// handleMessage parses one frame and forwards the event to the sink.
// Frames that are not events (acks, heartbeats) are skipped; a malformed
// frame is logged and dropped rather than killing the connection.
func (w *Worker) handleMessage(message []byte) {
	var frame relayFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		slog.Debug("Relay message parse error", slog.Any("error", err))
		return
	}

	if frame.Type != "event" {
		return
	}

	switch frame.Data.Kind {
	case domain.KindOrder, domain.KindCancel, domain.KindTrade:
	default:
		infra.GlobalMetrics.RecordError()
		slog.Warn("Relay frame with unknown event kind",
			slog.String("kind", string(frame.Data.Kind)),
		)
		return
	}

	select {
	case w.sink <- frame.Data:
	default:
		slog.Warn("Relay sink full, dropping event",
			slog.String("kind", string(frame.Data.Kind)),
			slog.Uint64("id", frame.Data.ID),
		)
	}
}

// closeConnection safely closes the WebSocket connection
func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

// Disconnect closes the WebSocket connection
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
	slog.Info("Relay WebSocket disconnected")
}

// IsConnected returns connection status
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}
