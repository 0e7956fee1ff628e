package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamConn supervises one WebSocket connection: it dials, subscribes its
// token partition, pumps the read loop, and reconnects with doubling
// backoff until Close or context cancellation.
type StreamConn struct {
	cfg     ConnConfig
	handler Handler
	logger  *slog.Logger

	// Reconnect backoff, reset after each successful connect.
	backoff time.Duration

	mu     sync.RWMutex
	state  ConnState
	conn   *websocket.Conn
	closed bool

	// Frames the normalizer could not decode at all.
	framesDropped int64
	discarded     int64
}

// NewStreamConn creates a connection supervisor. It does not dial; call Run.
func NewStreamConn(cfg ConnConfig, handler Handler, logger *slog.Logger) *StreamConn {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamConn{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With("conn_id", cfg.ID),
		backoff: cfg.ReconnectBaseDelay,
		state:   StateDisconnected,
	}
}

// Run drives the connect/subscribe/listen cycle until ctx is cancelled or
// Close is called. Each disconnect is followed by a backoff wait and a
// fresh dial; Run only returns on shutdown.
func (c *StreamConn) Run(ctx context.Context) error {
	if len(c.cfg.Tokens) == 0 {
		return ErrNoTokens
	}

	for {
		if c.isClosed() {
			c.setState(StateClosed)
			return nil
		}
		select {
		case <-ctx.Done():
			c.setState(StateClosed)
			return ctx.Err()
		default:
		}

		if err := c.connectAndListen(ctx); err != nil {
			if c.isClosed() || ctx.Err() != nil {
				c.setState(StateClosed)
				return nil
			}

			wait := c.nextBackoff()
			c.logger.Warn("stream disconnected, reconnecting",
				"error", err,
				"backoff", wait,
			)

			select {
			case <-ctx.Done():
				c.setState(StateClosed)
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
}

// connectAndListen performs one full connection cycle.
func (c *StreamConn) connectAndListen(ctx context.Context) error {
	c.setState(StateConnecting)

	header := http.Header{}
	header.Set("Origin", "https://polymarket.com")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyClosed
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		if c.state != StateClosed && c.state != StateClosing {
			c.state = StateDisconnected
		}
		c.mu.Unlock()
		conn.Close()
	}()

	if err := c.subscribe(conn); err != nil {
		return err
	}
	c.resetBackoff()
	c.setState(StateListening)

	c.logger.Info("stream listening",
		"url", c.cfg.URL,
		"tokens", len(c.cfg.Tokens),
	)

	return c.readLoop(ctx, conn)
}

// subscribe sends the market channel subscription for this partition.
func (c *StreamConn) subscribe(conn *websocket.Conn) error {
	msg := subscribeMessage{
		Type:     "subscribe",
		Channel:  "market",
		AssetIDs: c.cfg.Tokens,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop reads frames until the connection drops. The receipt timestamp
// is captured immediately after the read returns, before any decoding.
func (c *StreamConn) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if c.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		}

		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()
		if err != nil {
			return err
		}

		res, err := Normalize(data, receivedAt)
		if err != nil {
			c.mu.Lock()
			c.framesDropped++
			c.mu.Unlock()
			c.logger.Debug("undecodable frame dropped", "error", err)
			continue
		}

		if res.Discarded > 0 {
			c.mu.Lock()
			c.discarded += int64(res.Discarded)
			c.mu.Unlock()
		}
		if len(res.Trades) > 0 {
			c.handler.OnTrades(res.Trades)
		}
		if len(res.Levels) > 0 {
			c.handler.OnLevels(res.Levels)
		}
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *StreamConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateClosing
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}
	return nil
}

// State returns the current connection state.
func (c *StreamConn) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Dropped returns the counts of undecodable frames and discarded events.
func (c *StreamConn) Dropped() (frames, events int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.framesDropped, c.discarded
}

func (c *StreamConn) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *StreamConn) setState(s ConnState) {
	c.mu.Lock()
	// Closing/Closed are terminal; a racing reconnect must not revive them.
	if c.state != StateClosed && c.state != StateClosing || s == StateClosed {
		c.state = s
	}
	c.mu.Unlock()
}

// nextBackoff returns the current reconnect delay and doubles it for the
// next attempt, capped at the configured maximum.
func (c *StreamConn) nextBackoff() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	wait := c.backoff
	if wait <= 0 {
		wait = time.Second
	}

	c.backoff = wait * 2
	if c.backoff > c.cfg.ReconnectMaxDelay {
		c.backoff = c.cfg.ReconnectMaxDelay
	}
	if wait > c.cfg.ReconnectMaxDelay {
		wait = c.cfg.ReconnectMaxDelay
	}
	return wait
}

func (c *StreamConn) resetBackoff() {
	c.mu.Lock()
	c.backoff = c.cfg.ReconnectBaseDelay
	c.mu.Unlock()
}
