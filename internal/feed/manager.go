package feed

import (
	"context"
	"log/slog"
	"sync"
)

// PartitionTokens splits tokens into contiguous shards. The shard count is
// ceil(len(tokens)/perConn) capped at maxConns; shard sizes differ by at
// most one. With more tokens than maxConns*perConn can hold, shards exceed
// perConn rather than dropping tokens.
func PartitionTokens(tokens []string, perConn, maxConns int) [][]string {
	if len(tokens) == 0 || perConn < 1 || maxConns < 1 {
		return nil
	}

	shards := (len(tokens) + perConn - 1) / perConn
	if shards > maxConns {
		shards = maxConns
	}

	base := len(tokens) / shards
	extra := len(tokens) % shards

	out := make([][]string, 0, shards)
	start := 0
	for i := 0; i < shards; i++ {
		size := base
		if i < extra {
			size++
		}
		out = append(out, tokens[start:start+size])
		start += size
	}
	return out
}

// Manager owns the set of stream connections for one token universe.
type Manager struct {
	cfg     ManagerConfig
	handler Handler
	logger  *slog.Logger

	mu     sync.Mutex
	conns  []*StreamConn
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a connection manager.
func NewManager(cfg ManagerConfig, handler Handler, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// Start partitions the tokens and launches one supervised connection per
// shard. It returns immediately; connections dial and reconnect on their
// own.
func (m *Manager) Start(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return ErrNoTokens
	}

	shards := PartitionTokens(tokens, m.cfg.TokensPerConnection, m.cfg.MaxConnections)

	runCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	m.conns = make([]*StreamConn, 0, len(shards))
	for i, shard := range shards {
		conn := NewStreamConn(ConnConfig{
			ID:                 i + 1,
			URL:                m.cfg.URL,
			Tokens:             shard,
			ReconnectBaseDelay: m.cfg.ReconnectBaseDelay,
			ReconnectMaxDelay:  m.cfg.ReconnectMaxDelay,
			ReadTimeout:        m.cfg.ReadTimeout,
			WriteTimeout:       m.cfg.WriteTimeout,
		}, m.handler, m.logger)
		m.conns = append(m.conns, conn)
	}
	conns := m.conns
	m.mu.Unlock()

	for _, conn := range conns {
		m.wg.Add(1)
		go func(c *StreamConn) {
			defer m.wg.Done()
			c.Run(runCtx)
		}(conn)
	}

	m.logger.Info("stream connections started",
		"connections", len(shards),
		"tokens", len(tokens),
	)

	return nil
}

// Stop closes all connections and waits for their supervisors to exit,
// bounded by ctx.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel := m.cancel
	conns := m.conns
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, conn := range conns {
		conn.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout waiting for stream connections")
	}

	m.logger.Info("stream connections stopped")
	return nil
}

// ConnectedCount returns the number of connections currently listening or
// connected.
func (m *Manager) ConnectedCount() int {
	m.mu.Lock()
	conns := m.conns
	m.mu.Unlock()

	n := 0
	for _, conn := range conns {
		switch conn.State() {
		case StateConnected, StateListening:
			n++
		}
	}
	return n
}

// Dropped sums undecodable frame and discarded event counts across all
// connections.
func (m *Manager) Dropped() (frames, events int64) {
	m.mu.Lock()
	conns := m.conns
	m.mu.Unlock()

	for _, conn := range conns {
		f, e := conn.Dropped()
		frames += f
		events += e
	}
	return frames, events
}
