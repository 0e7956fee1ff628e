package feed

import (
	"errors"
	"time"

	"github.com/bademirci/prediction-markets/internal/model"
)

// ConnState is the lifecycle state of a stream connection.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateListening
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handler receives normalized records from a connection's read loop.
// Calls are made from the connection goroutine; implementations must not
// block for long.
type Handler interface {
	OnTrades(trades []model.Trade)
	OnLevels(levels []model.BookLevel)
}

// ConnConfig holds settings for a single stream connection.
type ConnConfig struct {
	ID                 int
	URL                string
	Tokens             []string
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

// ManagerConfig holds settings for the connection manager.
type ManagerConfig struct {
	URL                 string
	TokensPerConnection int
	MaxConnections      int
	ReconnectBaseDelay  time.Duration
	ReconnectMaxDelay   time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
}

var (
	ErrAlreadyClosed = errors.New("connection already closed")
	ErrNoTokens      = errors.New("no tokens to subscribe")
)

// subscribeMessage is the wire format for a market channel subscription.
type subscribeMessage struct {
	Type     string   `json:"type"`
	Channel  string   `json:"channel"`
	AssetIDs []string `json:"assets_ids"`
}
