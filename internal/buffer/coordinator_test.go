package buffer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bademirci/prediction-markets/internal/model"
)

type fakeSink struct {
	mu      sync.Mutex
	trades  []model.Trade
	levels  []model.BookLevel
	markets []model.Market
	fail    bool
}

func (s *fakeSink) InsertTrades(_ context.Context, trades []model.Trade) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("sink unavailable")
	}
	s.trades = append(s.trades, trades...)
	return len(trades), nil
}

func (s *fakeSink) InsertBookLevels(_ context.Context, levels []model.BookLevel) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("sink unavailable")
	}
	s.levels = append(s.levels, levels...)
	return len(levels), nil
}

func (s *fakeSink) UpsertMarkets(_ context.Context, markets []model.Market) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("sink unavailable")
	}
	s.markets = append(s.markets, markets...)
	return len(markets), nil
}

func someTrade(id string) model.Trade {
	return model.Trade{TradeID: id, Price: 0.5, Size: 1}
}

func TestFlush_WritesAndClears(t *testing.T) {
	sink := &fakeSink{}
	c := NewCoordinator(sink, nil)

	c.AddTrades([]model.Trade{someTrade("a"), someTrade("b")})
	if got := c.Pending(KindTrades); got != 2 {
		t.Errorf("Pending = %d, want 2", got)
	}

	n, err := c.Flush(context.Background(), KindTrades)
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Flush() = %d, want 2", n)
	}
	if got := c.Pending(KindTrades); got != 0 {
		t.Errorf("Pending after flush = %d, want 0", got)
	}
	if len(sink.trades) != 2 {
		t.Errorf("sink received %d trades, want 2", len(sink.trades))
	}
}

func TestFlush_EmptyIsNoop(t *testing.T) {
	sink := &fakeSink{fail: true} // Would error if called.
	c := NewCoordinator(sink, nil)

	n, err := c.Flush(context.Background(), KindTrades)
	if err != nil {
		t.Errorf("empty Flush() error = %v", err)
	}
	if n != 0 {
		t.Errorf("empty Flush() = %d, want 0", n)
	}
}

func TestFlush_FailureDropsOnlyThatBatch(t *testing.T) {
	sink := &fakeSink{fail: true}
	c := NewCoordinator(sink, nil)

	c.AddTrades([]model.Trade{someTrade("lost")})
	if _, err := c.Flush(context.Background(), KindTrades); err == nil {
		t.Fatal("Flush() = nil error, want sink failure")
	}

	// The failed batch is gone; new records flush cleanly.
	sink.fail = false
	c.AddTrades([]model.Trade{someTrade("kept")})

	n, err := c.Flush(context.Background(), KindTrades)
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Flush() = %d, want 1", n)
	}
	if len(sink.trades) != 1 || sink.trades[0].TradeID != "kept" {
		t.Errorf("sink trades = %+v, want only the post-failure record", sink.trades)
	}
}

func TestAddLevels_FiltersEmpty(t *testing.T) {
	px := 0.4
	c := NewCoordinator(&fakeSink{}, nil)

	c.AddLevels([]model.BookLevel{
		{Level: 1, BidPx: &px},
		{Level: 2}, // no data on either side
	})

	if got := c.Pending(KindBookLevels); got != 1 {
		t.Errorf("Pending = %d, want 1 (empty level filtered)", got)
	}
}

func TestFlushAll(t *testing.T) {
	px := 0.4
	sink := &fakeSink{}
	c := NewCoordinator(sink, nil)

	c.AddTrades([]model.Trade{someTrade("a")})
	c.AddLevels([]model.BookLevel{{Level: 1, BidPx: &px}})
	c.AddMarkets([]model.Market{{MarketID: "1", ConditionID: "0x1"}})

	n, err := c.FlushAll(context.Background())
	if err != nil {
		t.Fatalf("FlushAll() error = %v", err)
	}
	if n != 3 {
		t.Errorf("FlushAll() = %d, want 3", n)
	}
	for _, kind := range Kinds {
		if got := c.Pending(kind); got != 0 {
			t.Errorf("Pending(%s) = %d, want 0", kind, got)
		}
	}
}

// Interleaved adds and flushes must neither lose nor duplicate records.
func TestConcurrentAddFlush_Lossless(t *testing.T) {
	sink := &fakeSink{}
	c := NewCoordinator(sink, nil)

	const writers = 4
	const perWriter = 500

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				c.AddTrades([]model.Trade{someTrade("t")})
			}
		}()
	}

	flushed := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		n, err := c.Flush(context.Background(), KindTrades)
		if err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
		flushed += n

		select {
		case <-done:
			n, _ := c.Flush(context.Background(), KindTrades)
			flushed += n
			if flushed != writers*perWriter {
				t.Errorf("flushed = %d, want %d", flushed, writers*perWriter)
			}
			return
		default:
		}
	}
}

func TestFlush_UnknownKind(t *testing.T) {
	c := NewCoordinator(&fakeSink{}, nil)
	if _, err := c.Flush(context.Background(), "bogus"); err == nil {
		t.Error("Flush(bogus) = nil error, want failure")
	}
}
