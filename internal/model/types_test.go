package model

import "testing"

func TestSideFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Side
	}{
		{"BUY", SideBuy},
		{"buy", SideBuy},
		{" Sell ", SideSell},
		{"SELL", SideSell},
		{"", SideUnknown},
		{"yes", SideUnknown},
		{"MAKER", SideUnknown},
	}

	for _, tt := range tests {
		if got := SideFromString(tt.in); got != tt.want {
			t.Errorf("SideFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTrade_LatencyMicros(t *testing.T) {
	tr := Trade{ExchangeTS: 1_700_000_000_000_000, LocalTS: 1_700_000_000_004_500}
	if got := tr.LatencyMicros(); got != 4500 {
		t.Errorf("LatencyMicros() = %d, want 4500", got)
	}

	// Clock skew: venue ahead of us. Reported as-is.
	tr = Trade{ExchangeTS: 1_700_000_000_000_000, LocalTS: 1_699_999_999_999_000}
	if got := tr.LatencyMicros(); got != -1000 {
		t.Errorf("LatencyMicros() = %d, want -1000", got)
	}
}

func TestBookLevel_Empty(t *testing.T) {
	px := 0.52
	sz := 100.0

	if !(BookLevel{Level: 1}).Empty() {
		t.Error("level with no data should be empty")
	}
	if (BookLevel{Level: 1, BidPx: &px, BidSz: &sz}).Empty() {
		t.Error("level with bid data should not be empty")
	}
	if (BookLevel{Level: 1, AskPx: &px}).Empty() {
		t.Error("level with only an ask price should not be empty")
	}
}
