package feed

import (
	"strconv"
	"testing"
)

func makeTokens(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "tok" + strconv.Itoa(i)
	}
	return out
}

func TestPartitionTokens_Basic(t *testing.T) {
	shards := PartitionTokens(makeTokens(25), 10, 5)

	if len(shards) != 3 {
		t.Fatalf("shards = %d, want 3", len(shards))
	}

	// Sizes differ by at most one and cover every token exactly once.
	total := 0
	for i, s := range shards {
		total += len(s)
		if len(s) < 8 || len(s) > 9 {
			t.Errorf("shard %d size = %d, want 8 or 9", i, len(s))
		}
	}
	if total != 25 {
		t.Errorf("total tokens = %d, want 25", total)
	}
}

func TestPartitionTokens_CapAtMaxConnections(t *testing.T) {
	// 250k tokens at 1000/conn would want 250 shards; capped at 10 the
	// shards grow to 25k each instead of dropping tokens.
	shards := PartitionTokens(makeTokens(250_000), 1000, 10)

	if len(shards) != 10 {
		t.Fatalf("shards = %d, want 10", len(shards))
	}
	for i, s := range shards {
		if len(s) != 25_000 {
			t.Errorf("shard %d size = %d, want 25000", i, len(s))
		}
	}
}

func TestPartitionTokens_FewerTokensThanPerConn(t *testing.T) {
	shards := PartitionTokens(makeTokens(7), 1000, 10)
	if len(shards) != 1 {
		t.Fatalf("shards = %d, want 1", len(shards))
	}
	if len(shards[0]) != 7 {
		t.Errorf("shard size = %d, want 7", len(shards[0]))
	}
}

func TestPartitionTokens_NoDuplicatesAcrossShards(t *testing.T) {
	tokens := makeTokens(101)
	shards := PartitionTokens(tokens, 10, 20)

	seen := make(map[string]int)
	for _, s := range shards {
		for _, tok := range s {
			seen[tok]++
		}
	}
	if len(seen) != 101 {
		t.Errorf("unique tokens = %d, want 101", len(seen))
	}
	for tok, n := range seen {
		if n != 1 {
			t.Errorf("token %s appears %d times", tok, n)
		}
	}
}

func TestPartitionTokens_Empty(t *testing.T) {
	if got := PartitionTokens(nil, 10, 10); got != nil {
		t.Errorf("PartitionTokens(nil) = %v, want nil", got)
	}
}
