// Command bbocheck fetches the live order book for a single token and
// prints its best bid/offer. Handy for spot-checking what the ingester
// should be seeing for an instrument.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bademirci/prediction-markets/internal/gamma"
)

func main() {
	token := flag.String("token", "", "CLOB token ID to inspect")
	bookURL := flag.String("book-url", "https://clob.polymarket.com", "CLOB API base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "usage: bbocheck -token <clob token id>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := gamma.NewClient("https://gamma-api.polymarket.com",
		gamma.WithBookURL(*bookURL),
		gamma.WithTimeout(*timeout),
	)

	book, err := client.Book(ctx, *token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch book: %v\n", err)
		os.Exit(1)
	}

	bid := book.BestBid()
	ask := book.BestAsk()

	fmt.Printf("token:  %s\n", *token)
	fmt.Printf("market: %s\n", book.Market)
	fmt.Printf("bids:   %d levels\n", len(book.Bids))
	fmt.Printf("asks:   %d levels\n", len(book.Asks))
	fmt.Printf("bbo:    %.4f / %.4f\n", bid, ask)
	if bid > 0 && ask > 0 {
		fmt.Printf("spread: %.4f\n", ask-bid)
	}
}
