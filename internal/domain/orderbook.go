package domain

// OrderBookLevel is a single price level on one side of the book.
// Price and Quantity are base-unit decimal strings as returned by the venue.
type OrderBookLevel struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// OrderBook is a volatile snapshot of a pool's level-2 book. Bids are
// ordered best-first (highest price descending), asks best-first (lowest
// price ascending). Snapshots are never persisted.
type OrderBook struct {
	Bids      []OrderBookLevel `json:"bids"`
	Asks      []OrderBookLevel `json:"asks"`
	Timestamp int64            `json:"timestamp"` // snapshot time, unix ms
}
