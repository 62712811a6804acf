// Package deepbook fetches level-2 order book snapshots for DeepBook pools
// over the indexer's HTTP JSON-RPC endpoint.
package deepbook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/jsonrpc"
)

// Level-2 range bounds: the full book.
const (
	level2PriceLow  = 0
	level2PriceHigh = uint64(1) << 62
)

// Client fetches order books over HTTP JSON-RPC 2.0.
type Client struct {
	registry *Registry
	rpc      *jsonrpc.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		jsonrpc.WithTimeout(d)(c.rpc)
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		jsonrpc.WithMaxRetries(n)(c.rpc)
	}
}

// WithRegistry sets the pool registry. Defaults to DefaultRegistry.
func WithRegistry(r *Registry) ClientOption {
	return func(c *Client) {
		c.registry = r
	}
}

// NewClient creates a new DeepBook indexer client.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		registry: DefaultRegistry(),
		rpc:      jsonrpc.New(endpoint),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pool resolves a token pair to its pool via the client's registry.
func (c *Client) Pool(tokenA, tokenB string) (Pool, bool) {
	return c.registry.Lookup(tokenA, tokenB)
}

// level2Result is the indexer's level-2 range response: parallel arrays of
// price and quantity, best-first.
type level2Result struct {
	Prices     []json.Number `json:"prices"`
	Quantities []json.Number `json:"quantities"`
}

// GetOrderBook fetches a fresh level-2 snapshot for the pool serving the
// given pair. Bids arrive best-first (descending), asks best-first
// (ascending).
func (c *Client) GetOrderBook(ctx context.Context, tokenA, tokenB string) (*domain.OrderBook, error) {
	pool, ok := c.registry.Lookup(tokenA, tokenB)
	if !ok {
		return nil, fmt.Errorf("unknown trading pair: %s-%s", tokenA, tokenB)
	}

	var bidResult, askResult level2Result
	if err := c.rpc.Call(ctx, "deepbook_getLevel2Range",
		[]interface{}{pool.ID, level2PriceLow, level2PriceHigh, true}, &bidResult); err != nil {
		return nil, fmt.Errorf("fetch bids for pool %s: %w", pool.ID, err)
	}
	if err := c.rpc.Call(ctx, "deepbook_getLevel2Range",
		[]interface{}{pool.ID, level2PriceLow, level2PriceHigh, false}, &askResult); err != nil {
		return nil, fmt.Errorf("fetch asks for pool %s: %w", pool.ID, err)
	}

	bids, err := toLevels(bidResult)
	if err != nil {
		return nil, fmt.Errorf("parse bids: %w", err)
	}
	asks, err := toLevels(askResult)
	if err != nil {
		return nil, fmt.Errorf("parse asks: %w", err)
	}

	return &domain.OrderBook{
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

func toLevels(res level2Result) ([]domain.OrderBookLevel, error) {
	if len(res.Prices) != len(res.Quantities) {
		return nil, fmt.Errorf("price/quantity length mismatch: %d vs %d", len(res.Prices), len(res.Quantities))
	}
	levels := make([]domain.OrderBookLevel, 0, len(res.Prices))
	for i := range res.Prices {
		levels = append(levels, domain.OrderBookLevel{
			Price:    res.Prices[i].String(),
			Quantity: res.Quantities[i].String(),
		})
	}
	return levels, nil
}
