package deepbook

import "fmt"

// Pool identifies a DeepBook trading pool and its base/quote assets.
type Pool struct {
	ID    string // on-chain pool object ID
	Base  string // base asset symbol
	Quote string // quote asset symbol
}

// Registry resolves trading pairs to pools. Lookup is symmetric: either
// asset may be supplied first.
type Registry struct {
	pools map[string]Pool
}

// DefaultPools are the testnet DeepBook pools the solver trades against.
var DefaultPools = []Pool{
	{ID: "0x0c0fdd4008740d81a8a7d4281322aee71a1b62c449eb5b142656753d89ebc060", Base: "SUI", Quote: "USDC"},
	{ID: "0x1170b057b1a044dc311f04c7e9f4bf99137e0dd9e4495226f5a77cbf40a2a49b", Base: "DEEP", Quote: "USDC"},
	{ID: "0x0a5e7e3c1a14664de54d7d39c8b2fa3f8f8c9c0c0d0e0f0a0b0c0d0e0f0a0b0c", Base: "WAL", Quote: "USDC"},
}

// NewRegistry creates a Registry from the given pools.
func NewRegistry(pools []Pool) *Registry {
	r := &Registry{pools: make(map[string]Pool, len(pools))}
	for _, p := range pools {
		r.pools[pairKey(p.Base, p.Quote)] = p
	}
	return r
}

// DefaultRegistry returns a Registry over DefaultPools.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultPools)
}

// Lookup resolves a token pair to its pool. Returns false if no pool
// serves the pair.
func (r *Registry) Lookup(tokenA, tokenB string) (Pool, bool) {
	if p, ok := r.pools[pairKey(tokenA, tokenB)]; ok {
		return p, true
	}
	p, ok := r.pools[pairKey(tokenB, tokenA)]
	return p, ok
}

func pairKey(base, quote string) string {
	return fmt.Sprintf("%s-%s", base, quote)
}
