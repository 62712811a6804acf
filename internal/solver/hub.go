package solver

import (
	"sync"

	"sui-intent-solver/internal/observability"
)

// SettlementEvent is broadcast to every connected WebSocket client when an
// intent settles on-chain.
type SettlementEvent struct {
	Commitment string `json:"commitment"`
	TxDigest   string `json:"txDigest"`
}

// subscriberBuffer bounds each subscriber's event queue. A subscriber that
// falls this far behind loses events rather than stalling the sweep.
const subscriberBuffer = 16

// hub fans settlement events out to WebSocket sessions. Publish never
// blocks: a full subscriber buffer drops the event for that subscriber.
type hub struct {
	mu   sync.Mutex
	subs map[chan SettlementEvent]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan SettlementEvent]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel function must be
// called exactly once; it closes the channel.
func (h *hub) Subscribe() (<-chan SettlementEvent, func()) {
	ch := make(chan SettlementEvent, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber that has buffer room.
func (h *hub) Publish(ev SettlementEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
			observability.DefaultMetrics.BroadcastsSent.Inc()
		default:
			observability.DefaultMetrics.BroadcastsDropped.Inc()
		}
	}
}
