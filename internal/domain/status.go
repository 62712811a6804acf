package domain

// IntentStatus is the engine-side lifecycle state of an intent, keyed by
// commitment. Received and Pending are transient; the rest are terminal.
type IntentStatus string

const (
	IntentStatusReceived IntentStatus = "received"
	IntentStatusPending  IntentStatus = "pending"
	IntentStatusSettled  IntentStatus = "settled"
	IntentStatusDropped  IntentStatus = "dropped"
	IntentStatusExpired  IntentStatus = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s IntentStatus) Terminal() bool {
	switch s {
	case IntentStatusSettled, IntentStatusDropped, IntentStatusExpired:
		return true
	}
	return false
}

// On-chain intent registry status codes, as returned by the read-only
// get_intent inspection. ChainStatusUnknown is the sentinel for a failed or
// empty read.
const (
	ChainStatusPending   = 0
	ChainStatusMatched   = 1
	ChainStatusSettled   = 2
	ChainStatusCancelled = 3
	ChainStatusExpired   = 4
	ChainStatusUnknown   = -1
)
