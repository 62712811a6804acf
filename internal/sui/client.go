// Package sui is a narrow ledger client: it can sign and submit a single
// structured move call and run a read-only inspection of one. Everything
// else about the chain is out of scope for the solver.
package sui

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mr-tron/base58"

	"sui-intent-solver/internal/jsonrpc"
)

// MoveCall is a single on-chain function invocation.
type MoveCall struct {
	Target    string    `json:"target"` // package::module::function
	Arguments []CallArg `json:"arguments"`
}

// CallArg is one move-call argument: an owned/shared object reference or a
// pure value. Exactly one field is set.
type CallArg struct {
	Object    string `json:"object,omitempty"`
	PureBytes []byte `json:"pureBytes,omitempty"`
	PureU64   string `json:"pureU64,omitempty"` // decimal string, avoids JSON number precision
}

// ObjectArg references an on-chain object by ID.
func ObjectArg(id string) CallArg {
	return CallArg{Object: id}
}

// PureBytesArg passes a vector<u8> value.
func PureBytesArg(b []byte) CallArg {
	return CallArg{PureBytes: b}
}

// PureU64Arg passes a u64 value.
func PureU64Arg(v uint64) CallArg {
	return CallArg{PureU64: fmt.Sprintf("%d", v)}
}

// TxResult is the outcome of an executed transaction.
type TxResult struct {
	Digest string // base58 transaction digest
	Status string // "success" or "failure"
	Error  string // chain error detail, failure only
}

// InspectResult carries the raw return values of a dev-inspect call.
type InspectResult struct {
	ReturnValues [][]byte
}

// Ledger is the solver's view of the chain.
type Ledger interface {
	// ExecuteCall signs and submits a move call, waiting for the execution
	// result.
	ExecuteCall(ctx context.Context, call MoveCall) (*TxResult, error)

	// DevInspect runs a read-only simulation of a move call.
	DevInspect(ctx context.Context, call MoveCall) (*InspectResult, error)

	// Address returns the signer's ledger address.
	Address() string
}

// Client implements Ledger over HTTP JSON-RPC 2.0.
type Client struct {
	keypair *Keypair
	rpc     *jsonrpc.Client
}

// Compile-time interface check.
var _ Ledger = (*Client)(nil)

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

// NewClient creates a ledger client signing with the given keypair.
func NewClient(endpoint string, keypair *Keypair, opts ...ClientOption) *Client {
	c := &Client{
		keypair: keypair,
		rpc:     jsonrpc.New(endpoint),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Address returns the signer's ledger address.
func (c *Client) Address() string {
	return c.keypair.Address()
}

// signedTx is the wire form of a signed transaction.
type signedTx struct {
	Sender    string   `json:"sender"`
	Call      MoveCall `json:"call"`
	Signature string   `json:"signature"` // hex over the canonical tx payload
}

// executeResult mirrors the node's transaction execution response.
type executeResult struct {
	Digest  string `json:"digest"`
	Effects struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
	} `json:"effects"`
}

// ExecuteCall signs and submits a move call and waits for its effects.
func (c *Client) ExecuteCall(ctx context.Context, call MoveCall) (*TxResult, error) {
	payload, err := json.Marshal(struct {
		Sender string   `json:"sender"`
		Call   MoveCall `json:"call"`
	}{Sender: c.keypair.Address(), Call: call})
	if err != nil {
		return nil, fmt.Errorf("marshal tx payload: %w", err)
	}

	tx := signedTx{
		Sender:    c.keypair.Address(),
		Call:      call,
		Signature: hex.EncodeToString(c.keypair.Sign(payload)),
	}

	var result executeResult
	if err := c.rpc.Call(ctx, "sui_executeTransactionBlock", []interface{}{tx, map[string]bool{
		"showEffects": true,
		"showEvents":  true,
	}}, &result); err != nil {
		return nil, err
	}

	if result.Digest != "" {
		if _, err := base58.Decode(result.Digest); err != nil {
			return nil, fmt.Errorf("node returned malformed digest %q: %w", result.Digest, err)
		}
	}

	return &TxResult{
		Digest: result.Digest,
		Status: result.Effects.Status.Status,
		Error:  result.Effects.Status.Error,
	}, nil
}

// inspectResult mirrors the node's dev-inspect response. Each return value
// is a [bytes, type] pair.
type inspectResult struct {
	Results []struct {
		ReturnValues []json.RawMessage `json:"returnValues"`
	} `json:"results"`
}

// DevInspect runs a read-only simulation and returns the raw return bytes.
func (c *Client) DevInspect(ctx context.Context, call MoveCall) (*InspectResult, error) {
	var result inspectResult
	if err := c.rpc.Call(ctx, "sui_devInspectTransactionBlock", []interface{}{c.keypair.Address(), call}, &result); err != nil {
		return nil, err
	}

	out := &InspectResult{}
	for _, res := range result.Results {
		for _, rv := range res.ReturnValues {
			// returnValues entries are [ [u8...], "type" ] pairs.
			var pair []json.RawMessage
			if err := json.Unmarshal(rv, &pair); err != nil || len(pair) == 0 {
				continue
			}
			var ints []int
			if err := json.Unmarshal(pair[0], &ints); err != nil {
				continue
			}
			b := make([]byte, len(ints))
			for i, v := range ints {
				b[i] = byte(v)
			}
			out.ReturnValues = append(out.ReturnValues, b)
		}
	}
	return out, nil
}
