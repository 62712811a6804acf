package deepbook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sui-intent-solver/internal/jsonrpc"
)

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()

	pool, ok := r.Lookup("SUI", "USDC")
	if !ok {
		t.Fatal("expected SUI-USDC pool")
	}
	if pool.Base != "SUI" || pool.Quote != "USDC" {
		t.Errorf("unexpected pool %+v", pool)
	}

	// Symmetric lookup resolves to the same pool.
	reversed, ok := r.Lookup("USDC", "SUI")
	if !ok {
		t.Fatal("expected reversed lookup to resolve")
	}
	if reversed.ID != pool.ID {
		t.Errorf("reversed lookup returned different pool: %s vs %s", reversed.ID, pool.ID)
	}

	if _, ok := r.Lookup("SUI", "BTC"); ok {
		t.Error("expected unknown pair to miss")
	}
}

func TestGetOrderBook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "deepbook_getLevel2Range" {
			t.Errorf("expected method deepbook_getLevel2Range, got %s", req.Method)
		}
		if len(req.Params) != 4 {
			t.Fatalf("expected 4 params, got %d", len(req.Params))
		}

		isBid := req.Params[3].(bool)
		result := map[string]interface{}{
			"prices":     []uint64{2000000000, 1900000000},
			"quantities": []uint64{5, 10},
		}
		if !isBid {
			result = map[string]interface{}{
				"prices":     []uint64{2100000000},
				"quantities": []uint64{7},
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	book, err := client.GetOrderBook(context.Background(), "SUI", "USDC")
	if err != nil {
		t.Fatalf("GetOrderBook: %v", err)
	}

	if len(book.Bids) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(book.Bids))
	}
	if book.Bids[0].Price != "2000000000" || book.Bids[0].Quantity != "5" {
		t.Errorf("unexpected best bid %+v", book.Bids[0])
	}
	if len(book.Asks) != 1 {
		t.Fatalf("expected 1 ask, got %d", len(book.Asks))
	}
	if book.Asks[0].Price != "2100000000" || book.Asks[0].Quantity != "7" {
		t.Errorf("unexpected best ask %+v", book.Asks[0])
	}
	if book.Timestamp == 0 {
		t.Error("expected snapshot timestamp to be set")
	}
}

func TestGetOrderBook_UnknownPair(t *testing.T) {
	client := NewClient("http://unused")
	if _, err := client.GetOrderBook(context.Background(), "SUI", "BTC"); err == nil {
		t.Fatal("expected error for unknown pair")
	}
}

func TestGetOrderBook_LengthMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"prices":     []uint64{1, 2},
				"quantities": []uint64{1},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.GetOrderBook(context.Background(), "SUI", "USDC"); err == nil {
		t.Fatal("expected error for mismatched level arrays")
	}
}
