package solver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/observability"
)

// WebSocket message types.
const (
	msgSubmitIntent = "submit_intent"
	msgGetStatus    = "get_status"
	msgGetPublicKey = "get_public_key"

	msgIntentAccepted     = "intent_accepted"
	msgIntentRejected     = "intent_rejected"
	msgStatus             = "status"
	msgPublicKey          = "public_key"
	msgSettlementComplete = "settlement_complete"
	msgError              = "error"
)

const wsWriteTimeout = 10 * time.Second

// Keepalive: the forwarder pings every wsPingInterval; a peer that misses a
// pong within wsPongTimeout is dropped, releasing its hub subscription.
// Variables so tests can shrink the windows.
var (
	wsPingInterval = 30 * time.Second
	wsPongTimeout  = 75 * time.Second
)

// wsMessage is the envelope for every client-to-solver frame.
type wsMessage struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Commitment string          `json:"commitment,omitempty"`
}

// wsSession wraps one connection. The mutex serializes writes between the
// read-loop responses and the broadcast forwarder.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSession) send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(v)
}

func (s *wsSession) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// wsHandler serves the WebSocket intake endpoint.
func (s *Solver) wsHandler(ctx context.Context) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Intents are end-to-end encrypted; origin checks add nothing.
			return true
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Printf("websocket upgrade failed: %v", err)
			return
		}
		s.handleConn(ctx, conn)
	})
	return mux
}

// handleConn runs one connection to completion: a broadcast forwarder
// goroutine plus the read loop.
func (s *Solver) handleConn(ctx context.Context, conn *websocket.Conn) {
	session := &wsSession{conn: conn}
	events, unsubscribe := s.hub.Subscribe()

	observability.DefaultMetrics.WSConnections.Inc()
	defer func() {
		unsubscribe()
		conn.Close()
		observability.DefaultMetrics.WSConnections.Dec()
	}()

	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				session.send(map[string]interface{}{
					"type":       msgSettlementComplete,
					"commitment": ev.Commitment,
					"txDigest":   ev.TxDigest,
				})
			case <-ticker.C:
				if err := session.ping(); err != nil {
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("websocket closed unexpectedly: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		s.handleWSMessage(ctx, session, raw)
	}
}

func (s *Solver) handleWSMessage(ctx context.Context, session *wsSession, raw []byte) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		session.send(map[string]string{"type": msgError, "message": "invalid JSON message"})
		return
	}

	switch msg.Type {
	case msgSubmitIntent:
		var req submitRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			session.send(map[string]string{"type": msgIntentRejected, "error": "invalid submit payload"})
			return
		}
		commitment, err := s.SubmitIntent(ctx, req.EncryptedIntent, req.UserAddress)
		if err != nil {
			session.send(map[string]string{"type": msgIntentRejected, "error": err.Error()})
			return
		}
		session.send(map[string]string{
			"type":       msgIntentAccepted,
			"commitment": commitment,
			"status":     string(domain.IntentStatusPending),
		})

	case msgGetStatus:
		if msg.Commitment == "" {
			session.send(map[string]string{"type": msgError, "message": "missing commitment"})
			return
		}
		session.send(map[string]string{
			"type":       msgStatus,
			"commitment": msg.Commitment,
			"status":     s.IntentStatus(ctx, msg.Commitment),
		})

	case msgGetPublicKey:
		session.send(map[string]string{
			"type":      msgPublicKey,
			"publicKey": s.decryptor.PublicKeyHex(),
		})

	default:
		session.send(map[string]string{"type": msgError, "message": "unknown message type: " + msg.Type})
	}
}
