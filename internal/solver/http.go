package solver

import (
	"encoding/json"
	"net/http"

	"sui-intent-solver/internal/domain"
)

// submitRequest is the HTTP/WebSocket intake payload: the encrypted
// envelope plus the submitting trader's address.
type submitRequest struct {
	domain.EncryptedIntent
	UserAddress string `json:"userAddress"`
}

// httpHandler serves the REST intake surface.
func (s *Solver) httpHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /public-key", s.handlePublicKey)
	mux.HandleFunc("POST /submit", s.handleSubmit)
	mux.HandleFunc("GET /status/{commitment}", s.handleStatus)
	return mux
}

func (s *Solver) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"solverAddress":  s.settler.SolverAddress(),
		"pendingIntents": s.pending.Len(),
	})
}

func (s *Solver) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"publicKey": s.decryptor.PublicKeyHex(),
	})
}

func (s *Solver) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	commitment, err := s.SubmitIntent(r.Context(), req.EncryptedIntent, req.UserAddress)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"commitment": commitment,
		"status":     string(domain.IntentStatusPending),
	})
}

func (s *Solver) handleStatus(w http.ResponseWriter, r *http.Request) {
	commitment := r.PathValue("commitment")
	if commitment == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing commitment"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"commitment": commitment,
		"status":     s.IntentStatus(r.Context(), commitment),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
