package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"linkhub-gateway/internal/gateway"
)

// handleGateway serves POST /{endpoint}/{username}.
func (h *Handler) handleGateway(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.deps.MaxBodyBytes))
	var out *gateway.Outcome
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			out = h.deps.Gateway.ParseFailure(username, r.UserAgent(), "request body too large")
		} else {
			out = h.deps.Gateway.ParseFailure(username, r.UserAgent(), "unreadable request body")
		}
	} else {
		out = h.deps.Gateway.Handle(r.Context(), body, username, r.Header.Get("Authorization"), r.UserAgent())
	}

	writeRPCOutcome(w, out)
}

func writeRPCOutcome(w http.ResponseWriter, out *gateway.Outcome) {
	if out.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="linkhub", error="invalid_token"`)
	}
	if out.Response == nil {
		w.WriteHeader(out.Status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(out.Status)
	if err := json.NewEncoder(w).Encode(out.Response); err != nil {
		log.Printf("Error encoding JSON-RPC response: %v", err)
	}
}

// handleDiscovery serves the static discovery document.
func (h *Handler) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	if h.deps.Discovery == nil {
		writeErrorResponse(w, http.StatusNotFound, "Discovery document not configured")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSONResponse(w, http.StatusOK, h.deps.Discovery)
}
