package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"linkhub-gateway/internal/application/usecases"
	"linkhub-gateway/internal/database"
	derrors "linkhub-gateway/internal/domain/errors"
	"linkhub-gateway/internal/domain/repositories"
	"linkhub-gateway/internal/gateway"
	"linkhub-gateway/internal/metrics"
	"linkhub-gateway/internal/middleware"
	"linkhub-gateway/internal/presentation/http/controllers"
)

// Response is the envelope of every non-gateway JSON endpoint.
type Response struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Gateway      *gateway.Gateway
	Discovery    *gateway.Discovery
	APIKeys      *usecases.APIKeyUseCase
	Inquiries    *controllers.InquiryController
	Profiles     repositories.ProfileRepository
	DB           *database.Database
	Endpoint     string
	MaxBodyBytes int64
	Version      string
}

type Handler struct {
	deps Deps
	now  func() time.Time
}

func New(deps Deps) *Handler {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}
	if deps.Endpoint == "" {
		deps.Endpoint = "mcp"
	}
	return &Handler{deps: deps, now: time.Now}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	endpoint := "/" + strings.Trim(h.deps.Endpoint, "/")

	// Agent gateway
	router.HandleFunc(endpoint+"/{username}", h.handleGateway).Methods(http.MethodPost)
	router.HandleFunc("/.well-known/mcp.json", h.handleDiscovery).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", h.handleHealthCheck).Methods(http.MethodGet)

	// Owner routes (HTTP Basic)
	owner := api.PathPrefix("/profiles/{username}").Subrouter()
	owner.Use(middleware.RequireOwner(h.deps.Profiles))
	owner.HandleFunc("/keys", h.handleCreateAPIKey).Methods(http.MethodPost)
	owner.HandleFunc("/keys", h.handleListAPIKeys).Methods(http.MethodGet)
	owner.HandleFunc("/keys/{id}", h.handleUpdateAPIKey).Methods(http.MethodPatch)
	owner.HandleFunc("/keys/{id}", h.handleDeleteAPIKey).Methods(http.MethodDelete)
	owner.HandleFunc("/visits", h.handleVisitAnalytics).Methods(http.MethodGet)
	owner.HandleFunc("/inquiries", h.handleListInquiries).Methods(http.MethodGet)
}

func (h *Handler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	dbStatus := "ok"
	if h.deps.DB == nil {
		dbStatus = databaseNotAvailable
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.DB.GetDB().PingContext(ctx); err != nil {
			dbStatus = err.Error()
		}
	}
	if dbStatus != "ok" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	writeJSONResponse(w, code, Response{
		Success: code == http.StatusOK,
		Message: "Service is running",
		Data: map[string]interface{}{
			"status":    status,
			"database":  dbStatus,
			"version":   h.deps.Version,
			"timestamp": h.now().UTC().Format(time.RFC3339),
		},
	})
}

// writeJSONResponse writes data as JSON with status
func writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// writeErrorResponse writes an error without a machine code
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	writeJSONResponse(w, status, Response{Success: false, Error: message})
}

func writeErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	writeErrorWithCodeDetails(w, status, code, message, nil)
}

func writeErrorWithCodeDetails(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	writeJSONResponse(w, status, Response{Success: false, Error: message, Code: code, Details: details})
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var derr derrors.DomainError
	if !errors.As(err, &derr) {
		writeErrorWithCode(w, http.StatusInternalServerError, derrors.ErrInternal.Code, derrors.ErrInternal.Message)
		return
	}
	status := http.StatusInternalServerError
	switch {
	case derr.Code == derrors.ErrValidation.Code:
		status = http.StatusBadRequest
	case strings.HasSuffix(derr.Code, "_NOT_FOUND"):
		status = http.StatusNotFound
	case derr.Code == derrors.ErrInsufficientAuth.Code:
		status = http.StatusForbidden
	}
	writeErrorWithCodeDetails(w, status, derr.Code, derr.Message, derr.Details)
}

func decodeJSONBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
