package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"linkhub-gateway/internal/application/usecases"
	"linkhub-gateway/internal/domain/entities"
	"linkhub-gateway/internal/logger"
	"linkhub-gateway/internal/middleware"
)

type createAPIKeyRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	RateLimit   int      `json:"rate_limit"`
}

type updateAPIKeyRequest struct {
	Name        *string   `json:"name"`
	Permissions *[]string `json:"permissions"`
	RateLimit   *int      `json:"rate_limit"`
	IsActive    *bool     `json:"is_active"`
}

// createdAPIKey is the one response that ever carries the raw key.
type createdAPIKey struct {
	*entities.APIKey
	Key string `json:"key"`
}

func (h *Handler) handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	if owner == nil {
		writeErrorResponse(w, http.StatusUnauthorized, ownerRequired)
		return
	}

	var req createAPIKeyRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "INVALID_REQUEST", invalidRequestBody)
		return
	}

	key, err := h.deps.APIKeys.Create(r.Context(), owner.ID, usecases.CreateAPIKeyInput{
		Name:        req.Name,
		Permissions: req.Permissions,
		RateLimit:   req.RateLimit,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.GetLogger().Info(logger.EventAPIKeyCreated, "API key created", map[string]interface{}{
		"username":    owner.Username,
		"key_id":      key.ID,
		"key_prefix":  key.KeyPrefix,
		"permissions": key.Permissions,
	})

	writeJSONResponse(w, http.StatusCreated, Response{
		Success: true,
		Message: "API key created. Store it now, it will not be shown again.",
		Data:    createdAPIKey{APIKey: key, Key: key.Secret},
	})
}

func (h *Handler) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	if owner == nil {
		writeErrorResponse(w, http.StatusUnauthorized, ownerRequired)
		return
	}

	keys, err := h.deps.APIKeys.List(r.Context(), owner.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if keys == nil {
		keys = []entities.APIKey{}
	}

	writeJSONResponse(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"keys":  keys,
			"count": len(keys),
		},
	})
}

func (h *Handler) handleUpdateAPIKey(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	if owner == nil {
		writeErrorResponse(w, http.StatusUnauthorized, ownerRequired)
		return
	}
	id := mux.Vars(r)["id"]

	var req updateAPIKeyRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "INVALID_REQUEST", invalidRequestBody)
		return
	}

	key, err := h.deps.APIKeys.Update(r.Context(), owner.ID, id, usecases.APIKeyUpdatePatch{
		Name:        req.Name,
		Permissions: req.Permissions,
		RateLimit:   req.RateLimit,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.GetLogger().Info(logger.EventAPIKeyUpdated, "API key updated", map[string]interface{}{
		"username":  owner.Username,
		"key_id":    key.ID,
		"is_active": key.IsActive,
	})

	writeJSONResponse(w, http.StatusOK, Response{Success: true, Message: "API key updated", Data: key})
}

func (h *Handler) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	if owner == nil {
		writeErrorResponse(w, http.StatusUnauthorized, ownerRequired)
		return
	}
	id := mux.Vars(r)["id"]

	if err := h.deps.APIKeys.Delete(r.Context(), owner.ID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	logger.GetLogger().Info(logger.EventAPIKeyDeleted, "API key deleted", map[string]interface{}{
		"username": owner.Username,
		"key_id":   id,
	})

	writeJSONResponse(w, http.StatusOK, Response{Success: true, Message: "API key deleted"})
}
