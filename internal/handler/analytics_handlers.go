package handler

import (
	"net/http"

	"linkhub-gateway/internal/database"
	"linkhub-gateway/internal/logger"
	"linkhub-gateway/internal/middleware"
	"linkhub-gateway/internal/presentation/http/validation"
)

// handleVisitAnalytics returns agent visit statistics for the owner's profile.
func (h *Handler) handleVisitAnalytics(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	if owner == nil {
		writeErrorResponse(w, http.StatusUnauthorized, ownerRequired)
		return
	}
	if h.deps.DB == nil {
		writeErrorResponse(w, http.StatusInternalServerError, databaseNotAvailable)
		return
	}

	start, end, ok := validation.ParseTimeRange(r.URL.Query().Get("timeRange"), h.now())
	if !ok {
		writeErrorWithCodeDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid time range", map[string]interface{}{
			"timeRange": "must be one of 24h, 1d, 7d, 30d, 90d",
		})
		return
	}

	analytics, err := h.deps.DB.GetVisitAnalytics(r.Context(), owner.ID, database.AnalyticsTimeRange{Start: start, End: end})
	if err != nil {
		logger.GetLogger().LogError("Failed to load visit analytics", err, map[string]interface{}{"username": owner.Username})
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}

	writeJSONResponse(w, http.StatusOK, Response{Success: true, Data: analytics})
}

// handleListInquiries pages through the inquiries left for the owner.
func (h *Handler) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	if owner == nil {
		writeErrorResponse(w, http.StatusUnauthorized, ownerRequired)
		return
	}

	page, details := validation.ParsePagination(r.URL.Query(), 20, 100)
	if len(details) > 0 {
		writeErrorWithCodeDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid pagination", details)
		return
	}

	items, total, err := h.deps.Inquiries.ListWithPagination(r.Context(), owner.ID, page.Page, page.Limit)
	if err != nil {
		logger.GetLogger().LogError("Failed to list inquiries", err, map[string]interface{}{"username": owner.Username})
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to list inquiries")
		return
	}

	writeJSONResponse(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"inquiries": items,
			"total":     total,
			"page":      page.Page,
			"limit":     page.Limit,
		},
	})
}
