package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/meridianwm/backoffice/internal/api/errors"
	"github.com/meridianwm/backoffice/internal/models"
)

// Notifications handles GET /notifications?userId=, newest first.
func (h *Handlers) Notifications(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		apierrors.ValidationError(w, "userId query parameter is required")
		return
	}

	notifications, err := h.notifier.UserNotifications(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.NotificationsResponse{Success: true, Notifications: notifications})
}

// MarkNotificationRead handles POST /notifications/{id}/read.
func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifier.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.SuccessResponse{Success: true})
}

// MarkAllNotificationsRead handles POST /notifications/read-all?userId=.
func (h *Handlers) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		apierrors.ValidationError(w, "userId query parameter is required")
		return
	}

	if err := h.notifier.MarkAllRead(r.Context(), userID); err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.SuccessResponse{Success: true})
}
