// Package handlers contains the HTTP layer of the back-office API. Handlers
// parse and validate requests, call the services layer, and map its errors
// onto the HTTP error taxonomy.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/meridianwm/backoffice/internal/api/errors"
	"github.com/meridianwm/backoffice/internal/drive"
	"github.com/meridianwm/backoffice/internal/services"
	"github.com/meridianwm/backoffice/internal/store"
	"github.com/meridianwm/backoffice/internal/tagger"
)

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	documents      *services.DocumentsService
	notifier       *services.Notifier
	maxUploadBytes int64
	logger         *slog.Logger
}

// New creates the handler set. maxUploadBytes caps multipart uploads.
func New(documents *services.DocumentsService, notifier *services.Notifier, maxUploadBytes int64, logger *slog.Logger) *Handlers {
	return &Handlers{
		documents:      documents,
		notifier:       notifier,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// respondJSON writes a 200 with the given body.
func respondJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps a service error onto the HTTP taxonomy: validation
// failures and bad version numbers are 400, unknown documents 404, upstream
// failures (Drive, Firestore, the tagger model) 502, everything else 500.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	var (
		driveErr  *drive.DriveError
		storeErr  *store.StoreError
		taggerErr *tagger.TransportError
	)
	switch {
	case errors.Is(err, services.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, store.ErrVersionNotFound):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, store.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.As(err, &driveErr), errors.As(err, &storeErr), errors.As(err, &taggerErr):
		apierrors.UpstreamError(w, err.Error())
	default:
		h.logger.Error("Unhandled request error.", "error", err)
		apierrors.InternalError(w, "internal error")
	}
}
