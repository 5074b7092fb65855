// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/gerritwatch/internal/application"
	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

const healthPath = "/api/v1/health"

// ChangePoller is the subset of application.PollService the handlers drive.
type ChangePoller interface {
	RefreshChange(ctx context.Context, changeID string) error
	Restart(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	changeStore driven.ChangeStore
	optionsSvc  *application.OptionsService
	poller      ChangePoller
	endpoint    *application.EndpointProvider
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
// poller may be nil, in which case changes are only picked up on the next cycle.
func NewHandler(
	changeStore driven.ChangeStore,
	optionsSvc *application.OptionsService,
	poller ChangePoller,
	endpoint *application.EndpointProvider,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		changeStore: changeStore,
		optionsSvc:  optionsSvc,
		poller:      poller,
		endpoint:    endpoint,
		logger:      logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/changes", h.ListChanges)
	mux.HandleFunc("POST /api/v1/changes", h.AddChange)
	mux.HandleFunc("GET /api/v1/changes/{id}", h.GetChange)
	mux.HandleFunc("DELETE /api/v1/changes/{id}", h.RemoveChange)
	mux.HandleFunc("POST /api/v1/changes/{id}/refresh", h.RefreshChange)
	mux.HandleFunc("GET /api/v1/options", h.GetOptions)
	mux.HandleFunc("PUT /api/v1/options", h.SaveOptions)
	mux.HandleFunc("POST /api/v1/options/test", h.TestOptions)
	mux.HandleFunc("POST /api/v1/messages", h.HandleMessage)
	mux.HandleFunc("GET "+healthPath, h.Health)
}

// ListChanges returns all tracked changes with their latest results.
func (h *Handler) ListChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := h.changeStore.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list changes", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ChangeResponse, 0, len(changes))
	for _, tc := range changes {
		resp = append(resp, toChangeResponse(tc))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetChange returns one tracked change.
func (h *Handler) GetChange(w http.ResponseWriter, r *http.Request) {
	changeID := r.PathValue("id")

	tc, err := h.changeStore.Get(r.Context(), changeID)
	if err != nil {
		h.logger.Error("failed to get change", "change_id", changeID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if tc == nil {
		writeError(w, http.StatusNotFound, "change not tracked")
		return
	}

	writeJSON(w, http.StatusOK, toChangeResponse(*tc))
}

// AddChange starts tracking a change and triggers an async refresh.
func (h *Handler) AddChange(w http.ResponseWriter, r *http.Request) {
	var req AddChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changeID := strings.TrimSpace(req.ChangeID)
	if !model.ValidChangeID(changeID) {
		writeError(w, http.StatusBadRequest, "invalid change id: expected a change number, Change-Id, or project~branch~Change-Id")
		return
	}

	if err := h.changeStore.Add(r.Context(), changeID); err != nil {
		if errors.Is(err, driven.ErrChangeAlreadyTracked) {
			writeError(w, http.StatusConflict, "change already tracked")
			return
		}
		h.logger.Error("failed to add change", "change_id", changeID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Fire-and-forget async refresh with background context since the HTTP
	// request context will be cancelled after the response is sent.
	if h.poller != nil && h.endpoint.IsConfigured() {
		go func() {
			if err := h.poller.RefreshChange(context.Background(), changeID); err != nil {
				h.logger.Error("async change refresh failed", "change_id", changeID, "error", err)
			}
		}()
	}

	writeJSON(w, http.StatusCreated, ChangeResponse{
		ChangeID: changeID,
		AddedAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// RemoveChange stops tracking a change.
func (h *Handler) RemoveChange(w http.ResponseWriter, r *http.Request) {
	changeID := r.PathValue("id")

	if err := h.changeStore.Remove(r.Context(), changeID); err != nil {
		if errors.Is(err, driven.ErrChangeNotTracked) {
			writeError(w, http.StatusNotFound, "change not tracked")
			return
		}
		h.logger.Error("failed to remove change", "change_id", changeID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RefreshChange polls one change synchronously and returns its new state.
func (h *Handler) RefreshChange(w http.ResponseWriter, r *http.Request) {
	changeID := r.PathValue("id")

	if h.poller == nil {
		writeError(w, http.StatusServiceUnavailable, "poller not running")
		return
	}

	err := h.poller.RefreshChange(r.Context(), changeID)
	switch {
	case errors.Is(err, driven.ErrChangeNotTracked):
		writeError(w, http.StatusNotFound, "change not tracked")
		return
	case errors.Is(err, application.ErrMissingConfig):
		writeError(w, http.StatusConflict, "no gerrit endpoint configured")
		return
	case err != nil:
		// The failure is recorded on the change; report what was stored.
		h.logger.Warn("change refresh failed", "change_id", changeID, "error", err)
	}

	h.GetChange(w, r)
}

// GetOptions returns the saved options with the password redacted.
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.optionsSvc.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load options", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toOptionsResponse(opts))
}

// SaveOptions persists new options and restarts the poller with them.
func (h *Handler) SaveOptions(w http.ResponseWriter, r *http.Request) {
	var opts model.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.optionsSvc.Update(r.Context(), opts); err != nil {
		status, message := optionsErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("failed to save options", "error", err)
		}
		writeError(w, status, message)
		return
	}

	saved, err := h.optionsSvc.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to reload options", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toOptionsResponse(saved))
}

// TestOptions probes the Gerrit endpoint described by the request body.
func (h *Handler) TestOptions(w http.ResponseWriter, r *http.Request) {
	var opts model.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := h.optionsSvc.TestEndpoint(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TestResponse{Response: ok})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339),
		Configured: h.endpoint.IsConfigured(),
	})
}

// optionsErrorStatus maps an options-service error to an HTTP status and a
// client-safe message.
func optionsErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrMissingConfig), errors.Is(err, application.ErrInvalidConfig):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		return http.StatusConflict, driven.ErrEncryptionKeyNotSet.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
