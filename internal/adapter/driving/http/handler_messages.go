package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ericfisherdev/gerritwatch/internal/application"
	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// Message types accepted by POST /api/v1/messages.
const (
	MessageRestartService = "RESTART_SERVICE"
	MessageTestEndpoint   = "TEST_ENDPOINT"
)

// Message is a request sent from an options surface to the poller.
// Data is only read for MessageTestEndpoint.
type Message struct {
	Type string         `json:"type"`
	Data *model.Options `json:"data,omitempty"`
}

// HandleMessage dispatches a Message. RESTART_SERVICE is acknowledged with
// 202 before the restart completes; TEST_ENDPOINT answers {"response": bool}.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch msg.Type {
	case MessageRestartService:
		h.restartService()
		writeJSON(w, http.StatusAccepted, TestResponse{Response: true})

	case MessageTestEndpoint:
		if msg.Data == nil {
			writeJSON(w, http.StatusOK, TestResponse{Error: application.ErrMissingConfig.Error()})
			return
		}
		ok, err := h.optionsSvc.TestEndpoint(r.Context(), *msg.Data)
		if errors.Is(err, application.ErrMissingConfig) {
			writeJSON(w, http.StatusOK, TestResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, TestResponse{Response: ok})

	default:
		writeError(w, http.StatusBadRequest, "unknown message type")
	}
}

// restartService restarts the poller in the background with the saved options.
func (h *Handler) restartService() {
	if h.poller == nil {
		return
	}
	go func() {
		if err := h.poller.Restart(context.Background()); err != nil {
			h.logger.Error("service restart failed", "error", err)
		}
	}()
}
