package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ChangeResponse is the JSON representation of a tracked change.
type ChangeResponse struct {
	ChangeID     string             `json:"change_id"`
	AddedAt      string             `json:"added_at"`
	LastPolledAt string             `json:"last_polled_at,omitempty"`
	Result       *model.QueryResult `json:"result"`
}

// AddChangeRequest is the request body for POST /api/v1/changes.
type AddChangeRequest struct {
	ChangeID string `json:"change_id"`
}

// OptionsResponse is the JSON representation of the saved options.
// The password is never returned; HasPassword reports whether one is stored.
type OptionsResponse struct {
	RefreshTime int                 `json:"refreshTime"`
	Endpoint    string              `json:"endpoint"`
	Credentials CredentialsResponse `json:"credentials"`
}

// CredentialsResponse is the redacted form of model.Credentials.
type CredentialsResponse struct {
	Email       string `json:"email"`
	HasPassword bool   `json:"has_password"`
}

// TestResponse carries the outcome of an endpoint test.
type TestResponse struct {
	Response bool   `json:"response"`
	Error    string `json:"error,omitempty"`
}

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Time       string `json:"time"`
	Configured bool   `json:"configured"`
}

func toChangeResponse(tc model.TrackedChange) ChangeResponse {
	resp := ChangeResponse{
		ChangeID: tc.ChangeID,
		AddedAt:  tc.AddedAt.UTC().Format(time.RFC3339),
		Result:   tc.LastResult,
	}
	if !tc.LastPolledAt.IsZero() {
		resp.LastPolledAt = tc.LastPolledAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toOptionsResponse(opts model.Options) OptionsResponse {
	return OptionsResponse{
		RefreshTime: opts.RefreshTime,
		Endpoint:    opts.Endpoint,
		Credentials: CredentialsResponse{
			Email:       opts.Credentials.Email,
			HasPassword: opts.Credentials.Password != "",
		},
	}
}
