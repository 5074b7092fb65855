package httphandler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/gerritwatch/internal/adapter/driving/http"
)

func TestHandleMessage_RestartService(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/messages", `{"type":"RESTART_SERVICE"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var got httphandler.TestResponse
	decodeJSON(t, rec, &got)
	assert.True(t, got.Response)

	waitFor(t, env.poller.restarted)
}

func TestHandleMessage_TestEndpoint(t *testing.T) {
	const full = `{"type":"TEST_ENDPOINT","data":{"refreshTime":30,"endpoint":"https://r.example.org","credentials":{"email":"e","password":"p"}}}`

	tests := []struct {
		name         string
		body         string
		testOK       bool
		wantResponse bool
		wantError    string
	}{
		{name: "reachable", body: full, testOK: true, wantResponse: true},
		{name: "unreachable", body: full, testOK: false, wantResponse: false},
		{name: "no data", body: `{"type":"TEST_ENDPOINT"}`, wantError: "missing configuration"},
		{
			name:      "missing credentials",
			body:      `{"type":"TEST_ENDPOINT","data":{"refreshTime":30,"endpoint":"https://r.example.org"}}`,
			testOK:    true,
			wantError: "missing configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.client.testOK = tt.testOK

			rec := env.do(t, http.MethodPost, "/api/v1/messages", tt.body)
			require.Equal(t, http.StatusOK, rec.Code)

			var got httphandler.TestResponse
			decodeJSON(t, rec, &got)
			assert.Equal(t, tt.wantResponse, got.Response)
			assert.Equal(t, tt.wantError, got.Error)
		})
	}
}

func TestHandleMessage_BadInput(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/messages", `{"type":"SELF_DESTRUCT"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/messages", `garbage`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
