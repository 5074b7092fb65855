package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const changeDetail = `)]}'
{
  "_number": 12345,
  "subject": "Add retry to fetcher",
  "status": "NEW",
  "labels": {
    "Verified": {"approved": {"_account_id": 7}, "all": [{"_account_id": 7, "value": 1}]},
    "Code-Review": {"rejected": {"_account_id": 9}, "all": [{"_account_id": 9, "value": -2}]}
  }
}`

// newFakeGerrit serves change 12345, 404s everything else, and accepts the
// version probe only with the right password.
func newFakeGerrit(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /changes/12345/detail", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(changeDetail))
	})
	mux.HandleFunc("GET /changes/{id}/detail", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	mux.HandleFunc("GET /config/server/version", func(w http.ResponseWriter, r *http.Request) {
		if _, pw, ok := r.BasicAuth(); !ok || pw != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`)]}'` + "\n" + `"3.9.1"`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, endpoint, password string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gerritctl.yaml")
	content := "refreshTime: 30\nendpoint: " + endpoint + "\ncredentials:\n  email: dev@example.org\n  password: " + password + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestQuery(t *testing.T) {
	srv := newFakeGerrit(t)
	cfg := writeConfig(t, srv.URL, "secret")

	out, err := execute(t, "--config", cfg, "query", "12345")
	require.NoError(t, err)

	assert.Contains(t, out, "12345")
	assert.Contains(t, out, "NEW")
	assert.Contains(t, out, "V:+1")
	assert.Contains(t, out, "CR:-2")
	assert.Contains(t, out, "Add retry to fetcher")
	assert.Contains(t, out, "1 change from "+srv.URL)
}

func TestQuery_MissingChangeIsNotAFailure(t *testing.T) {
	srv := newFakeGerrit(t)
	cfg := writeConfig(t, srv.URL, "secret")

	out, err := execute(t, "--config", cfg, "query", "12345", "999")
	require.NoError(t, err)

	assert.Contains(t, out, "no data (HTTP 404)")
	assert.Contains(t, out, "2 changes from")
}

func TestQuery_UnreachableServerFails(t *testing.T) {
	srv := newFakeGerrit(t)
	endpoint := srv.URL
	srv.Close()

	out, err := execute(t, "--endpoint", endpoint, "--config", writeConfig(t, endpoint, "x"), "query", "1")
	require.ErrorIs(t, err, errSomeFailed)
	assert.Contains(t, out, "query failed")
}

func TestQuery_NeedsEndpoint(t *testing.T) {
	cfg := writeConfig(t, `""`, "")

	_, err := execute(t, "--config", cfg, "query", "1")
	assert.ErrorContains(t, err, "no gerrit endpoint")
}

func TestQuery_EndpointFlagOverridesFile(t *testing.T) {
	srv := newFakeGerrit(t)
	cfg := writeConfig(t, "https://wrong.invalid", "secret")

	out, err := execute(t, "--config", cfg, "--endpoint", srv.URL, "query", "12345")
	require.NoError(t, err)
	assert.Contains(t, out, "Add retry to fetcher")
}

func TestQuery_ExplicitConfigMustExist(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "query", "1")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTest(t *testing.T) {
	srv := newFakeGerrit(t)

	out, err := execute(t, "--config", writeConfig(t, srv.URL, "secret"), "test")
	require.NoError(t, err)
	assert.Contains(t, out, "Connection to Gerrit succeeded.")

	out, err = execute(t, "--config", writeConfig(t, srv.URL, "wrong"), "test")
	assert.ErrorIs(t, err, errTestFailed)
	assert.Contains(t, out, "Connection to Gerrit failed.")
}

func TestLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detail.json")
	require.NoError(t, os.WriteFile(path, []byte(changeDetail), 0o600))

	out, err := execute(t, "labels", path)
	require.NoError(t, err)
	assert.Contains(t, out, "V:+1")
	assert.Contains(t, out, "CR:-2")
}

func TestLabels_Stdin(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetIn(strings.NewReader(strings.TrimPrefix(changeDetail, ")]}'")))
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--no-color", "labels", "-"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Add retry to fetcher")
}

func TestLabels_MissingLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detail.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"_number":1,"subject":"s","status":"NEW","labels":{}}`), 0o600))

	_, err := execute(t, "labels", path)
	assert.ErrorContains(t, err, "unexpected gerrit API shape")
}
