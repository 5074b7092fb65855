// Package gerrit implements the GerritClient port against the Gerrit REST API.
package gerrit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

// magicPrefix is prepended by Gerrit to every JSON response to defeat
// cross-site script inclusion.
const magicPrefix = ")]}'"

// Compile-time interface satisfaction check.
var _ driven.GerritClient = (*Client)(nil)

// Client implements the driven.GerritClient port. It is stateless apart from
// the underlying HTTP client and may be shared between goroutines.
type Client struct {
	http *http.Client
}

// NewClient creates a Gerrit client whose transport keeps an in-memory
// ETag cache, so unchanged change details are revalidated rather than
// downloaded again on every poll.
func NewClient() *Client {
	return &Client{
		http: &http.Client{Transport: httpcache.NewMemoryCacheTransport()},
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{http: httpClient}
}

// Query fetches {endpoint}/changes/{changeID}/detail and summarizes it.
//
// A transport failure yields model.ResultError and a non-200 status or an
// empty body yields model.ResultEmpty; neither is returned as an error, so a
// caller polling many changes is never aborted by one of them. The returned
// error wraps ErrUnexpectedAPIShape and is only set when the body cannot be
// decoded or lacks a tracked label.
func (c *Client) Query(ctx context.Context, opts model.Options, changeID string) (model.QueryResult, error) {
	addr := changeDetailURL(opts.Endpoint, changeID)

	resp, err := c.get(ctx, addr, opts.Credentials)
	if err != nil {
		slog.Error("gerrit query failed", "change_id", changeID, "error", err)
		return model.ErrorResult(changeID), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("gerrit query returned no data", "change_id", changeID, "status", resp.StatusCode)
		return model.EmptyResult(changeID, resp.StatusCode), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("gerrit query body read failed", "change_id", changeID, "error", err)
		return model.ErrorResult(changeID), nil
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return model.EmptyResult(changeID, resp.StatusCode), nil
	}

	change, err := ParseChangeDetail(body)
	if err != nil {
		return model.QueryResult{}, fmt.Errorf("change %s: %w", changeID, err)
	}

	return model.OKResult(change), nil
}

// Test reports whether {endpoint}/config/server/version answers 200 with
// the given credentials. The response body is ignored.
func (c *Client) Test(ctx context.Context, endpoint string, creds model.Credentials) bool {
	addr := strings.TrimSuffix(endpoint, "/") + "/config/server/version"

	resp, err := c.get(ctx, addr, creds)
	if err != nil {
		slog.Error("error testing endpoint", "endpoint", endpoint, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		slog.Warn("error testing endpoint", "endpoint", endpoint)
		slog.Warn("endpoint test status", "code", resp.StatusCode)
		return false
	}

	return true
}

// get issues a single basic-auth GET. There is no retry; the caller's
// context is the only deadline.
func (c *Client) get(ctx context.Context, addr string, creds model.Credentials) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(creds.Email, creds.Password)
	req.Header.Set("Accept", "application/json")

	return c.http.Do(req)
}

// changeDetailURL builds the change-detail address. The change id is path
// escaped so project~branch~Change-Id triplets with slashes in the project
// name stay a single path segment.
func changeDetailURL(endpoint, changeID string) string {
	return strings.TrimSuffix(endpoint, "/") + "/changes/" + url.PathEscape(changeID) + "/detail"
}

// StripMagicPrefix removes Gerrit's leading )]}' guard from a response body.
// Bodies without the guard are returned unchanged.
func StripMagicPrefix(body []byte) []byte {
	return bytes.TrimPrefix(body, []byte(magicPrefix))
}

// ParseChangeDetail decodes a change-detail body, with or without the guard
// prefix, and summarizes it with ConvertChange.
func ParseChangeDetail(body []byte) (model.ChangeStatus, error) {
	var raw ChangeDetail
	if err := decodeJSON(body, &raw); err != nil {
		return model.ChangeStatus{}, fmt.Errorf("decode change detail: %v: %w", err, ErrUnexpectedAPIShape)
	}
	return ConvertChange(raw)
}

// decodeJSON strips the guard prefix and decodes the remainder into v.
func decodeJSON(body []byte, v any) error {
	return json.Unmarshal(StripMagicPrefix(body), v)
}
