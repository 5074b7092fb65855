package driven

import (
	"context"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// GerritClient defines the driven port for talking to a Gerrit server.
// Implementations hold no per-server state: the endpoint and credentials
// travel with every call.
type GerritClient interface {
	// Query fetches and summarizes one change. Transport failures and
	// non-200 answers are reported through the result kind, never as an
	// error. The error is reserved for payloads whose shape does not match
	// the Gerrit change-detail format.
	Query(ctx context.Context, opts model.Options, changeID string) (model.QueryResult, error)

	// Test probes the server version endpoint and reports whether it
	// answered 200 with the given credentials.
	Test(ctx context.Context, endpoint string, creds model.Credentials) bool
}
