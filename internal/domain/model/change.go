package model

import (
	"encoding/json"
	"time"
	"unicode"
)

// MaxChangeIDLength bounds accepted change identifiers. A full
// project~branch~Change-Id triplet is well below this.
const MaxChangeIDLength = 512

// ValidChangeID reports whether id can name a change: a change number, a
// Change-Id, or a project~branch~Change-Id triplet. It must be non-empty, at
// most MaxChangeIDLength bytes, and free of whitespace and control characters.
func ValidChangeID(id string) bool {
	if id == "" || len(id) > MaxChangeIDLength {
		return false
	}
	for _, ch := range id {
		if unicode.IsSpace(ch) || unicode.IsControl(ch) {
			return false
		}
	}
	return true
}

// ChangeStatus is the normalized status of a Gerrit change.
// Verified and CodeReview hold the decisive vote of the matching label.
type ChangeStatus struct {
	ID         string
	Subject    string
	Status     string
	Verified   int
	CodeReview int
}

// IsClosed reports whether Gerrit considers the change finished.
func (c ChangeStatus) IsClosed() bool {
	return c.Status == ChangeStatusMerged || c.Status == ChangeStatusAbandoned
}

// ResultKind distinguishes the three outcomes of a change query.
type ResultKind int

const (
	// ResultOK means the change detail was fetched and summarized.
	ResultOK ResultKind = iota
	// ResultEmpty means the server answered without data (non-200 or empty body).
	ResultEmpty
	// ResultError means the request failed at the transport level.
	ResultError
)

// String returns a human-readable name for the result kind.
func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultEmpty:
		return "empty"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// QueryResult is the outcome of querying one change. Exactly one of the
// three kinds applies; Change is non-nil only for ResultOK.
type QueryResult struct {
	ID   string
	Kind ResultKind
	// StatusCode is the HTTP status seen for ResultEmpty, 0 when there was none.
	StatusCode int
	Change     *ChangeStatus
}

// OKResult wraps a summarized change.
func OKResult(change ChangeStatus) QueryResult {
	return QueryResult{ID: change.ID, Kind: ResultOK, Change: &change}
}

// EmptyResult is returned when the server had nothing to say about changeID.
func EmptyResult(changeID string, statusCode int) QueryResult {
	return QueryResult{ID: changeID, Kind: ResultEmpty, StatusCode: statusCode}
}

// ErrorResult is returned when the query for changeID failed.
func ErrorResult(changeID string) QueryResult {
	return QueryResult{ID: changeID, Kind: ResultError}
}

// queryResultJSON is the wire shape of a QueryResult.
type queryResultJSON struct {
	ID         string `json:"id"`
	Error      bool   `json:"error,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Status     string `json:"status,omitempty"`
	Verified   *int   `json:"verified,omitempty"`
	CodeReview *int   `json:"codeReview,omitempty"`
}

// MarshalJSON encodes the result as {id, error:true}, {id} or
// {id, subject, status, verified, codeReview} depending on its kind.
func (r QueryResult) MarshalJSON() ([]byte, error) {
	out := queryResultJSON{ID: r.ID}
	switch r.Kind {
	case ResultError:
		out.Error = true
	case ResultOK:
		if r.Change != nil {
			out.Subject = r.Change.Subject
			out.Status = r.Change.Status
			out.Verified = &r.Change.Verified
			out.CodeReview = &r.Change.CodeReview
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON. A payload with a subject is
// ResultOK, one with error set is ResultError, anything else is ResultEmpty.
func (r *QueryResult) UnmarshalJSON(data []byte) error {
	var in queryResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch {
	case in.Error:
		*r = ErrorResult(in.ID)
	case in.Subject != "":
		change := ChangeStatus{ID: in.ID, Subject: in.Subject, Status: in.Status}
		if in.Verified != nil {
			change.Verified = *in.Verified
		}
		if in.CodeReview != nil {
			change.CodeReview = *in.CodeReview
		}
		*r = OKResult(change)
	default:
		*r = EmptyResult(in.ID, 0)
	}
	return nil
}

// TrackedChange is a change the poller watches, together with the most
// recent result obtained for it. LastResult is nil until the first poll.
type TrackedChange struct {
	ChangeID     string
	AddedAt      time.Time
	LastResult   *QueryResult
	LastPolledAt time.Time
}
