package gerrit

// The subset of Gerrit's change-detail JSON that the client projects.
// Every other field of ChangeInfo is discarded by the decoder.

// ChangeDetail is the projection of a Gerrit ChangeInfo returned by
// GET /changes/{id}/detail.
type ChangeDetail struct {
	// The change number.
	Number int `json:"_number"`

	// The subject of the change (header line of the commit message).
	Subject string `json:"subject"`

	// The status of the change (NEW, MERGED, ABANDONED).
	Status string `json:"status"`

	// The labels of the change as a map from label name to LabelInfo.
	Labels map[string]LabelInfo `json:"labels"`
}

// LabelInfo holds the votes on one label of a change.
// Each of the four summary fields names one account that cast a vote of
// that category; All lists every voter's raw value.
type LabelInfo struct {
	// One user who rejected this label (voted the minimum value).
	Rejected *AccountInfo `json:"rejected,omitempty"`
	// One user who approved this label (voted the maximum value).
	Approved *AccountInfo `json:"approved,omitempty"`
	// One user who disliked this label (voted negatively, but not the minimum).
	Disliked *AccountInfo `json:"disliked,omitempty"`
	// One user who recommended this label (voted positively, but not the maximum).
	Recommended *AccountInfo `json:"recommended,omitempty"`

	All []ApprovalInfo `json:"all,omitempty"`
}

// AccountInfo identifies a Gerrit account.
type AccountInfo struct {
	AccountID int `json:"_account_id"`
}

// ApprovalInfo is one voter's vote on a label.
type ApprovalInfo struct {
	AccountInfo
	Value int `json:"value"`
}
