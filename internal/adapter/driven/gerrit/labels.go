package gerrit

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// ErrUnexpectedAPIShape is returned when a change-detail payload cannot be
// summarized, either because it is not valid JSON or because a tracked label
// is missing. It usually means the server runs a Gerrit version or label
// configuration this client does not understand.
var ErrUnexpectedAPIShape = errors.New("unexpected gerrit API shape")

// Label names summarized into ChangeStatus.
const (
	LabelVerified   = "Verified"
	LabelCodeReview = "Code-Review"
)

// voteCategory is one of the summary fields of a LabelInfo.
type voteCategory struct {
	name    string
	account func(LabelInfo) *AccountInfo
}

// combinedVoteOrder is Gerrit's precedence for the combined label vote,
// from highest to lowest: REJECTED > APPROVED > DISLIKED > RECOMMENDED.
// See https://gerrit-review.googlesource.com/Documentation/rest-api-changes.html#get-change-detail
var combinedVoteOrder = []voteCategory{
	{"rejected", func(l LabelInfo) *AccountInfo { return l.Rejected }},
	{"approved", func(l LabelInfo) *AccountInfo { return l.Approved }},
	{"disliked", func(l LabelInfo) *AccountInfo { return l.Disliked }},
	{"recommended", func(l LabelInfo) *AccountInfo { return l.Recommended }},
}

// FilterLabel returns the decisive vote on a label: the value cast by the
// account named in the highest-precedence summary field present. It returns
// 0 when no summary field is set or the named account has no entry in All.
func FilterLabel(label LabelInfo) int {
	accountID := 0
	for _, category := range combinedVoteOrder {
		if acct := category.account(label); acct != nil {
			accountID = acct.AccountID
			break
		}
	}

	if accountID == 0 {
		return 0
	}

	for _, approval := range label.All {
		if approval.AccountID == accountID {
			return approval.Value
		}
	}

	return 0
}

// ConvertChange summarizes a change detail into a ChangeStatus.
// Both the Verified and Code-Review labels must be present.
func ConvertChange(raw ChangeDetail) (model.ChangeStatus, error) {
	verified, err := requireLabel(raw, LabelVerified)
	if err != nil {
		return model.ChangeStatus{}, err
	}
	codeReview, err := requireLabel(raw, LabelCodeReview)
	if err != nil {
		return model.ChangeStatus{}, err
	}

	return model.ChangeStatus{
		ID:         strconv.Itoa(raw.Number),
		Subject:    raw.Subject,
		Status:     raw.Status,
		Verified:   FilterLabel(verified),
		CodeReview: FilterLabel(codeReview),
	}, nil
}

func requireLabel(raw ChangeDetail, name string) (LabelInfo, error) {
	label, ok := raw.Labels[name]
	if !ok {
		return LabelInfo{}, fmt.Errorf("change %d has no %q label: %w", raw.Number, name, ErrUnexpectedAPIShape)
	}
	return label, nil
}
