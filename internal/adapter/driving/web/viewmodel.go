package web

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	vm "github.com/ericfisherdev/gerritwatch/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// toChangeRowViewModel converts a tracked change into a dashboard row.
// endpoint is used to link the change on the Gerrit web UI and may be empty.
func toChangeRowViewModel(tc model.TrackedChange, endpoint string, now time.Time) vm.ChangeRowViewModel {
	row := vm.ChangeRowViewModel{
		ChangeID:        tc.ChangeID,
		SubjectHTML:     "",
		State:           "pending",
		StateLabel:      "waiting for first poll",
		Verified:        "",
		CodeReview:      "",
		VerifiedClass:   "vote-none",
		CodeReviewClass: "vote-none",
		AddedAgo:        humanize.RelTime(tc.AddedAt, now, "ago", "from now"),
		RemovePath:      "/changes/" + url.PathEscape(tc.ChangeID) + "/delete",
	}

	if endpoint != "" {
		row.GerritURL = strings.TrimRight(endpoint, "/") + "/q/" + url.PathEscape(tc.ChangeID)
	}

	if !tc.LastPolledAt.IsZero() {
		row.PolledAgo = humanize.RelTime(tc.LastPolledAt, now, "ago", "from now")
	}

	if tc.LastResult == nil {
		return row
	}

	res := tc.LastResult
	switch res.Kind {
	case model.ResultError:
		row.State = "failed"
		row.StateLabel = "query failed"
	case model.ResultEmpty:
		row.State = "missing"
		row.StateLabel = "no data"
		if res.StatusCode != 0 {
			row.StateLabel = "no data (HTTP " + strconv.Itoa(res.StatusCode) + ")"
		}
	case model.ResultOK:
		if res.Change == nil {
			break
		}
		row.SubjectHTML = RenderSubject(res.Change.Subject)
		row.State = strings.ToLower(res.Change.Status)
		row.StateLabel = res.Change.Status
		row.Closed = res.Change.IsClosed()
		row.Verified, row.VerifiedClass = formatVote(res.Change.Verified)
		row.CodeReview, row.CodeReviewClass = formatVote(res.Change.CodeReview)
	}

	return row
}

// toChangeRowViewModels converts a slice, always returning a non-nil result.
func toChangeRowViewModels(changes []model.TrackedChange, endpoint string, now time.Time) []vm.ChangeRowViewModel {
	rows := make([]vm.ChangeRowViewModel, 0, len(changes))
	for _, tc := range changes {
		rows = append(rows, toChangeRowViewModel(tc, endpoint, now))
	}
	return rows
}

// formatVote renders a label vote as Gerrit shows it: "+2", "-1", or "0".
func formatVote(v int) (string, string) {
	switch {
	case v > 0:
		return "+" + strconv.Itoa(v), "vote-pos"
	case v < 0:
		return strconv.Itoa(v), "vote-neg"
	default:
		return "0", "vote-none"
	}
}

func toOptionsViewModel(opts model.Options) vm.OptionsViewModel {
	return vm.OptionsViewModel{
		RefreshTime: opts.RefreshTime,
		Endpoint:    opts.Endpoint,
		Email:       opts.Credentials.Email,
		HasPassword: opts.Credentials.Password != "",
	}
}
