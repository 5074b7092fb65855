package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/gerritwatch/internal/adapter/driving/web/viewmodel"
)

// Dashboard lists the tracked changes with their latest votes.
func Dashboard(data vm.DashboardViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := StatusBanner(data.Banner).Render(ctx, w); err != nil {
			return err
		}

		hw := &htmlWriter{w: w}
		if !data.Configured {
			hw.raw(`<p class="hint">No Gerrit endpoint configured yet. <a href="/options">Set one up</a> to start polling.</p>`)
		} else {
			hw.raw(`<p class="hint">Polling `)
			hw.text(data.Endpoint)
			hw.raw(`</p>`)
		}

		hw.raw(`<form method="post" action="/changes" class="add-change">`)
		csrfField(hw, data.CSRFToken)
		hw.raw(`<input type="text" name="change_id" placeholder="Change number or Change-Id" required>`)
		hw.raw(`<button type="submit">Track</button></form>`)

		if len(data.Changes) == 0 {
			hw.raw(`<p class="empty">No changes tracked.</p>`)
			return hw.err
		}

		hw.raw(`<table class="changes"><thead><tr>`)
		hw.raw(`<th>Change</th><th>Subject</th><th>Status</th><th>V</th><th>CR</th><th>Polled</th><th></th>`)
		hw.raw(`</tr></thead><tbody>`)
		for _, c := range data.Changes {
			changeRow(hw, c, data.CSRFToken)
		}
		hw.raw(`</tbody></table>`)
		return hw.err
	})
}

func changeRow(hw *htmlWriter, c vm.ChangeRowViewModel, csrf string) {
	hw.raw(`<tr class="state-`)
	hw.text(c.State)
	if c.Closed {
		hw.raw(` closed`)
	}
	hw.raw(`"><td class="change-id">`)
	if c.GerritURL != "" {
		hw.raw(`<a href="`)
		hw.url(c.GerritURL)
		hw.raw(`" target="_blank" rel="noopener">`)
		hw.text(c.ChangeID)
		hw.raw(`</a>`)
	} else {
		hw.text(c.ChangeID)
	}
	hw.raw(`</td><td class="subject">`)
	if c.SubjectHTML != "" {
		hw.raw(c.SubjectHTML)
	} else {
		hw.raw(`<span class="muted">`)
		hw.text(c.StateLabel)
		hw.raw(`</span>`)
	}
	hw.raw(`</td><td class="status">`)
	hw.text(c.StateLabel)
	hw.raw(`</td><td class="`)
	hw.text(c.VerifiedClass)
	hw.raw(`">`)
	hw.text(c.Verified)
	hw.raw(`</td><td class="`)
	hw.text(c.CodeReviewClass)
	hw.raw(`">`)
	hw.text(c.CodeReview)
	hw.raw(`</td><td class="polled" title="added `)
	hw.text(c.AddedAgo)
	hw.raw(`">`)
	if c.PolledAgo != "" {
		hw.text(c.PolledAgo)
	} else {
		hw.raw(`never`)
	}
	hw.raw(`</td><td><form method="post" action="`)
	hw.url(c.RemovePath)
	hw.raw(`">`)
	csrfField(hw, csrf)
	hw.raw(`<button type="submit" class="remove">Remove</button></form></td></tr>`)
}
