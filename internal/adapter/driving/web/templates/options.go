package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/gerritwatch/internal/adapter/driving/web/viewmodel"
)

// Options renders the endpoint configuration form. Save and Test submit the
// same fields to different actions.
func Options(data vm.OptionsViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := StatusBanner(data.Banner).Render(ctx, w); err != nil {
			return err
		}

		hw := &htmlWriter{w: w}
		hw.raw(`<form method="post" action="/options" class="options">`)
		csrfField(hw, data.CSRFToken)

		hw.raw(`<fieldset><legend>General</legend>`)
		hw.raw(`<label>Refresh time (seconds) <input type="number" name="refresh_time" min="1" value="`)
		hw.text(strconv.Itoa(data.RefreshTime))
		hw.raw(`"></label></fieldset>`)

		hw.raw(`<fieldset><legend>Gerrit</legend>`)
		hw.raw(`<label>Endpoint <input type="url" name="endpoint" placeholder="https://review.example.org" value="`)
		hw.text(data.Endpoint)
		hw.raw(`"></label>`)
		hw.raw(`<label>Email <input type="text" name="email" autocomplete="username" value="`)
		hw.text(data.Email)
		hw.raw(`"></label>`)
		hw.raw(`<label>HTTP password <input type="password" name="password" autocomplete="current-password"`)
		if data.HasPassword {
			hw.raw(` placeholder="unchanged"`)
		}
		hw.raw(`></label></fieldset>`)

		hw.raw(`<div class="actions">`)
		hw.raw(`<button type="submit" formaction="/options/test" class="secondary">Test</button>`)
		hw.raw(`<button type="submit">Save</button></div></form>`)
		return hw.err
	})
}
