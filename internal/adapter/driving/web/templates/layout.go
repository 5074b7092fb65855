package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/gerritwatch/internal/adapter/driving/web/viewmodel"
)

// Layout wraps body in the HTML shell shared by every page.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw(`<title>`)
		hw.text(title)
		hw.raw(`</title><link rel="stylesheet" href="/static/style.css"></head><body>`)
		hw.raw(`<nav class="topbar"><a href="/" class="brand">gerritwatch</a><a href="/options">Options</a></nav><main>`)
		if hw.err != nil {
			return hw.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		hw.raw(`</main></body></html>`)
		return hw.err
	})
}

// StatusBanner renders b, or nothing when b is nil.
func StatusBanner(b *vm.Banner) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if b == nil {
			return nil
		}
		hw := &htmlWriter{w: w}
		hw.raw(`<div class="banner banner-`)
		hw.text(string(b.Kind))
		hw.raw(`" role="status">`)
		hw.text(b.Message)
		hw.raw(`</div>`)
		return hw.err
	})
}

func csrfField(hw *htmlWriter, token string) {
	hw.raw(`<input type="hidden" name="csrf_token" value="`)
	hw.text(token)
	hw.raw(`">`)
}
