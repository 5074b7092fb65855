// Package templates holds the templ components that make up the GUI.
package templates

import (
	"io"

	"github.com/a-h/templ"
)

// htmlWriter writes escaped and raw fragments, keeping the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// url writes an attribute-safe URL. Unsafe schemes become about:invalid.
func (hw *htmlWriter) url(s string) {
	hw.text(string(templ.URL(s)))
}
