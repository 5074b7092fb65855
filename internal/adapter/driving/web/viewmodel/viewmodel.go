// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// BannerKind selects the styling of a status banner.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerWarning BannerKind = "warning"
	BannerError   BannerKind = "error"
)

// Banner is a one-line status message shown above a page's content.
type Banner struct {
	Kind    BannerKind
	Message string
}

// ChangeRowViewModel holds presentation-ready data for one tracked change.
type ChangeRowViewModel struct {
	ChangeID string

	// SubjectHTML is sanitized inline HTML and may be rendered raw.
	SubjectHTML string

	// State is one of "new", "merged", "abandoned", "missing", "failed", or "pending".
	State      string
	StateLabel string

	// Closed marks merged and abandoned changes, which no longer move.
	Closed bool

	Verified   string
	CodeReview string

	// VerifiedClass and CodeReviewClass are "vote-pos", "vote-neg", or "vote-none".
	VerifiedClass   string
	CodeReviewClass string

	PolledAgo  string
	AddedAgo   string
	GerritURL  string
	RemovePath string
}

// DashboardViewModel holds everything the dashboard page renders.
type DashboardViewModel struct {
	Changes    []ChangeRowViewModel
	Configured bool
	Endpoint   string
	CSRFToken  string
	Banner     *Banner
}

// OptionsViewModel holds the options form. The stored password is never
// rendered; HasPassword tells the form to show a placeholder instead.
type OptionsViewModel struct {
	RefreshTime int
	Endpoint    string
	Email       string
	HasPassword bool
	CSRFToken   string
	Banner      *Banner
}
