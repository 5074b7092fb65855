// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/gerritwatch/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/gerritwatch/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/gerritwatch/internal/application"
	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

// Banner messages shown by the options page.
const (
	msgSaveSuccess   = "Options saved. Polling restarts with the new configuration."
	msgMissingConfig = "Missing configuration: fill in the refresh time, endpoint, and credentials."
	msgTestSuccess   = "Connection to Gerrit succeeded."
	msgTestFailed    = "Connection to Gerrit failed. Check the endpoint and HTTP credentials."
	msgCSRFFailed    = "Your session expired. Reload the page and try again."
)

// ChangeRefresher polls a single change on demand.
type ChangeRefresher interface {
	RefreshChange(ctx context.Context, changeID string) error
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	changeStore driven.ChangeStore
	optionsSvc  *application.OptionsService
	refresher   ChangeRefresher
	endpoint    *application.EndpointProvider
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
// refresher may be nil, in which case new changes wait for the next cycle.
func NewHandler(
	changeStore driven.ChangeStore,
	optionsSvc *application.OptionsService,
	refresher ChangeRefresher,
	endpoint *application.EndpointProvider,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		changeStore: changeStore,
		optionsSvc:  optionsSvc,
		refresher:   refresher,
		endpoint:    endpoint,
		logger:      logger,
		now:         time.Now,
	}
}

// Dashboard renders the tracked changes with the full HTML layout.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, http.StatusOK, nil)
}

// AddChange starts tracking the change named in the form.
func (h *Handler) AddChange(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		h.renderDashboard(w, r, http.StatusForbidden, &vm.Banner{Kind: vm.BannerError, Message: msgCSRFFailed})
		return
	}

	changeID := strings.TrimSpace(r.FormValue("change_id"))
	if !model.ValidChangeID(changeID) {
		h.renderDashboard(w, r, http.StatusBadRequest, &vm.Banner{Kind: vm.BannerWarning, Message: "Enter a change number or Change-Id."})
		return
	}

	if err := h.changeStore.Add(r.Context(), changeID); err != nil {
		if errors.Is(err, driven.ErrChangeAlreadyTracked) {
			h.renderDashboard(w, r, http.StatusConflict, &vm.Banner{Kind: vm.BannerWarning, Message: "Change " + changeID + " is already tracked."})
			return
		}
		h.logger.Error("failed to add change", "change_id", changeID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if h.refresher != nil && h.endpoint.IsConfigured() {
		go func() {
			if err := h.refresher.RefreshChange(context.Background(), changeID); err != nil {
				h.logger.Error("async change refresh failed", "change_id", changeID, "error", err)
			}
		}()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RemoveChange stops tracking a change.
func (h *Handler) RemoveChange(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		h.renderDashboard(w, r, http.StatusForbidden, &vm.Banner{Kind: vm.BannerError, Message: msgCSRFFailed})
		return
	}

	changeID := r.PathValue("id")
	if err := h.changeStore.Remove(r.Context(), changeID); err != nil && !errors.Is(err, driven.ErrChangeNotTracked) {
		h.logger.Error("failed to remove change", "change_id", changeID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Options renders the options form populated from the saved options.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	opts, err := h.optionsSvc.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load options", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.renderOptions(w, r, http.StatusOK, toOptionsViewModel(opts), nil)
}

// SaveOptions persists the submitted options and restarts polling.
func (h *Handler) SaveOptions(w http.ResponseWriter, r *http.Request) {
	opts := optionsFromForm(r)
	form := toOptionsViewModel(opts)

	if !validateCSRF(r) {
		h.renderOptions(w, r, http.StatusForbidden, form, &vm.Banner{Kind: vm.BannerError, Message: msgCSRFFailed})
		return
	}

	err := h.optionsSvc.Update(r.Context(), opts)
	switch {
	case err == nil:
		saved, loadErr := h.optionsSvc.Load(r.Context())
		if loadErr == nil {
			form = toOptionsViewModel(saved)
		}
		h.renderOptions(w, r, http.StatusOK, form, &vm.Banner{Kind: vm.BannerSuccess, Message: msgSaveSuccess})
	case errors.Is(err, application.ErrMissingConfig):
		h.renderOptions(w, r, http.StatusBadRequest, form, &vm.Banner{Kind: vm.BannerWarning, Message: msgMissingConfig})
	case errors.Is(err, application.ErrInvalidConfig):
		h.renderOptions(w, r, http.StatusBadRequest, form, &vm.Banner{Kind: vm.BannerWarning, Message: err.Error()})
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		h.renderOptions(w, r, http.StatusConflict, form, &vm.Banner{Kind: vm.BannerError, Message: driven.ErrEncryptionKeyNotSet.Error()})
	default:
		h.logger.Error("failed to save options", "error", err)
		h.renderOptions(w, r, http.StatusInternalServerError, form, &vm.Banner{Kind: vm.BannerError, Message: "Saving failed. See the server log for details."})
	}
}

// TestOptions probes the submitted endpoint without saving anything.
func (h *Handler) TestOptions(w http.ResponseWriter, r *http.Request) {
	opts := optionsFromForm(r)
	form := toOptionsViewModel(opts)

	if !validateCSRF(r) {
		h.renderOptions(w, r, http.StatusForbidden, form, &vm.Banner{Kind: vm.BannerError, Message: msgCSRFFailed})
		return
	}

	// An untouched password field means "use the stored one".
	if opts.Credentials.Password == "" {
		if saved, err := h.optionsSvc.Load(r.Context()); err == nil && saved.Credentials.Email == opts.Credentials.Email {
			opts.Credentials.Password = saved.Credentials.Password
			form.HasPassword = opts.Credentials.Password != ""
		}
	}

	ok, err := h.optionsSvc.TestEndpoint(r.Context(), opts)
	banner := &vm.Banner{Kind: vm.BannerSuccess, Message: msgTestSuccess}
	switch {
	case errors.Is(err, application.ErrMissingConfig):
		banner = &vm.Banner{Kind: vm.BannerWarning, Message: msgMissingConfig}
	case !ok:
		banner = &vm.Banner{Kind: vm.BannerError, Message: msgTestFailed}
	}

	h.renderOptions(w, r, http.StatusOK, form, banner)
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, banner *vm.Banner) {
	changes, err := h.changeStore.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list changes", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	current := h.endpoint.Get()
	data := vm.DashboardViewModel{
		Changes:    toChangeRowViewModels(changes, current.Endpoint, h.now()),
		Configured: current.IsConfigured(),
		Endpoint:   current.Endpoint,
		CSRFToken:  csrfToken(w, r),
		Banner:     banner,
	}

	h.render(w, r, status, "gerritwatch", templates.Dashboard(data))
}

func (h *Handler) renderOptions(w http.ResponseWriter, r *http.Request, status int, form vm.OptionsViewModel, banner *vm.Banner) {
	form.CSRFToken = csrfToken(w, r)
	form.Banner = banner
	h.render(w, r, status, "gerritwatch options", templates.Options(form))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title string, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Layout(title, body).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
	}
}

// optionsFromForm reads the options form. An unparsable refresh time becomes
// zero and is rejected by validation.
func optionsFromForm(r *http.Request) model.Options {
	refresh, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("refresh_time")))
	return model.Options{
		RefreshTime: refresh,
		Endpoint:    strings.TrimSpace(r.FormValue("endpoint")),
		Credentials: model.Credentials{
			Email:    strings.TrimSpace(r.FormValue("email")),
			Password: r.FormValue("password"),
		},
	}
}
