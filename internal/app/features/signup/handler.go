package signup

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/signup/metrics"
	"github.com/dalemusser/signup/middleware"
	"github.com/dalemusser/signup/pantry/session"
	"github.com/dalemusser/signup/pantry/validate"
	"github.com/dalemusser/signup/pantry/websocket"
	"github.com/dalemusser/signup/templates"
)

const draftKey = "signup_draft"

// Options tunes the live validation websocket.
type Options struct {
	// BasePath is where Routes is mounted. Defaults to "/signup".
	BasePath string
	// AllowedOrigins are extra hosts permitted to open the websocket.
	AllowedOrigins []string
	// Live overrides websocket.DefaultConfig when non-zero.
	Live websocket.Config
	// CORS wraps the JSON validation endpoint. Nil means same-origin only.
	CORS func(http.Handler) http.Handler
}

// Handler serves the signup form. Each request rebuilds its own Form from
// the session draft, so no validation state is shared between requests.
type Handler struct {
	views    *templates.Engine
	sessions *session.Manager
	logger   *zap.Logger
	base     string
	accept   websocket.AcceptOptions
	live     websocket.Config
	cors     func(http.Handler) http.Handler
}

// NewHandler wires the handler's dependencies.
func NewHandler(views *templates.Engine, sessions *session.Manager, logger *zap.Logger, opts Options) *Handler {
	if opts.BasePath == "" {
		opts.BasePath = "/signup"
	}
	if opts.Live == (websocket.Config{}) {
		opts.Live = websocket.DefaultConfig()
	}
	return &Handler{
		views:    views,
		sessions: sessions,
		logger:   logger,
		base:     opts.BasePath,
		accept:   websocket.AcceptOptions{OriginPatterns: opts.AllowedOrigins},
		live:     opts.Live,
		cors:     opts.CORS,
	}
}

// Routes returns the signup router. Mount it at BasePath.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.form)
	r.Post("/", h.submit)
	r.Post("/reset", h.reset)
	r.Group(func(r chi.Router) {
		if h.cors != nil {
			r.Use(h.cors)
			r.Options("/validate", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		}
		r.With(middleware.RequireJSON()).Post("/validate", h.validateField)
	})
	r.Get("/live", h.liveSocket)
	return r
}

// loadDraft returns the request's session and a Form restored from it.
func (h *Handler) loadDraft(r *http.Request) (*session.Session, *validate.Form, Draft, error) {
	sess, err := h.sessions.Get(r)
	if err != nil {
		return nil, nil, Draft{}, err
	}
	var d Draft
	if _, err := sess.Get(draftKey, &d); err != nil {
		// A draft written by an older build is discarded rather than
		// failing the page.
		h.logger.Warn("discarding unreadable draft", zap.Error(err))
		d = Draft{}
	}
	f := NewForm()
	f.Restore(d.Form)
	return sess, f, d, nil
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request, sess *session.Session, f *validate.Form, showPassword bool) error {
	if err := sess.Put(draftKey, Draft{Form: f.Snapshot(), ShowPassword: showPassword}); err != nil {
		return err
	}
	return h.sessions.Save(w, r, sess)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// form renders the current draft. Only touched invalid fields show errors.
func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	sess, f, d, err := h.loadDraft(r)
	if err != nil {
		h.serverError(w, r, "load session failed", err)
		return
	}
	if sess.IsNew() {
		if err := h.saveDraft(w, r, sess, f, false); err != nil {
			h.serverError(w, r, "save session failed", err)
			return
		}
	}
	h.views.Render(w, http.StatusOK, "signup_form", newFormView(f, d.ShowPassword, false, h.base))
}

// submit binds the posted values and runs the submission gate. A blocked
// submission re-renders the form with every field touched; an allowed one
// shows the confirmation and destroys the session.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	sess, f, _, err := h.loadDraft(r)
	if err != nil {
		h.serverError(w, r, "load session failed", err)
		return
	}
	showPassword := BindDraft(f, r.PostForm)

	var ev validate.Event
	decision := validate.Gate(f, &ev)

	reasons := make(map[string]string, len(decision.Invalid))
	for _, name := range decision.Invalid {
		reasons[name] = string(f.State(name).Reason)
	}
	metrics.ObserveSubmission(decision.Allowed, reasons)
	h.logger.Info("signup submit",
		zap.Bool("allowed", decision.Allowed),
		zap.Strings("invalid", decision.Invalid))

	if ev.DefaultPrevented() {
		if err := h.saveDraft(w, r, sess, f, showPassword); err != nil {
			h.serverError(w, r, "save session failed", err)
			return
		}
		h.views.Render(w, http.StatusUnprocessableEntity, "signup_form", newFormView(f, showPassword, true, h.base))
		return
	}

	done := doneView{
		Name:     f.Value(FieldName),
		Nickname: f.Value(FieldNickname),
		Email:    f.Value(FieldEmail),
		FormPath: h.base,
	}
	if err := h.sessions.Destroy(w, r, sess); err != nil {
		h.serverError(w, r, "destroy session failed", err)
		return
	}
	h.views.Render(w, http.StatusOK, "signup_done", done)
}

// reset drops the session, draft included, and returns to an empty form.
func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r)
	if err != nil {
		h.serverError(w, r, "load session failed", err)
		return
	}
	if err := h.sessions.Destroy(w, r, sess); err != nil {
		h.serverError(w, r, "destroy session failed", err)
		return
	}
	http.Redirect(w, r, h.base, http.StatusSeeOther)
}
