// components/users/users.go
//
// Users component – create-user flow.
//
// Routes (mounted under /users):
//
//	GET  /new   – render the create form with defaults
//	POST /new   – form-encoded submit; re-renders with errors applied
//	POST /      – JSON submit; answers with the action envelope
//	GET  /{id}  – JSON read-back of a saved user
//
// Both submit paths run the same wrapped action, so the page and the API
// can never disagree on validation or on what an internal failure looks
// like.
//
//------------------------------------------------------------------------------

package users

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/action"
	"github.com/yanizio/formaction/internal/component"
	"github.com/yanizio/formaction/internal/core"
	"github.com/yanizio/formaction/internal/form"
	"github.com/yanizio/formaction/internal/formstate"
	"github.com/yanizio/formaction/internal/schema"
	"github.com/yanizio/formaction/internal/user"
	"github.com/yanizio/formaction/internal/view"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the users pages and API.
type Component struct {
	def    *form.FormDef
	csrf   *form.CSRF
	store  user.Store
	create action.Action[user.CreateUserInput, user.CreatedUser]
}

// New builds the component.  The create form must be present in forms and
// agree with user.CreateSchema field for field.
func New(forms *form.Registry, csrf *form.CSRF, store user.Store, opts ...action.Option) (*Component, error) {
	fd, err := forms.Lookup(user.CreateFormID)
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	if err := fd.Check(user.CreateSchema.Fields()); err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	return &Component{
		def:    fd,
		csrf:   csrf,
		store:  store,
		create: user.NewCreateAction(store, opts...),
	}, nil
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "users" }

// Routes builds the router mounted at “/users”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/new", c.handleNewGET)
	r.Post("/new", c.handleNewPOST)
	r.Post("/", action.Handler(c.create))
	r.Get("/{id}", c.handleGet)
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleNewGET(w http.ResponseWriter, r *http.Request) {
	c.page(w, r, http.StatusOK, c.def.NewState(), "")
}

func (c *Component) handleNewPOST(w http.ResponseWriter, r *http.Request) {
	raw, err := form.Parse(r, c.csrf)
	switch {
	case errors.Is(err, form.ErrInvalidToken):
		st := c.def.NewState()
		c.def.Fill(st, raw)
		formstate.Apply(st, schema.FlattenedErrors{FormErrors: []string{form.TokenMessage}})
		c.page(w, r, http.StatusForbidden, st, "")
		return
	case err != nil:
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res := c.create(r.Context(), raw)
	if res.OK() {
		out := res.Data()
		c.page(w, r, http.StatusOK, c.def.NewState(), fmt.Sprintf("Created %s <%s>.", out.Name, out.Email))
		return
	}

	st := c.def.NewState()
	c.def.Fill(st, raw)
	env := res.Envelope()
	formstate.Apply(st, *env.Error)

	status := http.StatusUnprocessableEntity
	if res.Kind() == action.KindInternalFailure {
		status = http.StatusInternalServerError
	}
	c.page(w, r, status, st, "")
}

func (c *Component) handleGet(w http.ResponseWriter, r *http.Request) {
	u, err := c.store.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, user.ErrNotFound):
		action.WriteJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		core.FromContext(r.Context()).Log.Error("user lookup failed", zap.Error(err))
		action.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": action.InternalErrorMessage})
	default:
		action.WriteJSON(w, http.StatusOK, u)
	}
}

/*──────────────────────────── Rendering ────────────────────────────────────*/

func (c *Component) page(w http.ResponseWriter, r *http.Request, status int, st *formstate.State, flash string) {
	log := core.FromContext(r.Context()).Log

	body, err := form.Render(c.def, st, form.RenderOptions{CSRF: c.csrf})
	if err != nil {
		log.Error("form render failed", zap.String("form", c.def.ID), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	lang := "en"
	if info := core.FromContext(r.Context()).Info; info != nil && info.UA.PrimaryLang != "" {
		lang = info.UA.PrimaryLang
	}
	if err := view.Render(w, status, view.Page{Title: c.def.Title, Lang: lang, Flash: flash, Body: body}); err != nil {
		log.Warn("page write failed", zap.Error(err))
	}
}
