// internal/controller/account_controller.go
package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-evaluation/internal/account"
	"github.com/unclebandit/campaign-evaluation/internal/lookup"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// AccountController serves the account forms and their name typeahead.
type AccountController struct {
	Service     *account.Service
	Searcher    lookup.Searcher
	LookupLimit int
	Logger      *zap.Logger
}

type createResponse struct {
	Account *model.Account `json:"account"`
}

// Routes mounts the account endpoints on r.
func (c *AccountController) Routes(r chi.Router) {
	r.Get("/accounts/lookup", c.Lookup)
	r.Get("/accounts/lookup/config", c.LookupConfig)
	r.Post("/accounts", c.Create)
	r.Patch("/accounts/{id}", c.Rename)
}

func (c *AccountController) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// LookupConfig returns the typeahead configuration of the account forms.
func (c *AccountController) LookupConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, account.LookupConfig())
}

// Lookup searches account names for the term query parameter. The exclude
// parameter keeps the account being renamed out of the results.
func (c *AccountController) Lookup(w http.ResponseWriter, r *http.Request) {
	l, err := lookup.New(account.LookupConfig(), c.Searcher, c.LookupLimit)
	if err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	if id := r.URL.Query().Get("exclude"); id != "" {
		l.ExcludeRecord(id)
	}

	change, err := l.Change(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

// Create inserts a non-endemic account.
func (c *AccountController) Create(w http.ResponseWriter, r *http.Request) {
	var req account.CreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	a, toasts, err := c.Service.Create(r.Context(), req)
	if err != nil {
		writeError(w, c.logger(), err, toasts)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{Account: a})
}

// Rename changes the name of an account.
func (c *AccountController) Rename(w http.ResponseWriter, r *http.Request) {
	var req account.RenameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	toasts, err := c.Service.Rename(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, c.logger(), err, toasts)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
