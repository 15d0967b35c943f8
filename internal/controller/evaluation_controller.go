// internal/controller/evaluation_controller.go
package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/grid"
	"github.com/unclebandit/campaign-evaluation/internal/model"
	"github.com/unclebandit/campaign-evaluation/internal/service"
)

// EvaluationController exposes evaluation grid sessions over HTTP.
type EvaluationController struct {
	Service *service.EvaluationService
	Logger  *zap.Logger
}

type openRequest struct {
	RecordID string `json:"record_id"`
}

type openResponse struct {
	SessionID string    `json:"session_id"`
	View      grid.View `json:"view"`
}

type numberSetRequest struct {
	Value string `json:"value"`
}

type toastsResponse struct {
	Toasts []model.Toast `json:"toasts,omitempty"`
	View   grid.View     `json:"view"`
}

type saveResponse struct {
	Saved  bool          `json:"saved"`
	Toasts []model.Toast `json:"toasts"`
	View   grid.View     `json:"view"`
}

type rowResponse struct {
	Row  *model.DisplayRow `json:"row"`
	View grid.View         `json:"view"`
}

// Routes mounts the session endpoints on r.
func (c *EvaluationController) Routes(r chi.Router) {
	r.Post("/evaluations", c.Open)
	r.Route("/evaluations/{sessionID}", func(r chi.Router) {
		r.Get("/", c.Get)
		r.Delete("/", c.Close)
		r.Post("/save", c.Save)
		r.Post("/cancel", c.Cancel)
		r.Post("/refresh", c.Refresh)
		r.Patch("/rows/{rowID}", c.EditCells)
		r.Put("/rows/{rowID}/number-sets/{field}", c.EditNumberSet)
		r.Post("/rows/{rowID}/variants", c.Add)
		r.Delete("/rows/{rowID}", c.Delete)
	})
}

func (c *EvaluationController) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *EvaluationController) session(w http.ResponseWriter, r *http.Request) (*grid.Controller, bool) {
	ctrl, err := c.Service.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, c.logger(), err, nil)
		return nil, false
	}
	return ctrl, true
}

// Open starts a session on the record named in the body.
func (c *EvaluationController) Open(w http.ResponseWriter, r *http.Request) {
	var body openRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	if body.RecordID == "" {
		writeError(w, c.logger(), &appErrors.RequestValidationError{Fields: map[string]string{"record_id": "required"}}, nil)
		return
	}

	id, view, err := c.Service.Open(r.Context(), body.RecordID)
	if err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, openResponse{SessionID: id, View: view})
}

// Get returns the current rows and drafts.
func (c *EvaluationController) Get(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

// Close discards the session.
func (c *EvaluationController) Close(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.Close(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EditCells merges the fields of the body into the draft of a row.
func (c *EvaluationController) EditCells(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.session(w, r)
	if !ok {
		return
	}
	var fields model.Record
	if err := decodeBody(r, &fields); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	if err := ctrl.EditCells(chi.URLParam(r, "rowID"), fields); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

// EditNumberSet stores a store number list typed in the modal.
func (c *EvaluationController) EditNumberSet(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.session(w, r)
	if !ok {
		return
	}
	var body numberSetRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	toasts, err := ctrl.EditNumberSet(chi.URLParam(r, "rowID"), chi.URLParam(r, "field"), body.Value)
	if err != nil {
		writeError(w, c.logger(), err, toasts)
		return
	}
	writeJSON(w, http.StatusOK, toastsResponse{Toasts: toasts, View: ctrl.View()})
}

// Add duplicates a row into a new virtual variant.
func (c *EvaluationController) Add(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.session(w, r)
	if !ok {
		return
	}
	row, err := ctrl.Add(chi.URLParam(r, "rowID"))
	if err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, rowResponse{Row: row, View: ctrl.View()})
}

// Delete removes a virtual row.
func (c *EvaluationController) Delete(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.session(w, r)
	if !ok {
		return
	}
	if err := ctrl.Delete(chi.URLParam(r, "rowID")); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

// Save validates and persists the drafts.
func (c *EvaluationController) Save(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.session(w, r)
	if !ok {
		return
	}
	res, err := ctrl.Save(r.Context())
	if err != nil {
		var toasts []model.Toast
		if res != nil {
			toasts = res.Toasts
		}
		writeError(w, c.logger(), err, toasts)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Saved: res.Saved, Toasts: res.Toasts, View: ctrl.View()})
}

// Cancel drops the drafts and reloads the rows.
func (c *EvaluationController) Cancel(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.session(w, r)
	if !ok {
		return
	}
	if err := ctrl.Cancel(r.Context()); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

// Refresh reloads the rows, keeping the drafts.
func (c *EvaluationController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.session(w, r)
	if !ok {
		return
	}
	if err := ctrl.Refresh(r.Context()); err != nil {
		writeError(w, c.logger(), err, nil)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}
