// internal/grid/controller.go
package grid

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/metrics"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// EvaluationReadyField is the picklist attached to every row.
const EvaluationReadyField = "ADvendio__Campaign_Item__c." + model.FieldEvaluationReadySel

const (
	titleSuccess       = "Success"
	titleWarning       = "Warning"
	titleError         = "Error"
	titleErrorOnUpdate = "Error on update"
	titleUpdateFailed  = "Error Updating Campaign Items"

	msgSaved             = "Campaign Items updated"
	msgSavedRecalculated = "Campaign Items updated. Please expect some delay before recalculation is done. Refresh the page to see the updated results later"
)

// Config wires a Controller.
type Config struct {
	RecordID           string
	Fetcher            Fetcher
	Persister          Persister
	Picklists          PicklistProvider
	Publisher          RecalcPublisher
	Notifier           Notifier
	Logger             *zap.Logger
	Metrics            *metrics.Metrics
	DuplicateABMessage string
	Options            Options
}

// View is a copy of the grid taken under the controller lock.
type View struct {
	RecordID string             `json:"record_id"`
	Rows     []model.DisplayRow `json:"rows"`
	Drafts   []model.DraftRow   `json:"drafts"`
	Busy     bool               `json:"busy"`
}

// SaveResult reports the outcome of Save.
type SaveResult struct {
	Saved  bool          `json:"saved"`
	Toasts []model.Toast `json:"toasts"`
}

// Controller runs the evaluation grid of one parent record. Every event is
// handled to completion under mu; Save releases mu while the backend call is
// in flight and marks the grid busy, which rejects other events.
type Controller struct {
	mu    sync.Mutex
	state *State
	busy  bool

	recordID   string
	fetcher    Fetcher
	persister  Persister
	picklists  PicklistProvider
	publisher  RecalcPublisher
	notifier   Notifier
	logger     *zap.Logger
	metrics    *metrics.Metrics
	dupMessage string
}

// NewController returns a Controller with an empty rowset. Call Load to fetch.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		state:      NewState(cfg.Options),
		recordID:   cfg.RecordID,
		fetcher:    cfg.Fetcher,
		persister:  cfg.Persister,
		picklists:  cfg.Picklists,
		publisher:  cfg.Publisher,
		notifier:   cfg.Notifier,
		logger:     logger.With(zap.String("record_id", cfg.RecordID)),
		metrics:    cfg.Metrics,
		dupMessage: cfg.DuplicateABMessage,
	}
}

// RecordID returns the parent record the grid belongs to.
func (c *Controller) RecordID() string {
	return c.recordID
}

// Load fetches the picklist options and the campaign items. A picklist
// failure is logged and the rows are shown without options.
func (c *Controller) Load(ctx context.Context) error {
	var options []model.PicklistOption
	if c.picklists != nil {
		var err error
		options, err = c.picklists.PicklistValues(ctx, EvaluationReadyField)
		if err != nil {
			c.logger.Warn("error retrieving picklist values", zap.Error(err))
		}
	}

	items, err := c.fetcher.FetchCampaignItems(ctx, c.recordID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetPicklistOptions(options)
	c.state.Load(items)
	c.logger.Debug("campaign items loaded", zap.Int("rows", len(items)))
	return nil
}

// Refresh re-fetches the campaign items keeping drafts.
func (c *Controller) Refresh(ctx context.Context) error {
	items, err := c.fetcher.FetchCampaignItems(ctx, c.recordID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Load(items)
	return nil
}

// SetPicklistOptions re-attaches new picklist options to every row.
func (c *Controller) SetPicklistOptions(options []model.PicklistOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetPicklistOptions(options)
}

// Busy reports whether a save is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// View returns a copy of rows and drafts.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]model.DisplayRow, 0, len(c.state.Rows()))
	for _, r := range c.state.Rows() {
		cp := *r
		cp.Record = r.Record.Clone()
		rows = append(rows, cp)
	}
	return View{
		RecordID: c.recordID,
		Rows:     rows,
		Drafts:   c.state.Drafts().Rows(),
		Busy:     c.busy,
	}
}

// EditCells merges a cell edit event for row id.
func (c *Controller) EditCells(id string, fields model.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return appErrors.ErrSaveInProgress
	}
	return c.state.MergeDraft(id, fields)
}

// EditNumberSet stores a number-set typed in the store number modal. A
// format failure is returned and reported as a toast.
func (c *Controller) EditNumberSet(id, field, raw string) ([]model.Toast, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, appErrors.ErrSaveInProgress
	}

	err := c.state.EditNumberSet(id, field, raw)
	var fv *appErrors.FieldValidationError
	if errors.As(err, &fv) {
		c.metrics.IncValidationFailure("format")
		return c.notify(nil, model.Toast{
			Title:   titleError,
			Message: fv.Message,
			Variant: model.ToastError,
			Mode:    model.ToastDismissible,
		}), err
	}
	return nil, err
}

// Add duplicates row parentID as a new virtual row.
func (c *Controller) Add(parentID string) (*model.DisplayRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, appErrors.ErrSaveInProgress
	}

	row, err := c.state.AddVirtual(parentID)
	if err != nil {
		return nil, err
	}
	c.metrics.IncVirtualRows("add")
	c.logger.Info("virtual campaign item added", zap.String("parent_id", parentID), zap.String("id", row.ID()))
	cp := *row
	cp.Record = row.Record.Clone()
	return &cp, nil
}

// Delete removes virtual row id.
func (c *Controller) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return appErrors.ErrSaveInProgress
	}

	if err := c.state.DeleteVirtual(id); err != nil {
		return err
	}
	c.metrics.IncVirtualRows("delete")
	c.logger.Info("virtual campaign item deleted", zap.String("id", id))
	return nil
}

// Cancel drops the drafts and re-fetches. A fetch failure is logged only.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return appErrors.ErrSaveInProgress
	}
	c.state.ClearDrafts()
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("refresh after cancel failed", zap.Error(err))
	}
	return nil
}

// Save validates the drafts, sends the changeset and re-fetches. Validation
// failures never reach the backend. On any failure the drafts are kept.
func (c *Controller) Save(ctx context.Context) (*SaveResult, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, appErrors.ErrSaveInProgress
	}
	result := &SaveResult{}
	drafts := c.state.Drafts().Snapshot()
	if drafts.Len() == 0 {
		c.mu.Unlock()
		return result, nil
	}

	cs, err := c.state.PrepareSave(drafts, c.dupMessage)
	if err != nil {
		result.Toasts = c.reportValidation(err)
		c.metrics.IncSave("invalid")
		c.mu.Unlock()
		return result, err
	}
	c.busy = true
	c.mu.Unlock()

	warning, err := c.persister.UpdateCampaignItems(ctx, cs.Entries)
	if err != nil {
		c.mu.Lock()
		c.busy = false
		result.Toasts = c.reportBackend(err)
		c.mu.Unlock()
		c.metrics.IncSave("rejected")
		c.logger.Error("campaign item update failed", zap.Error(err), zap.Strings("ids", cs.IDs()))
		return result, err
	}

	msg := msgSaved
	if cs.RequiresRecalculation {
		msg = msgSavedRecalculated
	}
	c.mu.Lock()
	result.Saved = true
	result.Toasts = c.notify(result.Toasts, model.Toast{
		Title:   titleSuccess,
		Message: msg,
		Variant: model.ToastSuccess,
		Mode:    model.ToastDismissible,
	})
	if warning != "" {
		result.Toasts = c.notify(result.Toasts, model.Toast{
			Title:   titleWarning,
			Message: warning,
			Variant: model.ToastWarning,
			Mode:    model.ToastSticky,
		})
	}
	c.state.ClearDrafts()
	c.mu.Unlock()
	c.metrics.IncSave("saved")
	c.logger.Info("campaign items updated", zap.Strings("ids", cs.IDs()), zap.Bool("recalculation", cs.RequiresRecalculation))

	if cs.RequiresRecalculation {
		c.requestRecalculation(ctx, cs.IDs())
	}

	items, err := c.fetcher.FetchCampaignItems(ctx, c.recordID)
	c.mu.Lock()
	if err != nil {
		c.logger.Warn("refresh after save failed", zap.Error(err))
	} else {
		c.state.Load(items)
	}
	c.busy = false
	c.mu.Unlock()
	return result, nil
}

func (c *Controller) requestRecalculation(ctx context.Context, ids []string) {
	if c.publisher == nil {
		return
	}
	job := model.RecalculationJob{
		ID:              uuid.NewString(),
		RecordID:        c.recordID,
		CampaignItemIDs: ids,
		RequestedAt:     time.Now().UTC(),
	}
	if err := c.publisher.PublishRecalculation(ctx, job); err != nil {
		c.metrics.IncRecalculation("failed")
		c.logger.Warn("failed to publish recalculation job", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	c.metrics.IncRecalculation("queued")
}

func (c *Controller) reportValidation(err error) []model.Toast {
	var toasts []model.Toast
	for _, e := range flatten(err) {
		var ab *appErrors.ABLabelError
		if errors.As(e, &ab) {
			c.metrics.IncValidationFailure("ab_label")
		} else {
			c.metrics.IncValidationFailure("format")
		}
		toasts = c.notify(toasts, model.Toast{
			Title:   titleErrorOnUpdate,
			Message: e.Error(),
			Variant: model.ToastError,
			Mode:    model.ToastSticky,
		})
	}
	return toasts
}

func (c *Controller) reportBackend(err error) []model.Toast {
	var toasts []model.Toast
	var be *appErrors.BackendError
	if !errors.As(err, &be) {
		return c.notify(toasts, model.Toast{
			Title:   titleUpdateFailed,
			Message: err.Error(),
			Variant: model.ToastError,
			Mode:    model.ToastSticky,
		})
	}

	for _, entry := range be.Errors {
		toasts = c.notify(toasts, model.Toast{
			Title:   titleErrorOnUpdate,
			Message: entry.Code + "- " + entry.Message,
			Variant: model.ToastError,
			Mode:    model.ToastSticky,
		})
	}
	msg := be.FirstFieldMessage()
	if msg == "" {
		msg = be.Message
	}
	if msg != "" {
		toasts = c.notify(toasts, model.Toast{
			Title:   titleUpdateFailed,
			Message: msg,
			Variant: model.ToastError,
			Mode:    model.ToastSticky,
		})
	}
	return toasts
}

func (c *Controller) notify(toasts []model.Toast, t model.Toast) []model.Toast {
	if c.notifier != nil {
		c.notifier.Notify(t)
	}
	return append(toasts, t)
}

// flatten unpacks errors.Join results.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
