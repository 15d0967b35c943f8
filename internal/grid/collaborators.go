// internal/grid/collaborators.go
package grid

import (
	"context"

	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// Fetcher loads the campaign items of a parent record.
type Fetcher interface {
	FetchCampaignItems(ctx context.Context, recordID string) ([]model.Record, error)
}

// Persister applies a changeset. The warning is shown to the user when set.
type Persister interface {
	UpdateCampaignItems(ctx context.Context, changeset []model.Record) (string, error)
}

// PicklistProvider supplies the allowed values of a picklist field.
type PicklistProvider interface {
	PicklistValues(ctx context.Context, field string) ([]model.PicklistOption, error)
}

// RecalcPublisher hands recalculation jobs to the evaluation engine.
type RecalcPublisher interface {
	PublishRecalculation(ctx context.Context, job model.RecalculationJob) error
}

// Notifier receives every toast produced by the grid.
type Notifier interface {
	Notify(toast model.Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(model.Toast)

func (f NotifierFunc) Notify(t model.Toast) { f(t) }
