// Package fieldmodal edits a few fields of one campaign item in a modal and
// renders the store numbers section built from it.
package fieldmodal

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-evaluation/internal/model"
)

const (
	// NoneLabel is the empty picklist choice.
	NoneLabel = "--None--"

	msgValueUpdated = "Value updated"
	msgRecalculate  = "Please expect some delay before evaluation recalculation is done. Refresh the page to see the updated results later"

	titleSuccess     = "Success"
	titleUpdateError = "Update Error"
)

// RecordStore reads and writes single campaign items.
type RecordStore interface {
	GetRecord(ctx context.Context, id string, fields ...string) (model.Record, error)
	UpdateRecord(ctx context.Context, rec model.Record) error
}

// BuildFields normalises field contents for display, ordered by Order.
// Picklist fields get a leading empty choice.
func BuildFields(contents []model.FieldContent) []model.Field {
	fields := make([]model.Field, 0, len(contents))
	for _, c := range contents {
		f := model.Field{
			Label:          c.Label,
			Value:          c.Value,
			APIName:        c.APIName,
			IsPicklist:     c.IsPicklist,
			Order:          c.Order,
			PicklistValues: []model.PicklistOption{{Label: NoneLabel, Value: ""}},
		}
		if c.IsPicklist {
			for _, v := range c.PicklistValues {
				f.PicklistValues = append(f.PicklistValues, model.PicklistOption{Label: v, Value: v})
			}
		}
		fields = append(fields, f)
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })
	return fields
}

// LinkLabel is the text of the link opening the modal: the picklist value,
// or the number of comma separated stores.
func LinkLabel(contents []model.FieldContent) string {
	if len(contents) == 0 {
		return ""
	}
	if contents[0].IsPicklist {
		if contents[0].Value == "" {
			return NoneLabel
		}
		return contents[0].Value
	}
	value := BuildFields(contents)[0].Value
	n := 0
	if value != "" {
		n = len(strings.Split(value, ","))
	}
	return "Stores (" + strconv.Itoa(n) + ")"
}

// Modal saves field edits on one record.
type Modal struct {
	Store  RecordStore
	Logger *zap.Logger
}

// SaveResult is the outcome of a modal save.
type SaveResult struct {
	Record model.Record  `json:"record"`
	Toasts []model.Toast `json:"toasts"`
}

// Save applies edits for the given fields onto a copy of record and persists
// it. Changing a text field announces a recalculation.
func (m *Modal) Save(ctx context.Context, record model.Record, fields []model.Field, edits map[string]string) (*SaveResult, error) {
	message := msgValueUpdated
	updated := record.Clone()
	if updated == nil {
		updated = model.Record{}
	}
	for _, f := range fields {
		value, ok := edits[f.APIName]
		if !ok {
			continue
		}
		if !f.IsPicklist && record.String(f.APIName) != value {
			message = msgRecalculate
		}
		updated[f.APIName] = value
	}

	if err := m.Store.UpdateRecord(ctx, updated); err != nil {
		m.logger().Warn("field update failed", zap.String("id", updated.ID()), zap.Error(err))
		return &SaveResult{Record: record, Toasts: []model.Toast{{
			Title:   titleUpdateError,
			Message: err.Error(),
			Variant: model.ToastError,
			Mode:    model.ToastSticky,
		}}}, err
	}
	return &SaveResult{Record: updated, Toasts: []model.Toast{{
		Title:   titleSuccess,
		Message: message,
		Variant: model.ToastSuccess,
		Mode:    model.ToastDismissible,
	}}}, nil
}

func (m *Modal) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}
