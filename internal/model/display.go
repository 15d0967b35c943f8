// internal/model/display.go
package model

import "encoding/json"

// RowAction is the affordance offered on a grid row.
type RowAction string

const (
	RowActionAdd    RowAction = "add"
	RowActionDelete RowAction = "delete"
)

// PicklistOption is one selectable value of a picklist field.
type PicklistOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DisplayRow is a grid row: the record plus display-only decorations.
type DisplayRow struct {
	Record                     Record           `json:"-"`
	ConfirmedStoreNumbersLabel string           `json:"ConfirmedStoreNumbersLabel"`
	ManualStoreNumbersLabel    string           `json:"ManualStoreNumbersLabel"`
	ManualBlacklistLabel       string           `json:"ManualBlacklistLabel"`
	Action                     RowAction        `json:"actionName"`
	Icon                       string           `json:"dynamicIcon"`
	AlternativeText            string           `json:"alternativeText"`
	EvaluationReadyOptions     []PicklistOption `json:"evaluationReadyOptions"`
}

// ID returns the row's record id.
func (r *DisplayRow) ID() string {
	return r.Record.ID()
}

// MarshalJSON flattens the record fields and the decorations into one object,
// the shape grid widgets bind to.
func (r DisplayRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Record)+7)
	for k, v := range r.Record {
		out[k] = v
	}
	out["ConfirmedStoreNumbersLabel"] = r.ConfirmedStoreNumbersLabel
	out["ManualStoreNumbersLabel"] = r.ManualStoreNumbersLabel
	out["ManualBlacklistLabel"] = r.ManualBlacklistLabel
	out["actionName"] = r.Action
	out["dynamicIcon"] = r.Icon
	out["alternativeText"] = r.AlternativeText
	options := r.EvaluationReadyOptions
	if options == nil {
		options = []PicklistOption{}
	}
	out["evaluationReadyOptions"] = options
	return json.Marshal(out)
}

// Toast variants and modes
const (
	ToastSuccess = "success"
	ToastWarning = "warning"
	ToastError   = "error"

	ToastDismissible = "dismissible"
	ToastSticky      = "sticky"
)

// Toast is a user-visible notification.
type Toast struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Variant string `json:"variant"`
	Mode    string `json:"mode"`
}
