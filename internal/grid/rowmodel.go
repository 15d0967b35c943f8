// internal/grid/rowmodel.go
package grid

import (
	"strconv"
	"strings"

	"github.com/unclebandit/campaign-evaluation/internal/model"
)

const (
	iconAdd         = "action:add_relationship"
	iconDelete      = "action:delete"
	altTextAdd      = "Duplicate Row"
	altTextDelete   = "Delete Row"
	storeLabelEmpty = "Stores(0)"
)

// StoreLabel renders the button label of a number-set field.
func StoreLabel(storeNumbers string) string {
	if storeNumbers == "" {
		return storeLabelEmpty
	}
	return "Stores(" + strconv.Itoa(len(strings.Split(storeNumbers, ","))) + ")"
}

// labelFields maps a number-set field to the display label it drives.
var labelFields = map[string]func(*model.DisplayRow, string){
	model.FieldConfirmedStores: func(r *model.DisplayRow, v string) { r.ConfirmedStoreNumbersLabel = StoreLabel(v) },
	model.FieldControlStores:   func(r *model.DisplayRow, v string) { r.ManualStoreNumbersLabel = StoreLabel(v) },
	model.FieldManualBlacklist: func(r *model.DisplayRow, v string) { r.ManualBlacklistLabel = StoreLabel(v) },
}

// BuildRow decorates a copy of rec for display.
func BuildRow(rec model.Record, options []model.PicklistOption) *model.DisplayRow {
	row := &model.DisplayRow{
		Record:                 rec.Clone(),
		EvaluationReadyOptions: options,
	}
	if row.Record == nil {
		row.Record = model.Record{}
	}
	for field, set := range labelFields {
		set(row, row.Record.String(field))
	}
	if model.IsVirtualID(row.Record.ID()) {
		row.Action = model.RowActionDelete
		row.Icon = iconDelete
		row.AlternativeText = altTextDelete
	} else {
		row.Action = model.RowActionAdd
		row.Icon = iconAdd
		row.AlternativeText = altTextAdd
	}
	return row
}

// BuildRows turns fetched campaign items into the display rowset. With unpack
// set, the virtual items stored on each parent are listed right after it.
func BuildRows(items []model.Record, options []model.PicklistOption, unpack bool) []*model.DisplayRow {
	rows := make([]*model.DisplayRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, BuildRow(item, options))
		if !unpack || model.IsVirtualID(item.ID()) {
			continue
		}
		sc, err := model.DecodeSidecar(item.String(model.FieldEvaluationJSON))
		if err != nil {
			continue
		}
		for _, child := range sc.Items() {
			rows = append(rows, BuildRow(child, options))
		}
	}
	return rows
}
