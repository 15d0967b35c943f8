package fieldmodal

import (
	"context"

	"github.com/unclebandit/campaign-evaluation/internal/model"
)

const titleConfigError = "Configuration Error - Please contact your administrator"

// Group is one modal of the store numbers section.
type Group struct {
	Fields    []model.Field `json:"fields"`
	LinkLabel string        `json:"linkLabel"`
}

// Section is the store numbers section of a campaign item.
type Section struct {
	Record                model.Record  `json:"record"`
	StoreNumbers          Group         `json:"storeNumbers"`
	ActualStoreNumbers    Group         `json:"actualStoreNumbers"`
	ConfirmedStoreNumbers Group         `json:"confirmedStoreNumbers"`
	Toasts                []model.Toast `json:"toasts,omitempty"`
}

var sectionFields = []string{
	model.FieldStoreNumbers,
	model.FieldActualStoreNumbers,
	model.FieldConfirmedStores,
}

// StoreNumbersSection loads the three store number fields of item id.
func StoreNumbersSection(ctx context.Context, store RecordStore, id string) (*Section, error) {
	rec, err := store.GetRecord(ctx, id, sectionFields...)
	if err != nil {
		return &Section{Toasts: []model.Toast{{
			Title:   titleConfigError,
			Message: err.Error(),
			Variant: model.ToastError,
			Mode:    model.ToastSticky,
		}}}, err
	}

	group := func(apiName, label string) Group {
		contents := []model.FieldContent{{
			Label:   label,
			Value:   rec.String(apiName),
			APIName: apiName,
			Order:   1,
		}}
		return Group{Fields: BuildFields(contents), LinkLabel: LinkLabel(contents)}
	}
	return &Section{
		Record:                rec,
		StoreNumbers:          group(model.FieldStoreNumbers, "Store Numbers"),
		ActualStoreNumbers:    group(model.FieldActualStoreNumbers, "Actual Store Numbers"),
		ConfirmedStoreNumbers: group(model.FieldConfirmedStores, "Confirmed Store Numbers"),
	}, nil
}
