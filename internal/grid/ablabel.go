// internal/grid/ablabel.go
package grid

import (
	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

const (
	// DefaultDuplicateABMessage follows the duplicated label in the error text.
	DefaultDuplicateABMessage = "ABTest value has to be unique across Campaign Items"

	msgEmptyVirtualLabel = "ABTest should not be empty for Virtual Campaign Items"
	msgEmptyParentLabel  = "ABTest should not be empty if Virtual Campaign Items exists"
)

// labelIndex maps every label in force to the ids holding it.
type labelIndex map[string][]string

func (l labelIndex) add(id, label string) {
	if label != "" {
		l[label] = append(l[label], id)
	}
}

// heldByOther reports whether any entity other than id carries label.
func (l labelIndex) heldByOther(id, label string) bool {
	for _, holder := range l[label] {
		if holder != id {
			return true
		}
	}
	return false
}

// effectiveLabel is the drafted label when the change sets one, else the
// persisted label. A drafted null clears it.
func effectiveLabel(change, persisted model.Record) string {
	if change.Has(model.FieldABTest) {
		return change.String(model.FieldABTest)
	}
	return persisted.String(model.FieldABTest)
}

func effectiveSidecar(change, persisted model.Record) string {
	if change.Has(model.FieldEvaluationJSON) {
		return change.String(model.FieldEvaluationJSON)
	}
	return persisted.String(model.FieldEvaluationJSON)
}

func sidecarItems(raw string) []model.Record {
	if raw == "" {
		return nil
	}
	sc, err := model.DecodeSidecar(raw)
	if err != nil {
		return nil
	}
	return sc.Items()
}

// buildLabelIndex collects the labels of every real item and of every
// variant in each real item's effective evaluation list.
func buildLabelIndex(changes map[string]model.Record, persisted []model.Record) labelIndex {
	idx := labelIndex{}
	for _, rec := range persisted {
		id := rec.ID()
		if model.IsVirtualID(id) {
			continue
		}
		change := changes[id]
		idx.add(id, effectiveLabel(change, rec))
		for _, item := range sidecarItems(effectiveSidecar(change, rec)) {
			idx.add(item.ID(), item.String(model.FieldABTest))
		}
	}
	return idx
}

// ValidateABLabels checks the A/B test labels touched by a changeset against
// each other and against every label in force. The first violation is
// returned.
func ValidateABLabels(changeset []model.Record, persisted []model.Record, duplicateMessage string) error {
	if duplicateMessage == "" {
		duplicateMessage = DefaultDuplicateABMessage
	}
	duplicate := func(label string) error {
		return appErrors.NewABLabel(label, label+": "+duplicateMessage)
	}

	changes := make(map[string]model.Record, len(changeset))
	for _, entry := range changeset {
		changes[entry.ID()] = entry
	}
	persistedByID := make(map[string]model.Record, len(persisted))
	for _, rec := range persisted {
		persistedByID[rec.ID()] = rec
	}
	idx := buildLabelIndex(changes, persisted)

	for _, entry := range changeset {
		id := entry.ID()
		stored := persistedByID[id]
		label := effectiveLabel(entry, stored)

		if entry.String(model.FieldEvaluationJSON) != "" {
			items := sidecarItems(entry.String(model.FieldEvaluationJSON))
			if len(items) > 0 && label == "" {
				return appErrors.NewABLabel("", msgEmptyParentLabel)
			}
			for _, item := range items {
				itemLabel := item.String(model.FieldABTest)
				switch {
				case itemLabel == "":
					return appErrors.NewABLabel("", msgEmptyVirtualLabel)
				case itemLabel == label:
					return duplicate(itemLabel)
				case idx.heldByOther(item.ID(), itemLabel):
					return duplicate(itemLabel)
				}
			}
		} else if entry.Has(model.FieldABTest) && label == "" && !entry.Has(model.FieldEvaluationJSON) &&
			len(sidecarItems(stored.String(model.FieldEvaluationJSON))) > 0 {
			return appErrors.NewABLabel("", msgEmptyParentLabel)
		}

		if label != "" && idx.heldByOther(id, label) {
			return duplicate(label)
		}
	}
	return nil
}
