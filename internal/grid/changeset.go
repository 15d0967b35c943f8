// internal/grid/changeset.go
package grid

import (
	"errors"
	"strings"

	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// EvaluationFields trigger a recalculation of evaluation results when saved.
var EvaluationFields = []string{
	model.FieldABTest,
	model.FieldConfirmedStores,
	model.FieldEvaluationNASA,
}

// Changeset is what a save sends to the backend: one entry per real row.
type Changeset struct {
	Entries               []model.Record
	RequiresRecalculation bool
}

// IDs returns the entry ids in order.
func (c *Changeset) IDs() []string {
	ids := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		ids = append(ids, e.ID())
	}
	return ids
}

type changesetBuilder struct {
	order   []string
	entries map[string]model.Record
}

func (b *changesetBuilder) get(id string) model.Record {
	return b.entries[id]
}

func (b *changesetBuilder) put(id string, entry model.Record) {
	if _, ok := b.entries[id]; !ok {
		b.order = append(b.order, id)
	}
	b.entries[id] = entry
}

// PrepareSave normalises and validates the drafts and folds them into a
// changeset. Field format failures are collected for every row; the A/B
// label rules run only when all rows passed.
func (s *State) PrepareSave(drafts *model.Drafts, duplicateMessage string) (*Changeset, error) {
	b := &changesetBuilder{entries: make(map[string]model.Record)}
	cs := &Changeset{}
	var fieldErrs []error

	for _, draft := range drafts.Rows() {
		fields := draft.Fields
		if label, ok := fields[model.FieldABTest].(string); ok && label != "" {
			fields[model.FieldABTest] = strings.ToUpper(label)
		}
		FormatNumberSetFields(fields)
		if err := ValidateItem(draft.ID, fields); err != nil {
			fieldErrs = append(fieldErrs, err)
			continue
		}
		for _, f := range EvaluationFields {
			if fields.Has(f) {
				cs.RequiresRecalculation = true
			}
		}

		if model.IsVirtualID(draft.ID) {
			s.foldVirtual(b, drafts, draft.ID, fields)
		} else if entry := b.get(draft.ID); entry != nil {
			for k, v := range fields {
				if k != model.FieldEvaluationJSON {
					entry[k] = v
				}
			}
		} else {
			b.put(draft.ID, fields.Clone())
		}
	}
	if len(fieldErrs) > 0 {
		return nil, errors.Join(fieldErrs...)
	}

	for _, id := range b.order {
		entry := b.entries[id]
		if entry.String(model.FieldName) == "" {
			if row := s.row(id); row != nil && row.Record.Has(model.FieldName) {
				entry[model.FieldName] = row.Record[model.FieldName]
			}
		}
		cs.Entries = append(cs.Entries, entry)
	}

	if err := ValidateABLabels(cs.Entries, s.persisted, duplicateMessage); err != nil {
		return nil, err
	}
	return cs, nil
}

// foldVirtual writes a variant's drafted fields into its parent's evaluation
// list on the parent's changeset entry. Edits to variants whose parent has no
// decodable list are dropped.
func (s *State) foldVirtual(b *changesetBuilder, drafts *model.Drafts, id string, fields model.Record) {
	parentID := model.ParentID(id)
	parent := s.row(parentID)
	if parent == nil {
		return
	}

	entry := b.get(parentID)
	var raw string
	switch {
	case entry.Has(model.FieldEvaluationJSON):
		raw = entry.String(model.FieldEvaluationJSON)
	case drafts.Get(parentID).Has(model.FieldEvaluationJSON):
		raw = drafts.Get(parentID).String(model.FieldEvaluationJSON)
	default:
		raw = parent.Record.String(model.FieldEvaluationJSON)
	}
	if raw == "" {
		return
	}
	sc, err := model.DecodeSidecar(raw)
	if err != nil {
		return
	}
	if item := sc.Find(id); item != nil {
		item.Merge(fields)
	}
	encoded, err := sc.Encode()
	if err != nil {
		return
	}

	if entry == nil {
		entry = model.Record{model.FieldID: parentID}
	}
	entry[model.FieldEvaluationJSON] = encoded
	b.put(parentID, entry)
}
