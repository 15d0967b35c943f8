// internal/grid/state.go
package grid

import (
	"math/rand"
	"sort"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// Options configures a State.
type Options struct {
	// UnpackVirtualRows lists stored virtual items as rows on load.
	UnpackVirtualRows bool
	// Suffix generates virtual id suffixes. Defaults to three random
	// alphanumeric characters.
	Suffix func() string
}

// State is the grid's working set: the display rowset, the fetched records
// and the pending drafts. It has a single writer; Controller serialises access.
type State struct {
	rows      []*model.DisplayRow
	persisted []model.Record
	drafts    *model.Drafts
	options   []model.PicklistOption
	unpack    bool
	suffix    func() string
}

// NewState returns an empty State.
func NewState(opts Options) *State {
	s := &State{
		drafts: model.NewDrafts(),
		unpack: opts.UnpackVirtualRows,
		suffix: opts.Suffix,
	}
	if s.suffix == nil {
		s.suffix = func() string { return RandomSuffix(3) }
	}
	return s
}

// Load replaces the rowset with freshly fetched items. Drafts are kept and
// laid back over the new rows.
func (s *State) Load(items []model.Record) {
	previous := s.rows
	s.persisted = make([]model.Record, 0, len(items))
	for _, item := range items {
		s.persisted = append(s.persisted, item.Clone())
	}
	s.rows = BuildRows(s.persisted, s.options, s.unpack)
	s.restoreDrafts(previous)
}

// restoreDrafts re-applies the pending drafts to a rebuilt rowset. The
// variants of a parent with a drafted evaluation list follow that list; the
// ones fetched from the stored list are replaced.
func (s *State) restoreDrafts(previous []*model.DisplayRow) {
	if s.drafts.Len() == 0 {
		return
	}
	// variants that were on screen keep their position
	shown := make(map[string]int, len(previous))
	for i, row := range previous {
		shown[row.ID()] = i
	}

	rows := make([]*model.DisplayRow, 0, len(s.rows))
	for _, row := range s.rows {
		id := row.ID()
		if model.IsVirtualID(id) {
			if _, drafted := s.draftedItems(model.ParentID(id)); !drafted {
				rows = append(rows, row)
			}
			continue
		}
		rows = append(rows, row)
		items, drafted := s.draftedItems(id)
		if !drafted {
			continue
		}
		children := make([]*model.DisplayRow, 0, len(items))
		for _, item := range items {
			if _, ok := shown[item.ID()]; ok || s.unpack {
				children = append(children, BuildRow(item, s.options))
			}
		}
		sort.SliceStable(children, func(i, j int) bool {
			return position(shown, children[i].ID()) < position(shown, children[j].ID())
		})
		rows = append(rows, children...)
	}
	s.rows = rows

	for _, draft := range s.drafts.Rows() {
		row := s.row(draft.ID)
		if row == nil {
			continue
		}
		for field, v := range draft.Fields {
			row.Record[field] = v
			if set, ok := labelFields[field]; ok {
				set(row, row.Record.String(field))
			}
		}
	}
}

func position(shown map[string]int, id string) int {
	if i, ok := shown[id]; ok {
		return i
	}
	return len(shown)
}

// draftedItems decodes the drafted evaluation list of parentID. It reports
// false when the list is not drafted or cannot be decoded.
func (s *State) draftedItems(parentID string) ([]model.Record, bool) {
	draft := s.drafts.Get(parentID)
	if !draft.Has(model.FieldEvaluationJSON) {
		return nil, false
	}
	sc, err := model.DecodeSidecar(draft.String(model.FieldEvaluationJSON))
	if err != nil {
		return nil, false
	}
	return sc.Items(), true
}

// SetPicklistOptions attaches the evaluation-ready options to every row.
func (s *State) SetPicklistOptions(options []model.PicklistOption) {
	s.options = options
	for _, row := range s.rows {
		row.EvaluationReadyOptions = options
	}
}

// Rows returns the display rowset. Callers must not mutate it.
func (s *State) Rows() []*model.DisplayRow {
	return s.rows
}

// Drafts returns the pending drafts.
func (s *State) Drafts() *model.Drafts {
	return s.drafts
}

// Persisted returns the records as last fetched.
func (s *State) Persisted() []model.Record {
	return s.persisted
}

// MergeDraft folds one cell edit event into the draft of row id.
func (s *State) MergeDraft(id string, fields model.Record) error {
	if s.rowIndex(id) < 0 {
		return appErrors.ErrRowNotFound
	}
	s.drafts.Merge(id, fields)
	return nil
}

// EditNumberSet stores a number-set value typed in the store number modal:
// the value is canonicalised, checked, drafted and shown on the row.
func (s *State) EditNumberSet(id, field, raw string) error {
	idx := s.rowIndex(id)
	if idx < 0 {
		return appErrors.ErrRowNotFound
	}
	if !NumberSetFields[field] {
		return appErrors.ErrNotNumberSet
	}
	value := FormatNumberSet(raw)
	rule := FieldRules[StoreNumbersRuleKey][0]
	if value != "" && !rule.Pattern.MatchString(value) {
		return appErrors.NewFieldValidation(id, field, rule.Message)
	}

	s.drafts.Merge(id, model.Record{field: value})
	row := s.rows[idx]
	row.Record[field] = value
	if set, ok := labelFields[field]; ok {
		set(row, value)
	}
	return nil
}

// ClearDrafts drops every pending draft.
func (s *State) ClearDrafts() {
	s.drafts.Clear()
}

func (s *State) rowIndex(id string) int {
	for i, row := range s.rows {
		if row.ID() == id {
			return i
		}
	}
	return -1
}

func (s *State) row(id string) *model.DisplayRow {
	if i := s.rowIndex(id); i >= 0 {
		return s.rows[i]
	}
	return nil
}

// currentSidecar returns the stored list of a parent as the user currently
// sees it: the drafted value when drafted, else the row value.
func (s *State) currentSidecar(parentID string) string {
	if draft := s.drafts.Get(parentID); draft.Has(model.FieldEvaluationJSON) {
		return draft.String(model.FieldEvaluationJSON)
	}
	if row := s.row(parentID); row != nil {
		return row.Record.String(model.FieldEvaluationJSON)
	}
	return ""
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomSuffix returns n random alphanumeric characters.
func RandomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}
