// internal/grid/virtual.go
package grid

import (
	"fmt"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// InheritedFields are copied from a campaign item onto each new variant.
var InheritedFields = []string{
	model.FieldName,
	model.FieldConfirmedStores,
	model.FieldEvaluationNASA,
	"Blacklist_Control_Stores__c",
	"Start_Week_Pre_period__c",
	model.FieldDaysOfWeek,
	"Number_of_Week__c",
	model.FieldCrossSellNASA,
	model.FieldSampleNASA,
	"EvaluationReady__c",
	model.FieldEvaluationReadySel,
	model.FieldMediaCampaign,
	"Reach__c",
	"Campaign_Item_ID__c",
	"ADvendio__From_Date__c",
	"ADvendio__Until_Date__c",
	"Year_Pre_period__c",
	"From_Week_Year__c",
	"From_Week__c",
	"Until_Week__c",
	"Until_Week_Year__c",
	"OverlapBlacklist__c",
	"ABBlacklist__c",
	"ADvendio__Internal_comment__c",
}

// maxSuffixAttempts bounds the search for a free virtual id.
const maxSuffixAttempts = 64

// AddVirtual creates an A/B test variant of the real row parentID, stores it
// in the parent's evaluation list, drafts the new list on the parent and
// shows the variant right below the parent.
func (s *State) AddVirtual(parentID string) (*model.DisplayRow, error) {
	idx := s.rowIndex(parentID)
	if idx < 0 {
		return nil, appErrors.ErrRowNotFound
	}
	if model.IsVirtualID(parentID) {
		return nil, appErrors.ErrVirtualParent
	}
	parent := s.rows[idx]

	raw := s.currentSidecar(parentID)
	sc, err := model.DecodeSidecar(raw)
	if err != nil {
		sc = model.OpaqueSidecar(raw)
	}

	id, err := s.newVirtualID(parentID, sc)
	if err != nil {
		return nil, err
	}
	item := newVirtualItem(parent.Record, id)
	sc.Append(item)

	encoded, err := sc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode evaluation json of %s: %w", parentID, err)
	}
	parent.Record[model.FieldEvaluationJSON] = encoded
	s.drafts.Merge(parentID, model.Record{model.FieldEvaluationJSON: encoded})

	row := BuildRow(item, s.options)
	s.rows = append(s.rows, nil)
	copy(s.rows[idx+2:], s.rows[idx+1:])
	s.rows[idx+1] = row
	return row, nil
}

// DeleteVirtual removes variant id from its parent's evaluation list, the
// drafts and the rowset. Removing the last variant clears the parent's A/B
// test label and list.
func (s *State) DeleteVirtual(id string) error {
	if !model.IsVirtualID(id) {
		return appErrors.ErrNotVirtual
	}
	if s.rowIndex(id) < 0 {
		return appErrors.ErrRowNotFound
	}
	parentID := model.ParentID(id)
	parent := s.row(parentID)
	if parent == nil {
		return appErrors.ErrParentNotFound
	}

	// an undecodable list is left as stored
	if sc, err := model.DecodeSidecar(s.currentSidecar(parentID)); err == nil && sc.Remove(id) {
		if sc.Len() == 0 {
			s.drafts.Merge(parentID, model.Record{
				model.FieldABTest:         nil,
				model.FieldEvaluationJSON: nil,
			})
			parent.Record[model.FieldEvaluationJSON] = ""
		} else {
			encoded, err := sc.Encode()
			if err != nil {
				return fmt.Errorf("encode evaluation json of %s: %w", parentID, err)
			}
			s.drafts.Merge(parentID, model.Record{model.FieldEvaluationJSON: encoded})
			parent.Record[model.FieldEvaluationJSON] = encoded
		}
	}

	s.drafts.Delete(id)
	idx := s.rowIndex(id)
	s.rows = append(s.rows[:idx], s.rows[idx+1:]...)
	return nil
}

func newVirtualItem(parent model.Record, id string) model.Record {
	item := model.Record{
		model.FieldID:     id,
		model.FieldABTest: "",
	}
	for _, field := range InheritedFields {
		if v, ok := parent[field]; ok {
			item[field] = v
		}
	}
	item[model.FieldAlternateID] = StoreLabel(parent.String(model.FieldConfirmedStores))
	return item
}

func (s *State) newVirtualID(parentID string, sc *model.Sidecar) (string, error) {
	for i := 0; i < maxSuffixAttempts; i++ {
		id := model.VirtualID(parentID, s.suffix())
		if s.rowIndex(id) < 0 && sc.Find(id) == nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free virtual id for %s after %d attempts", parentID, maxSuffixAttempts)
}
