package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

func parentItem(id, label, sidecar string) model.Record {
	return model.Record{
		model.FieldID:              id,
		model.FieldName:            "Item " + id,
		model.FieldABTest:          label,
		model.FieldConfirmedStores: "1001,1002",
		model.FieldEvaluationJSON:  sidecar,
		"Reach__c":                 "42",
		"Unrelated__c":             "x",
	}
}

func TestAddVirtual(t *testing.T) {
	s := newState([]model.Record{parentItem("a1", "1A", ""), parentItem("a2", "2A", "")}, false, "xyz")

	row, err := s.AddVirtual("a1")
	require.NoError(t, err)

	assert.Equal(t, "a1_xyz", row.ID())
	assert.Equal(t, model.RowActionDelete, row.Action)
	assert.Equal(t, []string{"a1", "a1_xyz", "a2"}, rowIDs(s.Rows()))

	// inherited fields only
	assert.Equal(t, "Item a1", row.Record[model.FieldName])
	assert.Equal(t, "", row.Record[model.FieldABTest])
	assert.Equal(t, "42", row.Record["Reach__c"])
	assert.Equal(t, "Stores(2)", row.Record[model.FieldAlternateID])
	assert.NotContains(t, row.Record, "Unrelated__c")

	draft := s.Drafts().Get("a1")
	require.NotNil(t, draft)
	sc := mustSidecar(draft.String(model.FieldEvaluationJSON))
	require.Equal(t, 1, sc.Len())
	assert.Equal(t, "a1_xyz", sc.Items()[0].ID())
	assert.Equal(t, draft[model.FieldEvaluationJSON], s.Rows()[0].Record[model.FieldEvaluationJSON])
}

func TestAddVirtualAppendsToDraftedList(t *testing.T) {
	s := newState([]model.Record{parentItem("a1", "1A", "")}, false, "aaa", "bbb")

	_, err := s.AddVirtual("a1")
	require.NoError(t, err)
	_, err = s.AddVirtual("a1")
	require.NoError(t, err)

	sc := mustSidecar(s.Drafts().Get("a1").String(model.FieldEvaluationJSON))
	require.Equal(t, 2, sc.Len())
	assert.Equal(t, "a1_aaa", sc.Items()[0].ID())
	assert.Equal(t, "a1_bbb", sc.Items()[1].ID())
	// newest variant sits right below the parent
	assert.Equal(t, []string{"a1", "a1_bbb", "a1_aaa"}, rowIDs(s.Rows()))
}

func TestAddVirtualRetriesTakenSuffix(t *testing.T) {
	stored := `[{"Id":"a1_aaa","ABTest__c":"1B"}]`
	s := newState([]model.Record{parentItem("a1", "1A", stored)}, false, "aaa", "aaa", "bbb")

	row, err := s.AddVirtual("a1")
	require.NoError(t, err)
	assert.Equal(t, "a1_bbb", row.ID())
}

func TestAddVirtualRejectsVirtualParent(t *testing.T) {
	stored := `[{"Id":"a1_aaa","ABTest__c":"1B"}]`
	s := newState([]model.Record{parentItem("a1", "1A", stored)}, true)

	_, err := s.AddVirtual("a1_aaa")
	assert.ErrorIs(t, err, appErrors.ErrVirtualParent)

	_, err = s.AddVirtual("missing")
	assert.ErrorIs(t, err, appErrors.ErrRowNotFound)
}

func TestAddVirtualKeepsMalformedList(t *testing.T) {
	s := newState([]model.Record{parentItem("a1", "1A", "not json")}, false, "xyz")

	_, err := s.AddVirtual("a1")
	require.NoError(t, err)

	sc := mustSidecar(s.Drafts().Get("a1").String(model.FieldEvaluationJSON))
	require.Equal(t, 2, sc.Len())
	assert.True(t, sc.Entries[0].Opaque())
	assert.JSONEq(t, `"not json"`, string(sc.Entries[0].Raw))
	assert.Equal(t, "a1_xyz", sc.Entries[1].Item.ID())
}

func TestDeleteLastVirtualClearsParent(t *testing.T) {
	s := newState([]model.Record{parentItem("a1", "1A", "")}, false, "xyz")
	_, err := s.AddVirtual("a1")
	require.NoError(t, err)
	require.NoError(t, s.MergeDraft("a1_xyz", model.Record{model.FieldABTest: "1B"}))

	require.NoError(t, s.DeleteVirtual("a1_xyz"))

	assert.Equal(t, []string{"a1"}, rowIDs(s.Rows()))
	assert.False(t, s.Drafts().Has("a1_xyz"))
	draft := s.Drafts().Get("a1")
	require.True(t, draft.Has(model.FieldABTest))
	assert.Nil(t, draft[model.FieldABTest])
	require.True(t, draft.Has(model.FieldEvaluationJSON))
	assert.Nil(t, draft[model.FieldEvaluationJSON])
	assert.Equal(t, "", s.Rows()[0].Record[model.FieldEvaluationJSON])
}

func TestDeleteVirtualKeepsSiblings(t *testing.T) {
	stored := `[{"Id":"a1_aaa","ABTest__c":"1B"},{"Id":"a1_bbb","ABTest__c":"1C"}]`
	s := newState([]model.Record{parentItem("a1", "1A", stored)}, true)
	require.Equal(t, []string{"a1", "a1_aaa", "a1_bbb"}, rowIDs(s.Rows()))

	require.NoError(t, s.DeleteVirtual("a1_aaa"))

	assert.Equal(t, []string{"a1", "a1_bbb"}, rowIDs(s.Rows()))
	draft := s.Drafts().Get("a1")
	assert.False(t, draft.Has(model.FieldABTest))
	sc := mustSidecar(draft.String(model.FieldEvaluationJSON))
	require.Equal(t, 1, sc.Len())
	assert.Equal(t, "a1_bbb", sc.Items()[0].ID())
	assert.Equal(t, "1C", sc.Items()[0].String(model.FieldABTest))
}

func TestDeleteVirtualErrors(t *testing.T) {
	s := newState([]model.Record{parentItem("a1", "1A", "")}, false)

	assert.ErrorIs(t, s.DeleteVirtual("a1"), appErrors.ErrNotVirtual)
	assert.ErrorIs(t, s.DeleteVirtual("a1_nope"), appErrors.ErrRowNotFound)
}

func TestDeleteVirtualWithUnknownEntryLeavesParent(t *testing.T) {
	stored := `[{"Id":"a1_aaa","ABTest__c":"1B"}]`
	s := newState([]model.Record{parentItem("a1", "1A", stored)}, true, "xyz")
	// a variant shown on screen but missing from the parent list
	row, err := s.AddVirtual("a1")
	require.NoError(t, err)
	s.Drafts().Clear()
	s.Rows()[0].Record[model.FieldEvaluationJSON] = stored

	require.NoError(t, s.DeleteVirtual(row.ID()))

	assert.False(t, s.Drafts().Has("a1"))
	assert.Equal(t, []string{"a1", "a1_aaa"}, rowIDs(s.Rows()))
}

func TestUnpackVirtualRows(t *testing.T) {
	stored := `[{"Id":"a1_aaa","ABTest__c":"1B"},"opaque"]`
	items := []model.Record{parentItem("a1", "1A", stored), parentItem("a2", "", "")}

	assert.Equal(t, []string{"a1", "a2"}, rowIDs(newState(items, false).Rows()))
	assert.Equal(t, []string{"a1", "a1_aaa", "a2"}, rowIDs(newState(items, true).Rows()))
}

func TestEditNumberSet(t *testing.T) {
	s := newState([]model.Record{parentItem("a1", "1A", "")}, false)

	require.NoError(t, s.EditNumberSet("a1", model.FieldConfirmedStores, "1001 1002\n1003"))

	row := s.Rows()[0]
	assert.Equal(t, "1001,1002,1003", row.Record[model.FieldConfirmedStores])
	assert.Equal(t, "Stores(3)", row.ConfirmedStoreNumbersLabel)
	assert.Equal(t, "1001,1002,1003", s.Drafts().Get("a1")[model.FieldConfirmedStores])

	err := s.EditNumberSet("a1", model.FieldControlStores, "12")
	assert.True(t, appErrors.IsValidation(err))
	assert.False(t, s.Drafts().Get("a1").Has(model.FieldControlStores))

	assert.ErrorIs(t, s.EditNumberSet("nope", model.FieldControlStores, "1001"), appErrors.ErrRowNotFound)
}

func TestMergeDraft(t *testing.T) {
	s := newState([]model.Record{parentItem("a1", "1A", "")}, false)

	require.NoError(t, s.MergeDraft("a1", model.Record{model.FieldName: "x"}))
	require.NoError(t, s.MergeDraft("a1", model.Record{model.FieldABTest: "2a"}))

	assert.Equal(t, 1, s.Drafts().Len())
	assert.Equal(t, model.Record{model.FieldID: "a1", model.FieldName: "x", model.FieldABTest: "2a"}, s.Drafts().Get("a1"))
	assert.ErrorIs(t, s.MergeDraft("nope", model.Record{}), appErrors.ErrRowNotFound)
}
