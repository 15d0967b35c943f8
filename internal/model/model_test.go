package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/campaign-evaluation/internal/model"
)

func TestSidecarRoundTrip(t *testing.T) {
	raw := `[{"Id":"a1_xyz","Reach__c":1.50}, "legacy", 42]`

	sc, err := model.DecodeSidecar(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, sc.Len())
	require.Len(t, sc.Items(), 1)
	assert.Equal(t, "a1_xyz", sc.Items()[0].ID())

	out, err := sc.Encode()
	require.NoError(t, err)
	assert.Equal(t, `[{"Id":"a1_xyz","Reach__c":1.50},"legacy",42]`, out)
}

func TestSidecarEmptyAndMalformed(t *testing.T) {
	sc, err := model.DecodeSidecar("")
	require.NoError(t, err)
	assert.Equal(t, 0, sc.Len())

	_, err = model.DecodeSidecar(`{"not":"a list"}`)
	assert.True(t, errors.Is(err, model.ErrMalformedSidecar))

	opaque := model.OpaqueSidecar(`{"not":"a list"}`)
	out, err := opaque.Encode()
	require.NoError(t, err)
	assert.Equal(t, `["{\"not\":\"a list\"}"]`, out)
}

func TestSidecarFindRemove(t *testing.T) {
	sc, err := model.DecodeSidecar(`[{"Id":"a1_aaa"},{"Id":"a1_bbb"}]`)
	require.NoError(t, err)

	assert.NotNil(t, sc.Find("a1_bbb"))
	assert.Nil(t, sc.Find("a1_ccc"))
	assert.True(t, sc.Remove("a1_aaa"))
	assert.False(t, sc.Remove("a1_aaa"))
	assert.Equal(t, 1, sc.Len())

	sc.Append(model.Record{model.FieldID: "a1_ccc"})
	out, err := sc.Encode()
	require.NoError(t, err)
	assert.Equal(t, `[{"Id":"a1_bbb"},{"Id":"a1_ccc"}]`, out)
}

func TestDrafts(t *testing.T) {
	d := model.NewDrafts()
	d.Merge("a2", model.Record{"Name": "x"})
	d.Merge("a1", model.Record{"Reach__c": "1"})
	d.Merge("a2", model.Record{"ABTest__c": nil})

	require.Equal(t, 2, d.Len())
	rows := d.Rows()
	assert.Equal(t, "a2", rows[0].ID)
	assert.Equal(t, model.Record{model.FieldID: "a2", "Name": "x", "ABTest__c": nil}, rows[0].Fields)
	assert.True(t, rows[0].Fields.Has("ABTest__c"))

	snap := d.Snapshot()
	d.Merge("a1", model.Record{"Reach__c": "2"})
	assert.Equal(t, "1", snap.Get("a1")["Reach__c"])

	d.Delete("a2")
	d.Delete("missing")
	assert.Equal(t, 1, d.Len())
	assert.False(t, d.Has("a2"))

	d.Clear()
	assert.Equal(t, 0, d.Len())
}

func TestVirtualIDs(t *testing.T) {
	id := model.VirtualID("a1", "xyz")
	assert.True(t, model.IsVirtualID(id))
	assert.False(t, model.IsVirtualID("a1"))
	assert.Equal(t, "a1", model.ParentID(id))
	assert.Equal(t, "a1", model.ParentID("a1"))
	assert.Equal(t, "xyz", model.VirtualSuffix(id))
}

func TestRecordString(t *testing.T) {
	var nilRecord model.Record
	assert.Equal(t, "", nilRecord.String("Name"))
	assert.Nil(t, nilRecord.Clone())

	r := model.Record{"Name": "n", "Reach__c": 4, "Null__c": nil}
	assert.Equal(t, "n", r.String("Name"))
	assert.Equal(t, "", r.String("Reach__c"))
	assert.True(t, r.Has("Null__c"))
	assert.False(t, r.Has("Absent__c"))
}
