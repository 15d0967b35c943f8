// internal/model/draft.go
package model

// DraftRow holds the fields touched on one row since the last save or cancel.
type DraftRow struct {
	ID     string `json:"id"`
	Fields Record `json:"fields"`
}

// Drafts is an insertion-ordered set of DraftRow with at most one row per id.
type Drafts struct {
	order []string
	rows  map[string]Record
}

// NewDrafts returns an empty draft set.
func NewDrafts() *Drafts {
	return &Drafts{rows: make(map[string]Record)}
}

// Get returns the draft fields for id, or nil.
func (d *Drafts) Get(id string) Record {
	return d.rows[id]
}

// Has reports whether a draft exists for id.
func (d *Drafts) Has(id string) bool {
	_, ok := d.rows[id]
	return ok
}

// Merge overlays fields on the draft for id, creating the draft when missing.
// Fields already drafted and absent from fields are kept.
func (d *Drafts) Merge(id string, fields Record) {
	row, ok := d.rows[id]
	if !ok {
		row = Record{FieldID: id}
		d.rows[id] = row
		d.order = append(d.order, id)
	}
	for k, v := range fields {
		row[k] = v
	}
	row[FieldID] = id
}

// Delete drops the draft for id.
func (d *Drafts) Delete(id string) {
	if _, ok := d.rows[id]; !ok {
		return
	}
	delete(d.rows, id)
	for i, o := range d.order {
		if o == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of drafted rows.
func (d *Drafts) Len() int {
	return len(d.order)
}

// Rows returns copies of the drafts in insertion order.
func (d *Drafts) Rows() []DraftRow {
	rows := make([]DraftRow, 0, len(d.order))
	for _, id := range d.order {
		rows = append(rows, DraftRow{ID: id, Fields: d.rows[id].Clone()})
	}
	return rows
}

// Snapshot returns a deep enough copy to be read while d keeps changing.
func (d *Drafts) Snapshot() *Drafts {
	s := NewDrafts()
	for _, id := range d.order {
		s.order = append(s.order, id)
		s.rows[id] = d.rows[id].Clone()
	}
	return s
}

// Clear drops every draft.
func (d *Drafts) Clear() {
	d.order = nil
	d.rows = make(map[string]Record)
}
