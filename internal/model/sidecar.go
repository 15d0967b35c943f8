// internal/model/sidecar.go
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedSidecar is returned when Evaluation_JSON__c is not a JSON array.
var ErrMalformedSidecar = errors.New("malformed evaluation json")

// SidecarEntry is one element of a parent's Evaluation_JSON__c list. Item is
// nil for opaque entries, which are kept byte for byte in Raw.
type SidecarEntry struct {
	Item Record
	Raw  json.RawMessage
}

// Opaque reports whether the entry is not a virtual item object.
func (e SidecarEntry) Opaque() bool {
	return e.Item == nil
}

// Sidecar is the decoded, ordered list of virtual items stored on a parent.
type Sidecar struct {
	Entries []SidecarEntry
}

// DecodeSidecar parses the stored field value. An empty value decodes to an
// empty list.
func DecodeSidecar(raw string) (*Sidecar, error) {
	s := &Sidecar{}
	if raw == "" {
		return s, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSidecar, err)
	}

	for _, elem := range elems {
		trimmed := bytes.TrimSpace(elem)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			item, err := decodeRecord(trimmed)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedSidecar, err)
			}
			s.Entries = append(s.Entries, SidecarEntry{Item: item})
			continue
		}
		s.Entries = append(s.Entries, SidecarEntry{Raw: append(json.RawMessage(nil), trimmed...)})
	}
	return s, nil
}

// OpaqueSidecar wraps an undecodable stored value as a single string entry so
// that the stored text survives the next encode.
func OpaqueSidecar(raw string) *Sidecar {
	b, _ := json.Marshal(raw)
	return &Sidecar{Entries: []SidecarEntry{{Raw: b}}}
}

// Encode serialises the list back to its stored form.
func (s *Sidecar) Encode() (string, error) {
	out := make([]any, 0, len(s.Entries))
	for _, e := range s.Entries {
		if e.Opaque() {
			out = append(out, e.Raw)
			continue
		}
		out = append(out, e.Item)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Items returns the virtual items in order, skipping opaque entries.
func (s *Sidecar) Items() []Record {
	items := make([]Record, 0, len(s.Entries))
	for _, e := range s.Entries {
		if !e.Opaque() {
			items = append(items, e.Item)
		}
	}
	return items
}

// Len counts all entries, opaque ones included.
func (s *Sidecar) Len() int {
	return len(s.Entries)
}

// Append adds a virtual item at the end of the list.
func (s *Sidecar) Append(item Record) {
	s.Entries = append(s.Entries, SidecarEntry{Item: item})
}

// Find returns the first item with the given id.
func (s *Sidecar) Find(id string) Record {
	for _, e := range s.Entries {
		if !e.Opaque() && e.Item.ID() == id {
			return e.Item
		}
	}
	return nil
}

// Remove drops the first item with the given id and reports whether one was found.
func (s *Sidecar) Remove(id string) bool {
	for i, e := range s.Entries {
		if !e.Opaque() && e.Item.ID() == id {
			s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// DecodeRecord parses a JSON object keeping numbers as json.Number so that
// re-encoding does not alter their text.
func DecodeRecord(b []byte) (Record, error) {
	return decodeRecord(b)
}

func decodeRecord(b []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}
