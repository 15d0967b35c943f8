// internal/model/record.go
package model

import "strings"

// Campaign item API field names
const (
	FieldID                  = "Id"
	FieldName                = "Name"
	FieldABTest              = "ABTest__c"
	FieldEvaluationJSON      = "Evaluation_JSON__c"
	FieldConfirmedStores     = "ConfirmedStoreNumbers__c"
	FieldControlStores       = "Control_Stores__c"
	FieldManualBlacklist     = "ManualBlacklist__c"
	FieldStoreNumbers        = "Store_Numbers__c"
	FieldActualStoreNumbers  = "Actual_Store_Numbers__c"
	FieldNasaNumber          = "Nasa_number__c"
	FieldEvaluationNASA      = "EvaluationNASA__c"
	FieldSampleNASA          = "Sample_NASA__c"
	FieldCrossSellNASA       = "CrossSellNASA__c"
	FieldDaysOfWeek          = "Days_of_the_Week__c"
	FieldAlternateID         = "ADvendio__AlternateId__c"
	FieldEvaluationReadySel  = "EvaluationReadySelection__c"
	FieldMediaCampaign       = "ADvendio__Media_Campaign__c"
	FieldRecalcRequestedAt   = "EvaluationRecalcRequestedAt__c"
	VirtualIDSeparator       = "_"
	virtualIDSeparatorLength = len(VirtualIDSeparator)
)

// Record is a CRM record keyed by API field name. A key holding nil is an
// explicit null, which is different from an absent key.
type Record map[string]any

// ID returns the record identifier or "" when absent.
func (r Record) ID() string {
	return r.String(FieldID)
}

// String returns the field as a string. Absent, null and non-string values
// yield "".
func (r Record) String(field string) string {
	if r == nil {
		return ""
	}
	s, _ := r[field].(string)
	return s
}

// Has reports whether the field is present, including explicit nulls.
func (r Record) Has(field string) bool {
	if r == nil {
		return false
	}
	_, ok := r[field]
	return ok
}

// Clone returns a shallow copy. Field values are JSON scalars so a shallow
// copy is enough to keep callers from aliasing each other.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge overwrites every field of other onto r.
func (r Record) Merge(other Record) {
	for k, v := range other {
		r[k] = v
	}
}

// IsVirtualID reports whether id names a virtual item.
func IsVirtualID(id string) bool {
	return strings.Contains(id, VirtualIDSeparator)
}

// ParentID returns the part of a virtual id before the first separator.
func ParentID(id string) string {
	if i := strings.Index(id, VirtualIDSeparator); i >= 0 {
		return id[:i]
	}
	return id
}

// VirtualID joins a parent id and a suffix.
func VirtualID(parentID, suffix string) string {
	return parentID + VirtualIDSeparator + suffix
}

// VirtualSuffix returns the part of a virtual id after the first separator.
func VirtualSuffix(id string) string {
	if i := strings.Index(id, VirtualIDSeparator); i >= 0 {
		return id[i+virtualIDSeparatorLength:]
	}
	return ""
}
