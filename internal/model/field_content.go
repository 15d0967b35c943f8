// internal/model/field_content.go
package model

// FieldContent describes one field shown by the field modal.
type FieldContent struct {
	Label          string   `json:"label"`
	Value          string   `json:"value"`
	APIName        string   `json:"apiName"`
	IsPicklist     bool     `json:"isPicklist"`
	Order          int      `json:"order,omitempty"`
	PicklistValues []string `json:"picklistValues,omitempty"`
}

// Field is the normalised form rendered by the modal.
type Field struct {
	Label          string           `json:"label"`
	Value          string           `json:"value"`
	APIName        string           `json:"apiName"`
	IsPicklist     bool             `json:"isPicklist"`
	Order          int              `json:"order"`
	PicklistValues []PicklistOption `json:"picklistValues"`
}
