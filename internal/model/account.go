// internal/model/account.go
package model

import "time"

// RecordTypeNonEndemic is the account record type managed by the account forms.
const RecordTypeNonEndemic = "Non_Endemic"

// Account is a customer account.
type Account struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	RecordType  string     `db:"record_type" json:"record_type"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// LookupConfig describes a typeahead field.
type LookupConfig struct {
	SObjectType   string   `json:"sObjectType" validate:"required"`
	SObjectField  string   `json:"sObjectField" validate:"required"`
	Conditions    []string `json:"conditions"`
	OrderBy       []string `json:"orderBy"`
	FieldLabel    string   `json:"fieldLabel"`
	Title         string   `json:"title"`
	Type          string   `json:"type"`
	MinimumLength int      `json:"minimumLength" validate:"gte=0"`
	Required      bool     `json:"required"`
	ResultsLabel  string   `json:"resultsLabel"`
	DefaultValue  string   `json:"defaultValue"`
}

// LookupResult is one search hit. FormattedName carries the matched part in <b>.
type LookupResult struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	FormattedName string `json:"formattedName"`
}

// SearchQuery is a name search over accounts.
type SearchQuery struct {
	Term       string
	RecordType string
	ExcludeIDs []string
	Descending bool
	Limit      int
}
