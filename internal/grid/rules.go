// internal/grid/rules.go
package grid

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// FieldRule is one format constraint. VirtualOnly rules are skipped for real
// campaign items.
type FieldRule struct {
	VirtualOnly bool
	Pattern     *regexp.Regexp
	Message     string
}

const (
	storeNumbersMessage = "Please add store numbers in correct format, separated by a comma. E.g., 1421,1123,2141"
	abTestMessage       = "Please follow the number and letter pattern (e.g. 1A, 2A etc.) in 1A/1B or 1V/2V field"

	// StoreNumbersRuleKey is the rule set used by the store number modal.
	StoreNumbersRuleKey = "storeNumbers"
)

var storeNumbersRule = FieldRule{
	Pattern: regexp.MustCompile(`^([0-9]{4}([,]?))+$`),
	Message: storeNumbersMessage,
}

// FieldRules holds the format rules keyed by field name.
var FieldRules = map[string][]FieldRule{
	StoreNumbersRuleKey:        {storeNumbersRule},
	model.FieldConfirmedStores: {storeNumbersRule},
	model.FieldControlStores:   {storeNumbersRule},
	model.FieldStoreNumbers:    {storeNumbersRule},
	model.FieldABTest: {
		{VirtualOnly: true, Pattern: regexp.MustCompile(`^.{2}$`), Message: abTestMessage},
		{VirtualOnly: true, Pattern: regexp.MustCompile(`[0-9]{1}[A-Z]{1}`), Message: abTestMessage},
	},
	model.FieldManualBlacklist: {storeNumbersRule},
	model.FieldCrossSellNASA: {
		{Pattern: regexp.MustCompile(`^[0-9,]+$`), Message: "Please enter the Cross-sell NASA number(s) separated by a comma"},
	},
	model.FieldEvaluationNASA: {
		{Pattern: regexp.MustCompile(`^[0-9,]+$`), Message: "Please enter the Evaluation NASA number(s) separated by a comma"},
	},
	model.FieldDaysOfWeek: {
		{Pattern: regexp.MustCompile(`^(?:[1-7](?:;|$))+$`), Message: "Days of the Week: bad value for restricted picklist field"},
	},
}

// NumberSetFields are canonicalised to comma separated lists before saving.
var NumberSetFields = map[string]bool{
	model.FieldStoreNumbers:    true,
	model.FieldControlStores:   true,
	model.FieldConfirmedStores: true,
	model.FieldNasaNumber:      true,
	model.FieldEvaluationNASA:  true,
	model.FieldSampleNASA:      true,
	model.FieldCrossSellNASA:   true,
	model.FieldManualBlacklist: true,
}

var numberSetReplacer = []struct{ old, new string }{
	{"\r\n", ","},
	{"\n", ","},
	{"\r", ","},
	{"\t", ","},
	{" ,", ","},
	{", ", ","},
	{" ;", ","},
	{"; ", ","},
	{" ", ","},
	{";", ","},
	{",,", ","},
}

// FormatNumberSet rewrites whitespace, semicolon and line separated numbers as a
// comma separated list. Doubled commas are collapsed in a single pass only.
func FormatNumberSet(value string) string {
	for _, r := range numberSetReplacer {
		value = strings.ReplaceAll(value, r.old, r.new)
	}
	return strings.TrimSuffix(value, ",")
}

// FormatNumberSetFields canonicalises every non-empty number-set field in place.
func FormatNumberSetFields(fields model.Record) {
	for field, v := range fields {
		if !NumberSetFields[field] {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			fields[field] = FormatNumberSet(s)
		}
	}
}

// ValidateItem applies the field rules to every drafted field of one row and
// returns the first failure. Empty and null values always pass.
func ValidateItem(id string, fields model.Record) error {
	virtual := model.IsVirtualID(id)

	// fields are checked in name order
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)

	for _, field := range names {
		rules, ok := FieldRules[field]
		if !ok {
			continue
		}
		value, present := ruleValue(fields[field])
		if !present || value == "" {
			continue
		}
		for _, rule := range rules {
			if rule.VirtualOnly && !virtual {
				continue
			}
			if !rule.Pattern.MatchString(value) {
				return appErrors.NewFieldValidation(id, field, rule.Message)
			}
		}
	}
	return nil
}

func ruleValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	default:
		return fmt.Sprint(val), true
	}
}
