package sellsy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Third types accepted by Client.create.
const (
	ClientTypeCorporation = "corporation"
	ClientTypePerson      = "person"
)

// ProductTypeItem is the catalogue entry type for plain products.
const ProductTypeItem = "item"

// Document types accepted by the Document.* methods.
const (
	DocumentTypeInvoice    = "invoice"
	DocumentTypeProforma   = "proforma"
	DocumentTypeCreditNote = "creditnote"
)

// PaymentModeCodes lists the vendor's payment medium syscodes.
var PaymentModeCodes = []string{
	"check", "transfer", "cash", "cb", "pick", "bor", "tip", "lcr",
}

// PaymentDateCodes lists the vendor's payment due-date rule syscodes.
// "custom" is only valid when a custom payment deadline is active on the
// Sellsy account.
var PaymentDateCodes = []string{
	"onorder", "endmonth", "30days", "45days", "60days", "xdays",
	"deadlines", "scaled", "custom",
}

// PropertyDataTypes lists the data types accepted by CustomFields.create.
var PropertyDataTypes = []string{
	"simpletext", "richtext", "numeric", "amount", "unit", "radio",
	"select", "checkbox", "date", "time", "email", "url", "boolean",
	"third", "item", "people", "staff",
}

// paginationAll requests every record of a paginated list in one page.
var paginationAll = map[string]any{
	"nbperpage": 5000,
	"pagenum":   1,
}

// envelope is the outer response shape of every Sellsy API call.
type envelope struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
	Error    json.RawMessage `json:"error"`
}

// FlexInt decodes Sellsy identifiers, which the API returns either as bare
// numbers or as quoted decimal strings.
type FlexInt int64

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("cannot decode %q as identifier", s)
	}
	*n = FlexInt(v)
	return nil
}

// decodeMap decodes a raw response payload into a generic record.
func decodeMap(raw json.RawMessage) (map[string]any, error) {
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return record, nil
}

// yn renders a boolean the way the vendor expects flag parameters.
func yn(v bool) string {
	if v {
		return "Y"
	}
	return "N"
}

// toFloat converts the scalar shapes found in decoded API payloads. The
// vendor serializes most numbers as strings.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case FlexInt:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

// isNumber reports whether v carries a numeric value (strings excluded).
func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number, FlexInt:
		return true
	}
	return false
}

// isFalsy mirrors the truthiness rule used when recording and reading custom
// field values: nil, empty string, false and numeric zero are all "absent".
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	default:
		if f, ok := toFloat(v); ok && isNumber(v) {
			return f == 0
		}
	}
	return false
}

// equalValues compares two payload scalars. Numbers compare numerically
// regardless of width; everything else requires matching types.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumber(a) && isNumber(b) {
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		return af == bf
	}
	switch x := a.(type) {
	case string:
		s, ok := b.(string)
		return ok && x == s
	case bool:
		s, ok := b.(bool)
		return ok && x == s
	}
	return false
}
