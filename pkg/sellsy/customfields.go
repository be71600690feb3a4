package sellsy

// FieldKind tags the typed slot a custom field value was read from.
type FieldKind int

const (
	FieldAbsent FieldKind = iota
	FieldBool
	FieldDecimal
	FieldFormatted
	FieldNumeric
	FieldText
	FieldTimestamp
)

// FieldValue is a custom field value resolved from the vendor's typed slots.
type FieldValue struct {
	Kind  FieldKind
	Value any
}

// IsAbsent reports whether no slot carried a usable value.
func (v FieldValue) IsAbsent() bool {
	return v.Kind == FieldAbsent
}

// valueSlots is the fixed precedence order of the vendor's typed value slots.
var valueSlots = []struct {
	key  string
	kind FieldKind
}{
	{"boolval", FieldBool},
	{"decimalval", FieldDecimal},
	{"formatted_value", FieldFormatted},
	{"numericval", FieldNumeric},
	{"stringval", FieldText},
	{"textval", FieldText},
	{"timestampval", FieldTimestamp},
}

// resolveFieldValue picks the first slot holding a non-falsy value. A custom
// field legitimately set to false, 0 or "" is indistinguishable from an
// absent one under this rule; callers must live with that.
func resolveFieldValue(field map[string]any) FieldValue {
	for _, slot := range valueSlots {
		if v, ok := field[slot.key]; ok && !isFalsy(v) {
			return FieldValue{Kind: slot.kind, Value: v}
		}
	}
	return FieldValue{Kind: FieldAbsent}
}

// customFieldsOf extracts the customfields list from a fetched record.
func customFieldsOf(record map[string]any) []map[string]any {
	list, _ := record["customfields"].([]any)
	fields := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if field, ok := item.(map[string]any); ok {
			fields = append(fields, field)
		}
	}
	return fields
}

// ClientPropertyValue looks up a field on a fetched client or contact record:
// standard fields first, then the custom fields by code.
func ClientPropertyValue(record map[string]any, name string) any {
	if v, ok := record[name]; ok {
		return v
	}

	for _, field := range customFieldsOf(record) {
		code, _ := field["code"].(string)
		if code != name {
			continue
		}
		if v := resolveFieldValue(field); !v.IsAbsent() {
			return v.Value
		}
	}

	return nil
}

// checkStandardOrCustomField reports whether the field named key holds value,
// checking the standard fields first and then every typed slot of a matching
// custom field.
func checkStandardOrCustomField(record map[string]any, key string, value any) bool {
	if equalValues(record[key], value) {
		return true
	}

	for _, field := range customFieldsOf(record) {
		code, _ := field["code"].(string)
		if code != key {
			continue
		}
		for _, slot := range valueSlots {
			if equalValues(field[slot.key], value) {
				return true
			}
		}
		return false
	}

	return false
}
