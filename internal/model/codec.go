package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Warning reports a field that was skipped while decoding a payload.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return w.Field + ": " + w.Message
}

// Encode serializes a bid as the canonical flat JSON object.
func Encode(b BidRecord) ([]byte, error) {
	return json.Marshal(b)
}

// EncodeIndent is Encode with two-space indentation, used for file exports.
func EncodeIndent(b BidRecord) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// Equal reports whether two bids serialize identically. Decimal amounts with
// different internal exponents but equal values compare equal.
func Equal(a, b BidRecord) bool {
	ea, errA := Encode(a)
	eb, errB := Encode(b)
	return errA == nil && errB == nil && bytes.Equal(ea, eb)
}

// Decode reads a persisted bid. Missing keys keep their zero value; unknown or
// malformed fields are skipped and reported as warnings. Only a payload that is
// not a JSON object fails the load.
func Decode(data []byte) (BidRecord, []Warning, error) {
	var b BidRecord
	warnings, err := Merge(&b, data)
	if err != nil {
		return BidRecord{}, nil, err
	}
	return b, warnings, nil
}

// Merge applies the fields present in data onto dst, leaving the others as
// they are.
func Merge(dst *BidRecord, data []byte) ([]Warning, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("bid payload is not a JSON object: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("bid payload is null")
	}

	fields := jsonFields(reflect.ValueOf(dst).Elem())
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var warnings []Warning
	var legacy []string
	for _, key := range keys {
		value := raw[key]
		if key == "expenses" {
			warnings = append(warnings, mergeLedger(&dst.Expenses, value)...)
			continue
		}
		if _, ok := legacyStaffKeys[key]; ok {
			legacy = append(legacy, key)
			continue
		}
		fv, ok := fields[key]
		if !ok {
			warnings = append(warnings, Warning{Field: key, Message: "unknown field ignored"})
			continue
		}
		tmp := reflect.New(fv.Type())
		if err := json.Unmarshal(value, tmp.Interface()); err != nil {
			warnings = append(warnings, Warning{Field: key, Message: "skipped: " + err.Error()})
			continue
		}
		fv.Set(tmp.Elem())
	}
	// Legacy staff keys refine the staff list, so they go last.
	for _, key := range legacy {
		warnings = append(warnings, mergeLegacyStaff(dst, legacyStaffKeys[key], raw[key])...)
	}
	return warnings, nil
}

// SetField assigns one field by its persisted name. The value is read as JSON
// when it parses as JSON, otherwise as a plain string.
func SetField(dst *BidRecord, key, value string) error {
	literal := []byte(value)
	if !json.Valid(literal) {
		quoted, _ := json.Marshal(value)
		literal = quoted
	}
	payload, err := json.Marshal(map[string]json.RawMessage{key: literal})
	if err != nil {
		return err
	}
	next := dst.Clone()
	warnings, err := Merge(&next, payload)
	if err != nil {
		return err
	}
	if len(warnings) > 0 {
		return fmt.Errorf("%s", warnings[0])
	}
	*dst = next
	return nil
}

// FieldNames lists every persisted field name of a bid.
func FieldNames() []string {
	var b BidRecord
	fields := jsonFields(reflect.ValueOf(&b).Elem())
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// jsonFields maps JSON names to settable struct fields, flattening embedded
// structs the way encoding/json does.
func jsonFields(v reflect.Value) map[string]reflect.Value {
	out := make(map[string]reflect.Value)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			for k, fv := range jsonFields(v.Field(i)) {
				out[k] = fv
			}
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		out[name] = v.Field(i)
	}
	return out
}

// mergeLedger decodes expenses entry by entry so one bad line item does not
// discard the rest of the ledger.
func mergeLedger(dst *ExpenseLedger, data json.RawMessage) []Warning {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*dst = nil
		return nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return []Warning{{Field: "expenses", Message: "skipped: " + err.Error()}}
	}
	ledger := make(ExpenseLedger, len(entries))
	var warnings []Warning
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e, ws, err := decodeExpense(name, entries[name])
		warnings = append(warnings, ws...)
		if err != nil {
			warnings = append(warnings, Warning{Field: "expenses." + name, Message: "skipped: " + err.Error()})
			continue
		}
		if err := ledger.Put(name, e); err != nil {
			warnings = append(warnings, Warning{Field: "expenses", Message: err.Error()})
			continue
		}
		if trimmed := strings.TrimSpace(name); trimmed != name {
			warnings = append(warnings, Warning{Field: "expenses." + name, Message: fmt.Sprintf("renamed to %q", trimmed)})
		}
	}
	*dst = ledger
	return warnings
}

// decodeExpense reads one ledger entry. Unknown sub-keys are dropped with a
// warning each and the known ones are kept.
func decodeExpense(name string, data json.RawMessage) (Expense, []Warning, error) {
	var e Expense
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err == nil {
		return e, nil, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Expense{}, nil, err
	}
	fields := jsonFields(reflect.ValueOf(&e).Elem())
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var warnings []Warning
	for _, key := range keys {
		if !hasFieldFold(fields, key) {
			warnings = append(warnings, Warning{Field: "expenses." + name + "." + key, Message: "unknown field ignored"})
			delete(raw, key)
		}
	}
	known, err := json.Marshal(raw)
	if err != nil {
		return Expense{}, nil, err
	}
	e = Expense{}
	if err := json.Unmarshal(known, &e); err != nil {
		return Expense{}, nil, err
	}
	return e, warnings, nil
}

// hasFieldFold matches key against fields case-insensitively, as
// encoding/json does.
func hasFieldFold(fields map[string]reflect.Value, key string) bool {
	for name := range fields {
		if strings.EqualFold(name, key) {
			return true
		}
	}
	return false
}

// Older bid files stored staff as separate keys.
var legacyStaffKeys = map[string]string{
	"event_stewards": "Event Steward",
	"feast_steward":  "Feast Steward",
	"reeve":          "Reeve",
	"marshall":       "Marshal",
	"tollner":        "Tollner",
}

func mergeLegacyStaff(dst *BidRecord, role string, data json.RawMessage) []Warning {
	var names []string
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		names = []string{single}
	} else if err := json.Unmarshal(data, &names); err != nil {
		return []Warning{{Field: strings.ToLower(role), Message: "skipped: expected a name or list of names"}}
	}

	kept := dst.Staff[:0:0]
	for _, s := range dst.Staff {
		if s.Role != role {
			kept = append(kept, s)
		}
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		kept = append(kept, StaffRole{Role: role, Name: name})
	}
	dst.Staff = kept
	return nil
}
