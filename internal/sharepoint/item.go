package sharepoint

import (
	"encoding/json"
	"fmt"
	"time"
)

// item is one list item as returned with odata=nometadata. Field names are
// configurable, so items are decoded loosely and read by name.
type item map[string]json.RawMessage

func (it item) number(name string) float64 {
	raw, ok := it[name]
	if !ok {
		return 0
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return 0
	}
	return *v
}

func (it item) text(name string) string {
	raw, ok := it[name]
	if !ok {
		return ""
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return ""
	}
	return *v
}

// zonelessLayout is how some tenants return dates when the list is read
// without odata metadata; such values are UTC.
const zonelessLayout = "2006-01-02T15:04:05"

// time reads an ISO date. A missing value is the zero time; a value that is
// present but unparseable is an error.
func (it item) time(name string) (time.Time, error) {
	s := it.text(name)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(zonelessLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: invalid date %q", name, s)
	}
	return t, nil
}

// nested returns an expanded lookup or person value. Multi-value fields
// yield their first entry.
func (it item) nested(name string) item {
	values := it.many(name)
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

// many returns an expanded field as a list whether it is single or multi valued.
func (it item) many(name string) []item {
	raw, ok := it[name]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '[' {
		var arr []item
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil
		}
		return arr
	}
	var obj item
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return []item{obj}
}
