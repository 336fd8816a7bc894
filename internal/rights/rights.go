// Package rights encodes, decodes and merges the permission flags stored
// as JSON blobs on users and groups.
package rights

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "photogallery/internal/errors"
)

// Set maps a permission flag name to its value.
type Set map[string]bool

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Has reports whether the flag is present and granted.
func (s Set) Has(name string) bool {
	return s[name]
}

// Decode parses a stored rights blob. Empty input yields an empty set.
// Values written by older code as 0/1 or "on"/"off" are coerced to bool.
func Decode(raw string) (Set, error) {
	out := Set{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedRights, err)
	}
	for name, value := range fields {
		out[name] = Truthy(value)
	}
	return out, nil
}

// Encode serializes s with sorted keys and without HTML escaping.
// An empty set encodes to the empty string.
func Encode(s Set) (string, error) {
	if len(s) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]bool(s)); err != nil {
		return "", fmt.Errorf("encode rights: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Truthy coerces a loosely typed value the way HTML forms and legacy rows
// express booleans: "1", "true", "on", "yes" and non-zero numbers are true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "on", "yes":
			return true
		}
		if n, err := strconv.ParseFloat(t, 64); err == nil {
			return n != 0
		}
		return false
	default:
		return true
	}
}

// Merge overlays group flags onto user flags. For every group flag the
// result is false when both sides are false, otherwise the group value.
// Flags only the user carries are kept as they are.
func Merge(user, group Set) Set {
	out := user.Clone()
	for name, groupValue := range group {
		if !out[name] && !groupValue {
			out[name] = false
			continue
		}
		out[name] = groupValue
	}
	return out
}

// Catalog is the set of known permission flag names.
type Catalog struct {
	names []string
	index map[string]struct{}
}

// NewCatalog builds a catalog from the union of the flag names in samples.
func NewCatalog(samples ...Set) Catalog {
	index := make(map[string]struct{})
	for _, s := range samples {
		for name := range s {
			index[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	return Catalog{names: names, index: index}
}

// Names returns the flag names in sorted order.
func (c Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Contains reports whether name is a known flag.
func (c Catalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Filter drops flags unknown to the catalog and returns their names.
func (c Catalog) Filter(s Set) (Set, []string) {
	out := make(Set, len(s))
	var unknown []string
	for name, v := range s {
		if !c.Contains(name) {
			unknown = append(unknown, name)
			continue
		}
		out[name] = v
	}
	sort.Strings(unknown)
	return out, unknown
}

// FromForm builds a full set from submitted form values: every catalog
// flag is present, missing ones default to false.
func (c Catalog) FromForm(form map[string]string) Set {
	out := make(Set, len(c.names))
	for _, name := range c.names {
		out[name] = Truthy(form[name])
	}
	return out
}
