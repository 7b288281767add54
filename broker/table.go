package broker

import (
	"sort"
	"strings"
)

// Table is a finite mapping from broker codes to canonical values. Codes
// outside Entries resolve to Default, so lookups never fail and the domain
// can be enumerated for completeness checks.
type Table[K comparable, V comparable] struct {
	Entries map[K]V
	Default V

	// Fold normalizes a key before lookup, e.g. to ignore case.
	Fold func(K) K
}

// Get resolves code, returning Default for unknown codes.
func (t Table[K, V]) Get(code K) V {
	if t.Fold != nil {
		code = t.Fold(code)
	}
	if v, ok := t.Entries[code]; ok {
		return v
	}
	return t.Default
}

// Lookup is Get that also reports whether the code was known.
func (t Table[K, V]) Lookup(code K) (V, bool) {
	if t.Fold != nil {
		code = t.Fold(code)
	}
	v, ok := t.Entries[code]
	if !ok {
		return t.Default, false
	}
	return v, true
}

// Keys lists the known codes in a stable order.
func (t Table[K, V]) Keys() []K {
	keys := make([]K, 0, len(t.Entries))
	for k := range t.Entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lessKey(keys[i], keys[j])
	})
	return keys
}

// Values lists the distinct canonical values the table can produce,
// Default included.
func (t Table[K, V]) Values() []V {
	seen := map[V]bool{t.Default: true}
	out := []V{t.Default}
	for _, k := range t.Keys() {
		v := t.Entries[k]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Reverse builds the outgoing direction: canonical value to broker code.
// When several codes share a value, preferred wins, otherwise the smallest key.
func (t Table[K, V]) Reverse(preferred map[V]K) map[V]K {
	out := make(map[V]K, len(t.Entries))
	for _, k := range t.Keys() {
		v := t.Entries[k]
		if _, ok := out[v]; !ok {
			out[v] = k
		}
	}
	for v, k := range preferred {
		out[v] = k
	}
	return out
}

// Upper folds string codes to upper case without surrounding space.
func Upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Codes builds a case-insensitive string table.
func Codes[V comparable](def V, entries map[string]V) Table[string, V] {
	return Table[string, V]{Entries: entries, Default: def, Fold: Upper}
}

func lessKey[K comparable](a, b K) bool {
	switch x := any(a).(type) {
	case string:
		return x < any(b).(string)
	case int:
		return x < any(b).(int)
	case int64:
		return x < any(b).(int64)
	default:
		return false
	}
}
