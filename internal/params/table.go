package params

import (
	"maps"
	"slices"
)

// Table is the read-only set of override entries for one run. Keys are kept
// in lexicographic order, which is the iteration order used by substring
// matching.
type Table struct {
	entries map[string]Partial
	keys    []string
}

// NewTable builds a Table from the given entries. The map is copied.
func NewTable(entries map[string]Partial) *Table {
	t := &Table{entries: make(map[string]Partial, len(entries))}
	maps.Copy(t.entries, entries)
	t.keys = slices.Sorted(maps.Keys(t.entries))
	return t
}

// Empty returns a table with no entries.
func Empty() *Table {
	return NewTable(nil)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the table keys in lexicographic order.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.keys)
}

// Lookup returns the entry stored under an exact key.
func (t *Table) Lookup(key string) (Partial, bool) {
	if t == nil {
		return Partial{}, false
	}
	p, ok := t.entries[key]
	return p, ok
}
