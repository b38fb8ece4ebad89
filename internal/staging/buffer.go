// Package staging holds uncommitted local copies of an entity's editable
// fields and the edit workflow that commits them.
package staging

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/fairyhunter13/property-admin-console/internal/model"
)

// Schema fixes the scalar and list fields of a buffer and their order in a
// committed payload.
type Schema struct {
	Fields []string
	Lists  []string
}

// Form is the seed shape of a buffer.
type Form struct {
	Values map[string]string
	Lists  map[string][]string
}

func (f Form) clone() Form {
	c := Form{Values: make(map[string]string, len(f.Values)), Lists: make(map[string][]string, len(f.Lists))}
	for k, v := range f.Values {
		c.Values[k] = v
	}
	for k, v := range f.Lists {
		c.Lists[k] = append([]string(nil), v...)
	}
	return c
}

// Buffer is a mutable copy of an entity's fields keyed by the entity key.
// It is single-writer; the mutex only guards readers on other goroutines.
type Buffer struct {
	key    string
	schema Schema

	mu       sync.RWMutex
	form     Form
	revision uint64
	seeded   bool
	dirty    bool
}

// NewBuffer creates an empty buffer for key.
func NewBuffer(key string, schema Schema) *Buffer {
	b := &Buffer{key: key, schema: schema}
	b.form = b.blank()
	return b
}

func (b *Buffer) blank() Form {
	f := Form{Values: make(map[string]string), Lists: make(map[string][]string)}
	for _, name := range b.schema.Fields {
		f.Values[name] = ""
	}
	for _, name := range b.schema.Lists {
		f.Lists[name] = []string{""}
	}
	return f
}

// Key returns the entity key the buffer belongs to.
func (b *Buffer) Key() string { return b.key }

// Revision returns the source revision of the last seed.
func (b *Buffer) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// Dirty reports whether the buffer was edited since the last seed.
func (b *Buffer) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dirty
}

// Seed overwrites every field from f. A seed for a revision that was already
// applied is ignored and Seed returns false, so repeated reads of the same
// resolved snapshot never clobber edits in progress.
func (b *Buffer) Seed(rev uint64, f Form) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seeded && rev <= b.revision {
		return false
	}
	next := b.blank()
	for k, v := range f.Values {
		next.Values[k] = v
	}
	for k, v := range f.Lists {
		if len(v) == 0 {
			continue
		}
		next.Lists[k] = append([]string(nil), v...)
	}
	b.form = next
	b.revision = rev
	b.seeded = true
	b.dirty = false
	return true
}

// restore puts back a previously seeded form without changing the revision.
func (b *Buffer) restore(f Form) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.form = f.clone()
	b.dirty = false
}

// Field returns the staged value of a scalar field.
func (b *Buffer) Field(name string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.form.Values[name]
}

// List returns a copy of a list field.
func (b *Buffer) List(name string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.form.Lists[name]...)
}

// SetField replaces a scalar field. Numbers are staged as text; nothing is
// validated here.
func (b *Buffer) SetField(name string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.form.Values[name] = stageValue(value)
	b.dirty = true
}

func stageValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// AddListItem appends an empty item to a list field.
func (b *Buffer) AddListItem(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.form.Lists[name] = append(b.form.Lists[name], "")
	b.dirty = true
}

// RemoveListItem deletes item i. Out-of-range indices are ignored.
func (b *Buffer) RemoveListItem(name string, i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.form.Lists[name]
	if i < 0 || i >= len(items) {
		return false
	}
	next := make([]string, 0, len(items)-1)
	next = append(next, items[:i]...)
	next = append(next, items[i+1:]...)
	b.form.Lists[name] = next
	b.dirty = true
	return true
}

// SetListItem replaces item i. Out-of-range indices are ignored.
func (b *Buffer) SetListItem(name string, i int, value string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.form.Lists[name]
	if i < 0 || i >= len(items) {
		return false
	}
	items[i] = value
	b.dirty = true
	return true
}

// Payload is a committed buffer in the shape the mutation expects.
type Payload struct {
	Key    string
	Fields map[string]string
	Lists  map[string][]string

	order []string
	lists []string
}

// Commit packages the buffer. Blank list items are dropped; numeric text is
// passed through unchanged. The buffer itself is left as is.
func (b *Buffer) Commit() Payload {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p := Payload{
		Key:    b.key,
		Fields: make(map[string]string, len(b.form.Values)),
		Lists:  make(map[string][]string, len(b.form.Lists)),
		order:  b.fieldOrder(),
		lists:  b.listOrder(),
	}
	for k, v := range b.form.Values {
		p.Fields[k] = v
	}
	for k, items := range b.form.Lists {
		kept := make([]string, 0, len(items))
		for _, it := range items {
			if strings.TrimSpace(it) != "" {
				kept = append(kept, it)
			}
		}
		p.Lists[k] = kept
	}
	return p
}

// fieldOrder is the schema order followed by any extra fields set ad hoc.
func (b *Buffer) fieldOrder() []string {
	return withExtras(b.schema.Fields, b.form.Values)
}

func (b *Buffer) listOrder() []string {
	return withExtras(b.schema.Lists, b.form.Lists)
}

func withExtras[V any](known []string, m map[string]V) []string {
	out := append([]string(nil), known...)
	seen := make(map[string]bool, len(known))
	for _, k := range known {
		seen[k] = true
	}
	var extra []string
	for k := range m {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Encode flattens the payload into ordered form fields. List fields are sent
// as JSON arrays.
func (p Payload) Encode() []model.FormField {
	out := make([]model.FormField, 0, len(p.order)+len(p.lists))
	for _, name := range p.order {
		out = append(out, model.FormField{Name: name, Value: p.Fields[name]})
	}
	for _, name := range p.lists {
		items := p.Lists[name]
		if items == nil {
			items = []string{}
		}
		raw, _ := json.Marshal(items)
		out = append(out, model.FormField{Name: name, Value: string(raw)})
	}
	return out
}

// snapshotForm copies the staged form.
func (b *Buffer) snapshotForm() Form {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.form.clone()
}
