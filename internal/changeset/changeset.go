// Package changeset computes field-level diffs between an entity's stored
// state and a proposed partial update.
//
// Fields are addressed by their JSON names. A proposal marks a field as
// present by a non-nil pointer (patch structs) or by key presence (maps).
// Values are compared structurally with go-cmp, which honours Equal methods,
// so fixed-point amounts and timestamps compare by value rather than by
// representation.
package changeset

import (
	"reflect"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"fieldops.io/fieldops/internal/domain"
)

var equalOpts = []cmp.Option{cmpopts.EquateEmpty()}

// Diff returns the tracked fields present in proposed whose value differs
// from old. The result is never nil.
func Diff(old, proposed any, tracked []string) domain.ChangeRecord {
	out := domain.ChangeRecord{}
	oldV := indirect(reflect.ValueOf(old))
	propV := indirect(reflect.ValueOf(proposed))
	if !propV.IsValid() {
		return out
	}

	for _, name := range tracked {
		next, present := lookup(propV, name)
		if !present {
			continue
		}
		prev, _ := lookup(oldV, name)
		if Equal(prev, next) {
			continue
		}
		out[name] = domain.Change{Old: prev, New: next}
	}
	return out
}

// Created records every tracked field of a new entity as {old: nil, new: value}.
func Created(entity any, tracked []string) domain.ChangeRecord {
	out := domain.ChangeRecord{}
	v := indirect(reflect.ValueOf(entity))
	for _, name := range tracked {
		if val, ok := lookup(v, name); ok {
			out[name] = domain.Change{Old: nil, New: val}
		}
	}
	return out
}

// Deleted records every tracked field of a removed entity as {old: value, new: nil}.
func Deleted(entity any, tracked []string) domain.ChangeRecord {
	out := domain.ChangeRecord{}
	v := indirect(reflect.ValueOf(entity))
	for _, name := range tracked {
		if val, ok := lookup(v, name); ok {
			out[name] = domain.Change{Old: val, New: nil}
		}
	}
	return out
}

// Merge copies src into dst; later keys win.
func Merge(dst, src domain.ChangeRecord) domain.ChangeRecord {
	if dst == nil {
		dst = domain.ChangeRecord{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Equal reports deep structural equality of two field values.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return isEmpty(a) && isEmpty(b)
	}
	return cmp.Equal(a, b, equalOpts...)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

// lookup returns the dereferenced value of the named field and whether it is
// present. Nil pointers, nil interfaces and absent map keys are not present.
func lookup(v reflect.Value, name string) (any, bool) {
	if !v.IsValid() {
		return nil, false
	}
	var f reflect.Value
	switch v.Kind() {
	case reflect.Struct:
		idx, ok := fieldIndex(v.Type())[name]
		if !ok {
			return nil, false
		}
		f = v.FieldByIndex(idx)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		f = v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !f.IsValid() {
			return nil, false
		}
	default:
		return nil, false
	}
	for f.Kind() == reflect.Pointer || f.Kind() == reflect.Interface {
		if f.IsNil() {
			return nil, false
		}
		f = f.Elem()
	}
	return f.Interface(), true
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

var indexCache sync.Map // reflect.Type -> map[string][]int

func fieldIndex(t reflect.Type) map[string][]int {
	if cached, ok := indexCache.Load(t); ok {
		return cached.(map[string][]int)
	}
	idx := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if _, dup := idx[name]; !dup {
			idx[name] = f.Index
		}
	}
	indexCache.Store(t, idx)
	return idx
}
