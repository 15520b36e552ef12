package kvtx

import (
	"fmt"
	"reflect"
	"sync"
)

// entityInfo is the cached, reflection-derived description of a struct type
// used as a table row or a SQL result record: attribute name (case folded)
// to field descriptor. Derived once per type and cached for the lifetime
// of the process.
type entityInfo struct {
	typ    reflect.Type
	fields map[string]reflect.StructField
}

var entityInfoCache sync.Map // reflect.Type -> *entityInfo

// entityInfoOf returns the cached attribute descriptor for a struct type,
// computing and caching it on first use.
func entityInfoOf(typ reflect.Type) *entityInfo {
	if v, ok := entityInfoCache.Load(typ); ok {
		return v.(*entityInfo)
	}
	info := buildEntityInfo(typ)
	actual, _ := entityInfoCache.LoadOrStore(typ, info)
	return actual.(*entityInfo)
}

func buildEntityInfo(typ reflect.Type) *entityInfo {
	if typ.Kind() != reflect.Struct {
		panic(fmt.Errorf("%v is not a struct", typ))
	}
	info := &entityInfo{
		typ:    typ,
		fields: make(map[string]reflect.StructField, typ.NumField()),
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		info.fields[lowerASCII(f.Name)] = f
	}
	return info
}

// FieldByName resolves a column/attribute name case-insensitively.
func (info *entityInfo) FieldByName(name string) (reflect.StructField, bool) {
	f, ok := info.fields[lowerASCII(name)]
	return f, ok
}

// AttributeNamed resolves name against typ's exported fields
// case-insensitively, backed by the process-lifetime entityInfo cache. The
// sql package's planner uses this to bind SELECT/UPDATE column references
// to row struct fields without re-walking reflect.Type on every query.
func AttributeNamed(typ reflect.Type, name string) (reflect.StructField, bool) {
	return entityInfoOf(typ).FieldByName(name)
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
