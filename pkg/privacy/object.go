package privacy

import (
	"reflect"
	"strings"
	"time"
)

// MaskObject returns a masked copy of value. Entries of maps whose key
// contains a sensitive field name, compared case-insensitively, are
// replaced with Placeholder regardless of strategy. Other string leaves go
// through MaskText. Typed maps, slices, arrays, pointers and structs are
// walked by reflection and keep their type; struct fields are matched by
// their json name, or the Go field name when untagged. Unexported struct
// fields are left zero in the copy. Values that cannot be walked, such as
// channels and funcs, are redacted.
//
// The input is never modified. It must be acyclic.
func (e *Engine) MaskObject(value any, extraFields ...string) any {
	if !e.enabled {
		return value
	}

	fields := e.fields
	if len(extraFields) > 0 {
		fields = append(append([]string(nil), e.fields...), normalizeNames(extraFields)...)
	}
	return e.maskValue(value, fields)
}

func (e *Engine) maskValue(value any, fields []string) any {
	switch v := value.(type) {
	case string:
		return e.MaskText(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			if isSensitiveKey(k, fields) {
				out[k] = Placeholder
				continue
			}
			out[k] = e.maskValue(item, fields)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, item := range v {
			if isSensitiveKey(k, fields) {
				out[k] = Placeholder
				continue
			}
			out[k] = e.MaskText(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = e.maskValue(item, fields)
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = e.MaskText(item)
		}
		return out
	case nil, bool, int, int64, float64, time.Time:
		return value
	default:
		rv := reflect.ValueOf(value)
		if !walkable(rv.Kind()) {
			return Placeholder
		}
		return e.maskReflect(rv, fields).Interface()
	}
}

// maskReflect returns a masked copy of v with the same type as v.
func (e *Engine) maskReflect(v reflect.Value, fields []string) reflect.Value {
	t := v.Type()
	switch v.Kind() {
	case reflect.String:
		return reflect.ValueOf(e.MaskText(v.String())).Convert(t)
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		masked := reflect.ValueOf(e.maskValue(v.Elem().Interface(), fields))
		out := reflect.New(t).Elem()
		if masked.IsValid() && masked.Type().AssignableTo(t) {
			out.Set(masked)
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(e.maskReflect(v.Elem(), fields))
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(t, v.Len())
		named := t.Key().Kind() == reflect.String
		iter := v.MapRange()
		for iter.Next() {
			if named && isSensitiveKey(iter.Key().String(), fields) {
				out.SetMapIndex(iter.Key(), redacted(t.Elem()))
				continue
			}
			out.SetMapIndex(iter.Key(), e.maskReflect(iter.Value(), fields))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		if t.Elem() == reflect.TypeOf(byte(0)) {
			return reflect.ValueOf([]byte(e.MaskText(string(v.Bytes())))).Convert(t)
		}
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(e.maskReflect(v.Index(i), fields))
		}
		return out
	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(e.maskReflect(v.Index(i), fields))
		}
		return out
	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return v
		}
		out := reflect.New(t).Elem()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			if isSensitiveKey(fieldName(sf), fields) {
				out.Field(i).Set(redacted(sf.Type))
				continue
			}
			out.Field(i).Set(e.maskReflect(v.Field(i), fields))
		}
		return out
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return redacted(t)
	default:
		return v
	}
}

// walkable reports whether a top-level value of kind k can be copied.
func walkable(k reflect.Kind) bool {
	switch k {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return false
	}
	return true
}

// redacted returns the value stored in place of a sensitive entry of type
// t: Placeholder where t can hold a string, the zero value otherwise.
func redacted(t reflect.Type) reflect.Value {
	placeholder := reflect.ValueOf(Placeholder)
	switch {
	case t.Kind() == reflect.String:
		return placeholder.Convert(t)
	case t.Kind() == reflect.Interface && placeholder.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(placeholder)
		return out
	default:
		return reflect.Zero(t)
	}
}

// fieldName returns the json name of sf, falling back to the Go name.
func fieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

// IsSensitiveField reports whether values stored under key are always
// redacted by MaskObject.
func (e *Engine) IsSensitiveField(key string) bool {
	return isSensitiveKey(key, e.fields)
}

// isSensitiveKey reports whether key equals or contains any field name.
func isSensitiveKey(key string, fields []string) bool {
	if key == "" {
		return false
	}
	lower := strings.ToLower(key)
	for _, f := range fields {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
