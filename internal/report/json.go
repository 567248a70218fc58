package report

import (
	"math"
	"reflect"
	"strings"
)

// jsonValue rebuilds v from maps and slices with non-finite floats
// replaced: NaN becomes null and infinities become "+Inf"/"-Inf".
// encoding/json rejects non-finite numbers.
func jsonValue(v any) any {
	return walk(reflect.ValueOf(v))
}

func walk(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return walk(v.Elem())
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		switch {
		case math.IsNaN(f):
			return nil
		case math.IsInf(f, 1):
			return "+Inf"
		case math.IsInf(f, -1):
			return "-Inf"
		}
		return f
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = walk(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = walk(iter.Value())
		}
		return out
	case reflect.Struct:
		out := make(map[string]any)
		walkStruct(v, out)
		return out
	}
	return v.Interface()
}

// walkStruct copies exported fields under their json names, flattening
// embedded structs the way encoding/json does
func walkStruct(v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		fv := v.Field(i)
		if f.Anonymous && name == "" && fv.Kind() == reflect.Struct {
			walkStruct(fv, out)
			continue
		}
		if name == "" {
			name = f.Name
		}
		if strings.Contains(opts, "omitempty") && empty(fv) {
			continue
		}
		if fv.Kind() == reflect.String {
			// named string types such as AnalysisID
			out[name] = fv.String()
			continue
		}
		out[name] = walk(fv)
	}
}

func empty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return v.Len() == 0
	}
	return v.IsZero()
}
