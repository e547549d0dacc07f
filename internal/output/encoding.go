// Package output provides deterministic JSON encoding for graph documents
// and reports, so repeated runs over identical input are byte-identical.
package output

import (
	"encoding/json"
	"reflect"
	"strings"
)

// EncodeIndented produces indented, byte-stable JSON:
// keys sorted alphabetically, nil and empty values omitted.
func EncodeIndented(v interface{}) ([]byte, error) {
	return json.MarshalIndent(normalizeValue(v), "", "  ")
}

// Encode produces compact, byte-stable JSON.
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(normalizeValue(v))
}

// normalizeValue recursively rewrites v into maps and slices so that
// encoding/json's sorted map-key ordering applies everywhere.
func normalizeValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Map:
		return normalizeMap(val)
	case reflect.Slice, reflect.Array:
		return normalizeSlice(val)
	case reflect.Struct:
		return normalizeStruct(val)
	case reflect.Interface:
		if val.IsNil() {
			return nil
		}
		return normalizeValue(val.Interface())
	default:
		return val.Interface()
	}
}

func normalizeMap(val reflect.Value) interface{} {
	if val.IsNil() || val.Len() == 0 {
		return nil
	}
	result := make(map[string]interface{}, val.Len())
	iter := val.MapRange()
	for iter.Next() {
		if norm := normalizeValue(iter.Value().Interface()); norm != nil {
			result[iter.Key().String()] = norm
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normalizeSlice(val reflect.Value) interface{} {
	if val.Kind() == reflect.Slice && val.IsNil() {
		return nil
	}
	// Empty slices stay as [] so list-valued report fields keep their shape.
	result := make([]interface{}, val.Len())
	for i := 0; i < val.Len(); i++ {
		result[i] = normalizeValue(val.Index(i).Interface())
	}
	return result
}

func normalizeStruct(val reflect.Value) interface{} {
	result := make(map[string]interface{})
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		tagName, omitEmpty := parseJSONTag(field.Tag.Get("json"))
		if tagName == "-" {
			continue
		}
		if tagName == "" {
			tagName = field.Name
		}

		norm := normalizeValue(val.Field(i).Interface())
		if norm == nil {
			continue
		}
		if omitEmpty && isZeroValue(norm) {
			continue
		}
		result[tagName] = norm
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

func parseJSONTag(tag string) (name string, omitEmpty bool) {
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

func isZeroValue(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case int, int8, int16, int32, int64:
		return reflect.ValueOf(x).Int() == 0
	case uint, uint8, uint16, uint32, uint64:
		return reflect.ValueOf(x).Uint() == 0
	case float32, float64:
		return reflect.ValueOf(x).Float() == 0
	case []interface{}:
		return len(x) == 0
	case map[string]interface{}:
		return len(x) == 0
	}
	return false
}
