package types

import (
	"reflect"
	"strings"
)

// jsonName returns the JSON name of the struct field, or field itself.
func jsonName(v any, field string) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return field
	}
	sf, ok := t.FieldByName(field)
	if !ok {
		return field
	}
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field
	}
	return name
}
