package utils

import (
	"fmt"
	"reflect"
)

// ColumnList returns the `db` tags of a struct, in field order, optionally prefixed by a table name.
func ColumnList[T any](prefixes ...string) []string {
	var zero T
	t := reflect.TypeOf(zero)

	prefix := ""
	if len(prefixes) > 0 && prefixes[0] != "" {
		prefix = prefixes[0] + "."
	}

	columns := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		columns = append(columns, fmt.Sprintf("%s%s", prefix, tag))
	}
	return columns
}
