// Package jsonptr builds JSON Pointers (RFC 6901) such as "/list/2/pk".
// They locate the offending node in structural document errors.
package jsonptr

import (
	"fmt"
	"strings"
)

var escaper = strings.NewReplacer("~", "~0", "/", "~1")

// Escape encodes "~" as "~0" and "/" as "~1".
func Escape(key string) string {
	return escaper.Replace(key)
}

// Build joins keys into a pointer. Strings are object keys, integers are
// list indices; any other value is formatted with fmt.
// No keys yields "", the whole document.
//
//	Build("list", 0, "pk") -> "/list/0/pk"
func Build(keys ...any) string {
	var sb strings.Builder
	for _, key := range keys {
		sb.WriteByte('/')
		if s, ok := key.(string); ok {
			sb.WriteString(Escape(s))
			continue
		}
		sb.WriteString(Escape(fmt.Sprint(key)))
	}
	return sb.String()
}
