package helpers

import (
	_ "embed"
	"strings"
)

//go:embed runtime.js
var runtimeJS string

// Prelude returns the JavaScript (ES5) rendition of the support library,
// binding the helpers to names as globals.
func Prelude(names Names) string {
	names = names.Fill()
	var b strings.Builder
	b.WriteString(runtimeJS)
	bind := func(name, field string) {
		b.WriteString("var ")
		b.WriteString(name)
		b.WriteString(" = __valueTypes.")
		b.WriteString(field)
		b.WriteString(";\n")
	}
	bind(names.Equals, "structuralEquals")
	bind(names.StrictEquals, "structuralStrictEquals")
	bind(names.Freeze, "freeze")
	bind(names.PersistentSet, "persistentSet")
	return b.String()
}
