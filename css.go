package umbra

import (
	"strings"
)

// Declaration is one CSS property/value pair.
type Declaration struct {
	Name  string
	Value string
}

func (d Declaration) String() string {
	return d.Name + ": " + d.Value
}

// boxShadowNone is emitted for an empty layer list, where a bare
// "box-shadow: " would be invalid CSS.
const boxShadowNone = "none"

// declarations projects settings and layers into the five declarations of
// the preview element, in fixed order.
func declarations(settings Settings, layers []Shadow) []Declaration {
	shadow := boxShadowNone
	if len(layers) > 0 {
		terms := make([]string, len(layers))
		for i, l := range layers {
			terms[i] = l.String()
		}
		shadow = strings.Join(terms, ",")
	}

	radius := "100%"
	if settings.Shape == ShapeSquare {
		radius = "0"
	}

	return []Declaration{
		{Name: "box-shadow", Value: shadow},
		{Name: "border-radius", Value: radius},
		{Name: "width", Value: settings.Size + "px"},
		{Name: "height", Value: settings.Size + "px"},
		{Name: "background-color", Value: settings.Color},
	}
}

// joinDeclarations renders declarations inline, separated by ";".
func joinDeclarations(decls []Declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, ";")
}

// formatRule renders declarations as a rule block:
//
//	.shadow {
//	  box-shadow: 5px 5px 0px 0px #ff0000;
//	  ...
//	}
func formatRule(selector string, decls []Declaration) string {
	var b strings.Builder
	b.WriteString(selector)
	b.WriteString(" {\n")
	for _, d := range decls {
		b.WriteString("  ")
		b.WriteString(d.String())
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	return b.String()
}
