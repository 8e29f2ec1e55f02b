// Package dts renders TypeScript declarations describing custom elements,
// so static tooling on the host page knows each element's property surface.
package dts

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"text/template"

	"github.com/pthm/webcmp/lib/naming"
)

// Property is one DOM property of an element.
type Property struct {
	Name     string
	Type     string
	Readonly bool
}

// Event is one custom event an element dispatches.
type Event struct {
	Name   string
	Detail string
}

// Element describes a custom element.
type Element struct {
	Tag        string
	Attributes []string
	Properties []Property
	Events     []Event
}

// Interface returns the declared interface name for the element, e.g.
// "PlopCounterElement" for "plop-counter".
func (e Element) Interface() string {
	var b strings.Builder
	for _, w := range strings.Split(naming.Kebab(e.Tag), "-") {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	b.WriteString("Element")
	return b.String()
}

var declTemplate = template.Must(template.New("dts").Funcs(template.FuncMap{
	"key": propertyKey,
}).Parse(`// Code generated by webcmp. DO NOT EDIT.
{{- if .Header}}
// {{.Header}}
{{- end}}
{{range .Elements}}
export interface {{.Interface}} extends HTMLElement {
{{- range .Properties}}
  {{if .Readonly}}readonly {{end}}{{key .Name}}: {{.Type}};
{{- end}}
{{- range .Events}}
  addEventListener(type: "{{.Name}}", listener: (ev: CustomEvent<{{.Detail}}>) => void, options?: boolean | AddEventListenerOptions): void;
{{- end}}
}
{{end}}
declare global {
  interface HTMLElementTagNameMap {
{{- range .Elements}}
    "{{.Tag}}": {{.Interface}};
{{- end}}
  }
}
`))

// Render writes a declaration file for elements. header, when non-empty, is
// written as a comment below the generated-code marker.
func Render(w io.Writer, header string, elements ...Element) error {
	return declTemplate.Execute(w, struct {
		Header   string
		Elements []Element
	}{header, elements})
}

// String renders a declaration for a single element.
func String(e Element) string {
	var buf bytes.Buffer
	_ = Render(&buf, "", e)
	return buf.String()
}

func propertyKey(name string) string {
	for i, r := range name {
		if r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return `"` + name + `"`
	}
	return name
}

// TypeOf maps a Go type to the TypeScript type a host sees for it.
func TypeOf(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Pointer:
		return TypeOf(t.Elem()) + " | null"
	case reflect.Slice, reflect.Array:
		return arrayOf(TypeOf(t.Elem()))
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return "Record<string, " + TypeOf(t.Elem()) + ">"
		}
	}
	return "unknown"
}

// TypeOfName maps a Go type expression, as written in source, to a
// TypeScript type. It is the source-level counterpart of TypeOf used by the
// code generator.
func TypeOfName(goType string) string {
	switch {
	case goType == "bool":
		return "boolean"
	case goType == "string":
		return "string"
	case isNumeric(goType):
		return "number"
	case strings.HasPrefix(goType, "*"):
		return TypeOfName(goType[1:]) + " | null"
	case strings.HasPrefix(goType, "[]"):
		return arrayOf(TypeOfName(goType[2:]))
	case strings.HasPrefix(goType, "map[string]"):
		return "Record<string, " + TypeOfName(strings.TrimPrefix(goType, "map[string]")) + ">"
	}
	return "unknown"
}

// arrayOf parenthesises union element types, which would otherwise bind
// the [] to their last member.
func arrayOf(elem string) string {
	if strings.Contains(elem, " | ") {
		return "(" + elem + ")[]"
	}
	return elem + "[]"
}

func isNumeric(name string) bool {
	switch name {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64",
		"float32", "float64":
		return true
	}
	return false
}
