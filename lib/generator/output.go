package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/pthm/webcmp/lib/dts"
)

// generateFile generates the <file>_wc.go output for the components declared
// in one source file.
func (g *Generator) generateFile(pkgPath, pkgName, sourceFile string, comps []*ComponentInfo) error {
	baseName := strings.TrimSuffix(filepath.Base(sourceFile), ".go")
	outputFile := filepath.Join(pkgPath, baseName+g.opts.Suffix)

	g.log.Info("generating", "file", outputFile, "components", len(comps))

	if g.opts.DryRun {
		return nil
	}

	code, err := g.renderTemplate(pkgName, comps)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	formatted, err := format.Source(code)
	if err != nil {
		// Write unformatted for debugging
		if writeErr := os.WriteFile(outputFile+".unformatted", code, 0644); writeErr == nil {
			g.log.Info("wrote unformatted code for debugging", "file", outputFile+".unformatted")
		}
		return fmt.Errorf("format source: %w", err)
	}

	return os.WriteFile(outputFile, formatted, 0644)
}

// generateDeclarations writes the package's TypeScript declaration file.
func (g *Generator) generateDeclarations(pkgPath, pkgName string, comps []*ComponentInfo) error {
	outputFile := filepath.Join(pkgPath, g.opts.Declarations)
	g.log.Info("generating", "file", outputFile, "components", len(comps))

	if g.opts.DryRun {
		return nil
	}

	elements := make([]dts.Element, len(comps))
	for i, c := range comps {
		elements[i] = c.Declaration()
	}
	var buf bytes.Buffer
	if err := dts.Render(&buf, "package "+pkgName, elements...); err != nil {
		return fmt.Errorf("render declarations: %w", err)
	}
	return os.WriteFile(outputFile, buf.Bytes(), 0644)
}

// renderTemplate renders the generated code template.
func (g *Generator) renderTemplate(pkgName string, comps []*ComponentInfo) ([]byte, error) {
	tmpl, err := template.New("wc").Funcs(template.FuncMap{
		"quote":     strconv.Quote,
		"descVar":   descriptorVar,
		"attrSpec":  attrSpecCode,
		"propSpec":  propSpecCode,
		"eventSpec": eventSpecCode,
		"loadField": loadFieldCode,
	}).Parse(wcTemplate)
	if err != nil {
		return nil, err
	}

	data := struct {
		Package    string
		Components []*ComponentInfo
	}{
		Package:    pkgName,
		Components: comps,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// descriptorVar converts "Counter" to "counterWCDescriptor".
func descriptorVar(c *ComponentInfo) string {
	s := c.TypeName
	return string(unicode.ToLower(rune(s[0]))) + s[1:] + "WCDescriptor"
}

// initialValue is the Go expression for a field's initial slot value.
func initialValue(f FieldInfo) string {
	t := f.ElemType()
	if f.Default != "" {
		return t + "(" + f.Default + ")"
	}
	switch {
	case t == "string":
		return `""`
	case t == "bool":
		return "false"
	case dts.TypeOfName(t) == "number":
		return t + "(0)"
	}
	return "*new(" + t + ")"
}

func withDefault(f FieldInfo) string {
	if !f.Optional() || f.Default == "" {
		return ""
	}
	return ".WithDefault(func() any { return " + initialValue(f) + " })"
}

// attrSpecCode generates the AttributeSpec expression for f.
func attrSpecCode(f FieldInfo) string {
	a := f.Attr
	var b strings.Builder
	if a.Optional {
		fmt.Fprintf(&b, "webcmp.NewOptionalAttribute[%s](%q, %s)", f.ElemType(), f.Name, a.Parser)
		b.WriteString(withDefault(f))
	} else {
		fmt.Fprintf(&b, "webcmp.NewAttribute[%s](%q, %s, %s)", f.Type, f.Name, initialValue(f), a.Parser)
	}
	if a.Explicit {
		fmt.Fprintf(&b, ".Named(%q)", a.Name)
	}
	return b.String()
}

// propSpecCode generates the PropertySpec expression for f.
func propSpecCode(f FieldInfo) string {
	p := f.Prop
	var b strings.Builder
	if p.Optional {
		fmt.Fprintf(&b, "webcmp.NewOptionalProperty[%s](%q)", f.ElemType(), f.Name)
		b.WriteString(withDefault(f))
	} else {
		fmt.Fprintf(&b, "webcmp.NewProperty[%s](%q, %s)", f.Type, f.Name, initialValue(f))
	}
	if p.Explicit {
		fmt.Fprintf(&b, ".Named(%q)", p.Name)
	}
	if p.Readonly {
		b.WriteString(".AsReadonly()")
	}
	if p.TSType != dts.TypeOfName(f.Type) {
		fmt.Fprintf(&b, ".WithType(%q)", p.TSType)
	}
	return b.String()
}

// eventSpecCode generates the EventSpec expression for f.
func eventSpecCode(f FieldInfo) string {
	e := f.Event
	var b strings.Builder
	fmt.Fprintf(&b, "webcmp.NewEvent(%q)", f.Name)
	if e.Explicit {
		fmt.Fprintf(&b, ".Named(%q)", e.Name)
	}
	if e.NoBubble {
		b.WriteString(".NoBubble()")
	}
	if e.NoCancel {
		b.WriteString(".NoCancel()")
	}
	fmt.Fprintf(&b, ".WithDetail(%q)", e.TSDetail)
	return b.String()
}

// loadFieldCode generates the expression reading f from a *webcmp.State.
func loadFieldCode(f FieldInfo) string {
	switch {
	case f.Event != nil:
		return fmt.Sprintf("webcmp.EventFunc[%s](s, %q)", f.Event.Detail, f.Name)
	case f.Optional():
		return fmt.Sprintf("webcmp.OptionalField[%s](s, %q)", f.ElemType(), f.Name)
	}
	return fmt.Sprintf("webcmp.Field[%s](s, %q)", f.Type, f.Name)
}

const wcTemplate = `// Code generated by webcmp. DO NOT EDIT.

package {{.Package}}

import (
	"github.com/pthm/webcmp"
)

{{range .Components}}
var {{descVar .}} = webcmp.MustDescriptor(
{{- range .Fields}}
{{- if .Attr}}
	{{attrSpec .}},
{{- end}}
{{- if .Prop}}
	{{propSpec .}},
{{- end}}
{{- if .Event}}
	{{eventSpec .}},
{{- end}}
{{- end}}
)

// WCTag returns the custom element tag of {{.TypeName}}.
func ({{.TypeName}}) WCTag() string {
	return {{quote .Tag}}
}

// WCDescriptor returns the binding descriptor of {{.TypeName}}.
func ({{.TypeName}}) WCDescriptor() *webcmp.Descriptor {
	return {{descVar .}}
}

// Load{{.TypeName}} reads the instance state into a {{.TypeName}}.
func Load{{.TypeName}}(s *webcmp.State) {{.TypeName}} {
	return {{.TypeName}}{
	{{- range .Fields}}
		{{.Name}}: {{loadField .}},
	{{- end}}
	}
}

// Register{{.TypeName}} registers <{{.Tag}}> with reg.
func Register{{.TypeName}}(reg *webcmp.Registry, style webcmp.Style, build webcmp.Builder) error {
	_, err := reg.Register({{quote .Tag}}, {{descVar .}}, style, build)
	return err
}
{{end}}
`
