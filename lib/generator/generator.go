package generator

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"github.com/pthm/webcmp/lib/dts"
	"github.com/pthm/webcmp/lib/naming"
)

// Directive marks a struct type as a custom element:
//
//	//webcmp:component plop-counter
const Directive = "//webcmp:component"

// ErrInvalidField is returned for wc tags the generator cannot compile.
var ErrInvalidField = errors.New("generator: invalid field")

// Options configures the generator.
type Options struct {
	DryRun bool
	// Suffix is appended to a source file's base name to name its output,
	// e.g. "_wc.go".
	Suffix string
	// Declarations is the per-package TypeScript file name. Empty disables
	// declaration output.
	Declarations string
	Logger       logr.Logger
}

// Generator generates descriptor code for tagged component structs.
type Generator struct {
	opts Options
	fset *token.FileSet
	log  logr.Logger
}

// New creates a new generator.
func New(opts Options) *Generator {
	if opts.Suffix == "" {
		opts.Suffix = "_wc.go"
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Generator{
		opts: opts,
		fset: token.NewFileSet(),
		log:  log,
	}
}

// Generate generates code for the given package patterns.
func (g *Generator) Generate(patterns ...string) error {
	packages, err := g.findPackages(patterns)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		if err := g.generatePackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}

	return nil
}

// Clean removes generated files for the given package patterns.
func (g *Generator) Clean(patterns ...string) error {
	packages, err := g.findPackages(patterns)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		if err := g.cleanPackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}

	return nil
}

// findPackages resolves package patterns to directory paths.
func (g *Generator) findPackages(patterns []string) ([]string, error) {
	var packages []string

	for _, pattern := range patterns {
		if !strings.HasSuffix(pattern, "/...") {
			packages = append(packages, pattern)
			continue
		}

		root := strings.TrimSuffix(pattern, "/...")
		if root == "" {
			root = "."
		}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			base := filepath.Base(path)
			if path != root && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == "vendor" || base == "testdata") {
				return filepath.SkipDir
			}

			entries, err := os.ReadDir(path)
			if err != nil {
				return nil
			}
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".go") && !strings.HasSuffix(entry.Name(), "_test.go") {
					packages = append(packages, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return packages, nil
}

// generatePackage generates code for a single package.
func (g *Generator) generatePackage(pkgPath string) error {
	pkgs, err := parser.ParseDir(g.fset, pkgPath, func(info os.FileInfo) bool {
		name := info.Name()
		return !strings.HasSuffix(name, "_test.go") && !strings.HasSuffix(name, g.opts.Suffix)
	}, parser.ParseComments)
	if err != nil {
		return err
	}

	for pkgName, pkg := range pkgs {
		components, err := g.findComponents(pkg)
		if err != nil {
			return err
		}
		if len(components) == 0 {
			continue
		}

		byFile := make(map[string][]*ComponentInfo)
		for _, comp := range components {
			byFile[comp.SourceFile] = append(byFile[comp.SourceFile], comp)
		}
		files := make([]string, 0, len(byFile))
		for f := range byFile {
			files = append(files, f)
		}
		sort.Strings(files)

		for _, f := range files {
			if err := g.generateFile(pkgPath, pkgName, f, byFile[f]); err != nil {
				return err
			}
		}

		if g.opts.Declarations != "" {
			if err := g.generateDeclarations(pkgPath, pkgName, components); err != nil {
				return err
			}
		}
	}

	return nil
}

// cleanPackage removes generated files from a package.
func (g *Generator) cleanPackage(pkgPath string) error {
	entries, err := os.ReadDir(pkgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, g.opts.Suffix) && (g.opts.Declarations == "" || name != g.opts.Declarations) {
			continue
		}
		path := filepath.Join(pkgPath, name)
		g.log.Info("removing", "file", path)
		if !g.opts.DryRun {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}

	return nil
}

// ComponentInfo holds information about a discovered component.
type ComponentInfo struct {
	SourceFile string
	TypeName   string // e.g., "Counter"
	Tag        string // e.g., "plop-counter"
	Fields     []FieldInfo
}

// FieldInfo is a struct field carrying a wc tag. A field may play several
// roles; they all bind the slot named after the field.
type FieldInfo struct {
	Name    string // Go field name, also the bound slot name
	Type    string // Go type as written
	Default string // Go expression for the initial value, empty for zero

	Attr  *AttrRole
	Prop  *PropRole
	Event *EventRole
}

// AttrRole is an observed attribute.
type AttrRole struct {
	Name     string
	Explicit bool // name given in the tag
	Optional bool
	Parser   string // Go expression of the parse function
}

// PropRole is a DOM property.
type PropRole struct {
	Name     string
	Explicit bool
	Readonly bool
	TSType   string
	Optional bool
}

// EventRole is a dispatched event; the field has type func(D) bool.
type EventRole struct {
	Name     string
	Explicit bool
	Detail   string // Go detail type D
	TSDetail string
	NoBubble bool
	NoCancel bool
}

// ElemType returns the slot's value type: the field type, or its element
// type for optional fields.
func (f FieldInfo) ElemType() string {
	if f.Optional() {
		return strings.TrimPrefix(f.Type, "*")
	}
	return f.Type
}

// Optional reports whether the field's slot may hold nil.
func (f FieldInfo) Optional() bool {
	return (f.Attr != nil && f.Attr.Optional) || (f.Prop != nil && f.Prop.Optional)
}

// findComponents finds all component types in a package.
func (g *Generator) findComponents(pkg *ast.Package) ([]*ComponentInfo, error) {
	var components []*ComponentInfo

	for filename, file := range pkg.Files {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}

			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}

				doc := typeSpec.Doc
				if doc == nil && len(genDecl.Specs) == 1 {
					doc = genDecl.Doc
				}
				tag := findDirective(doc)
				if tag == "" {
					continue
				}

				structType, ok := typeSpec.Type.(*ast.StructType)
				if !ok {
					return nil, fmt.Errorf("%s: %s is marked as a component but is not a struct", filename, typeSpec.Name.Name)
				}

				comp := &ComponentInfo{
					SourceFile: filename,
					TypeName:   typeSpec.Name.Name,
					Tag:        tag,
				}
				fields, err := g.findFields(structType)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", comp.TypeName, err)
				}
				comp.Fields = fields
				if err := checkNames(comp); err != nil {
					return nil, fmt.Errorf("%s: %w", comp.TypeName, err)
				}
				g.log.V(1).Info("found component", "type", comp.TypeName, "tag", tag, "fields", len(fields))
				components = append(components, comp)
			}
		}
	}

	sort.Slice(components, func(i, j int) bool { return components[i].Tag < components[j].Tag })
	return components, nil
}

// findDirective returns the tag named by a //webcmp:component line.
func findDirective(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	for _, c := range doc.List {
		if rest, ok := strings.CutPrefix(c.Text, Directive); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// findFields compiles the wc-tagged fields of a struct.
func (g *Generator) findFields(structType *ast.StructType) ([]FieldInfo, error) {
	var fields []FieldInfo

	for _, field := range structType.Fields.List {
		if len(field.Names) == 0 || field.Tag == nil {
			continue
		}
		tag, ok := reflect.StructTag(strings.Trim(field.Tag.Value, "`")).Lookup("wc")
		if !ok || tag == "-" {
			continue
		}

		for _, name := range field.Names {
			fi := FieldInfo{
				Name: name.Name,
				Type: g.typeToString(field.Type),
			}
			if err := parseWCTag(&fi, tag); err != nil {
				return nil, fmt.Errorf("field %s: %w", name.Name, err)
			}
			fields = append(fields, fi)
		}
	}

	return fields, nil
}

// parseWCTag fills the roles of f from a wc tag such as
// "attr=count,default=1;prop,readonly".
func parseWCTag(f *FieldInfo, tag string) error {
	for _, role := range strings.Split(tag, ";") {
		parts := strings.Split(strings.TrimSpace(role), ",")
		kind, name, explicit := strings.Cut(parts[0], "=")

		var opts []string
		for _, p := range parts[1:] {
			p = strings.TrimSpace(p)
			if v, ok := strings.CutPrefix(p, "default="); ok {
				f.Default = v
				continue
			}
			opts = append(opts, p)
		}

		switch kind {
		case "attr":
			if f.Attr != nil {
				return fmt.Errorf("%w: attr role repeated", ErrInvalidField)
			}
			if err := f.addAttr(name, explicit, opts); err != nil {
				return err
			}
		case "prop":
			if f.Prop != nil {
				return fmt.Errorf("%w: prop role repeated", ErrInvalidField)
			}
			if err := f.addProp(name, explicit, opts); err != nil {
				return err
			}
		case "event":
			if f.Event != nil {
				return fmt.Errorf("%w: event role repeated", ErrInvalidField)
			}
			if err := f.addEvent(name, explicit, opts); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown role %q", ErrInvalidField, kind)
		}
	}

	if f.Event != nil && (f.Attr != nil || f.Prop != nil) {
		return fmt.Errorf("%w: an event field cannot also be an attribute or property", ErrInvalidField)
	}
	return nil
}

func (f *FieldInfo) addAttr(name string, explicit bool, opts []string) error {
	a := &AttrRole{Name: naming.Kebab(f.Name), Explicit: explicit}
	if explicit {
		a.Name = strings.ToLower(name)
	}
	if strings.HasPrefix(f.Type, "*") {
		a.Optional = true
	}
	for _, o := range opts {
		switch o {
		case "optional":
			if !strings.HasPrefix(f.Type, "*") {
				return fmt.Errorf("%w: optional attribute needs a pointer type, got %s", ErrInvalidField, f.Type)
			}
		default:
			return fmt.Errorf("%w: unknown attr option %q", ErrInvalidField, o)
		}
	}
	parse, ok := parserFor(strings.TrimPrefix(f.Type, "*"))
	if !ok {
		return fmt.Errorf("%w: no attribute parser for %s", ErrInvalidField, f.Type)
	}
	a.Parser = parse
	f.Attr = a
	return nil
}

func (f *FieldInfo) addProp(name string, explicit bool, opts []string) error {
	p := &PropRole{
		Name:     naming.Camel(f.Name),
		Explicit: explicit,
		TSType:   dts.TypeOfName(f.Type),
		Optional: strings.HasPrefix(f.Type, "*"),
	}
	if explicit {
		p.Name = name
	}
	for _, o := range opts {
		switch {
		case o == "readonly":
			p.Readonly = true
		case strings.HasPrefix(o, "type="):
			p.TSType = strings.TrimPrefix(o, "type=")
		default:
			return fmt.Errorf("%w: unknown prop option %q", ErrInvalidField, o)
		}
	}
	f.Prop = p
	return nil
}

func (f *FieldInfo) addEvent(name string, explicit bool, opts []string) error {
	detail, ok := eventDetail(f.Type)
	if !ok {
		return fmt.Errorf("%w: event field must have type func(D) bool, got %s", ErrInvalidField, f.Type)
	}
	e := &EventRole{
		Name:     naming.EventName(f.Name),
		Explicit: explicit,
		Detail:   detail,
		TSDetail: dts.TypeOfName(detail),
	}
	if explicit {
		e.Name = name
	}
	for _, o := range opts {
		switch o {
		case "nobubble":
			e.NoBubble = true
		case "nocancel":
			e.NoCancel = true
		default:
			return fmt.Errorf("%w: unknown event option %q", ErrInvalidField, o)
		}
	}
	f.Event = e
	return nil
}

// eventDetail extracts D from "func(D) bool".
func eventDetail(goType string) (string, bool) {
	rest, ok := strings.CutPrefix(goType, "func(")
	if !ok {
		return "", false
	}
	detail, ok := strings.CutSuffix(rest, ") bool")
	if !ok || detail == "" || strings.Contains(detail, ",") {
		return "", false
	}
	return detail, true
}

// parserFor returns the Go expression parsing an attribute of goType.
func parserFor(goType string) (string, bool) {
	switch goType {
	case "string":
		return "webcmp.ParseString", true
	case "int":
		return "webcmp.ParseInt", true
	case "float64":
		return "webcmp.ParseFloat", true
	case "bool":
		return "webcmp.ParseBool", true
	case "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
		return fmt.Sprintf("func(s string) (%[1]s, bool) { n, ok := webcmp.ParseInt(s); return %[1]s(n), ok }", goType), true
	case "float32":
		return "func(s string) (float32, bool) { f, ok := webcmp.ParseFloat(s); return float32(f), ok }", true
	}
	return "", false
}

// checkNames rejects names that would collide at registration.
func checkNames(comp *ComponentInfo) error {
	attrs := make(map[string]string)
	props := make(map[string]string)
	for _, f := range comp.Fields {
		if f.Attr != nil {
			if other, dup := attrs[f.Attr.Name]; dup {
				return fmt.Errorf("%w: attribute %q declared by %s and %s", ErrInvalidField, f.Attr.Name, other, f.Name)
			}
			attrs[f.Attr.Name] = f.Name
		}
		if f.Prop != nil {
			if other, dup := props[f.Prop.Name]; dup {
				return fmt.Errorf("%w: property %q declared by %s and %s", ErrInvalidField, f.Prop.Name, other, f.Name)
			}
			props[f.Prop.Name] = f.Name
		}
	}
	return nil
}

// Declaration returns the TypeScript description of the component.
func (c *ComponentInfo) Declaration() dts.Element {
	el := dts.Element{Tag: c.Tag}
	for _, f := range c.Fields {
		if f.Attr != nil {
			el.Attributes = append(el.Attributes, f.Attr.Name)
		}
		if f.Prop != nil {
			el.Properties = append(el.Properties, dts.Property{Name: f.Prop.Name, Type: f.Prop.TSType, Readonly: f.Prop.Readonly})
		}
		if f.Event != nil {
			el.Events = append(el.Events, dts.Event{Name: f.Event.Name, Detail: f.Event.TSDetail})
		}
	}
	return el
}

// typeToString converts an AST type to a string representation.
func (g *Generator) typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + g.typeToString(t.X)
	case *ast.SelectorExpr:
		return g.typeToString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + g.typeToString(t.Elt)
		}
		return "[...]" + g.typeToString(t.Elt)
	case *ast.MapType:
		return "map[" + g.typeToString(t.Key) + "]" + g.typeToString(t.Value)
	case *ast.IndexExpr:
		return g.typeToString(t.X) + "[" + g.typeToString(t.Index) + "]"
	case *ast.InterfaceType:
		return "any"
	case *ast.FuncType:
		var params []string
		for _, p := range t.Params.List {
			n := len(p.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				params = append(params, g.typeToString(p.Type))
			}
		}
		s := "func(" + strings.Join(params, ", ") + ")"
		if t.Results != nil && len(t.Results.List) == 1 && len(t.Results.List[0].Names) == 0 {
			s += " " + g.typeToString(t.Results.List[0].Type)
		}
		return s
	default:
		return fmt.Sprintf("%T", expr)
	}
}
