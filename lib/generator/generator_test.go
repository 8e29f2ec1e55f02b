package generator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const counterSource = `package counter

// Counter is a test component.
//
//webcmp:component plop-counter
type Counter struct {
	Count     int            ` + "`wc:\"attr;prop,default=1\"`" + `
	Label     *string        ` + "`wc:\"attr=label-text;prop\"`" + `
	Total     int            ` + "`wc:\"prop,readonly\"`" + `
	OnChanged func(int) bool ` + "`wc:\"event=count-changed,nocancel\"`" + `
	internal  string
	Skipped   string ` + "`wc:\"-\"`" + `
}

type notAComponent struct {
	Count int ` + "`wc:\"attr\"`" + `
}
`

func writePackage(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestParseWCTag(t *testing.T) {
	tests := []struct {
		name  string
		field string
		typ   string
		tag   string
		want  FieldInfo
	}{
		{
			name:  "attribute with derived name",
			field: "MaxCount",
			typ:   "int",
			tag:   "attr",
			want: FieldInfo{
				Name: "MaxCount", Type: "int",
				Attr: &AttrRole{Name: "max-count", Parser: "webcmp.ParseInt"},
			},
		},
		{
			name:  "explicit attribute name is lower-cased",
			field: "Label",
			typ:   "string",
			tag:   "attr=Data-Label",
			want: FieldInfo{
				Name: "Label", Type: "string",
				Attr: &AttrRole{Name: "data-label", Explicit: true, Parser: "webcmp.ParseString"},
			},
		},
		{
			name:  "pointer attribute is optional",
			field: "Limit",
			typ:   "*float64",
			tag:   "attr,optional",
			want: FieldInfo{
				Name: "Limit", Type: "*float64",
				Attr: &AttrRole{Name: "limit", Optional: true, Parser: "webcmp.ParseFloat"},
			},
		},
		{
			name:  "readonly property with custom type",
			field: "CreatedAt",
			typ:   "string",
			tag:   "prop,readonly,type=Date",
			want: FieldInfo{
				Name: "CreatedAt", Type: "string",
				Prop: &PropRole{Name: "createdAt", Readonly: true, TSType: "Date"},
			},
		},
		{
			name:  "attribute and property share a slot",
			field: "Count",
			typ:   "int",
			tag:   "attr;prop,default=3",
			want: FieldInfo{
				Name: "Count", Type: "int", Default: "3",
				Attr: &AttrRole{Name: "count", Parser: "webcmp.ParseInt"},
				Prop: &PropRole{Name: "count", TSType: "number"},
			},
		},
		{
			name:  "event",
			field: "OnValueChanged",
			typ:   "func(string) bool",
			tag:   "event,nobubble",
			want: FieldInfo{
				Name: "OnValueChanged", Type: "func(string) bool",
				Event: &EventRole{Name: "value-changed", Detail: "string", TSDetail: "string", NoBubble: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldInfo{Name: tt.field, Type: tt.typ}
			if err := parseWCTag(&got, tt.tag); err != nil {
				t.Fatalf("parseWCTag() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseWCTag() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseWCTag_Errors(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		tag  string
	}{
		{"unknown role", "int", "slot"},
		{"repeated role", "int", "attr;attr=other"},
		{"optional on value type", "int", "attr,optional"},
		{"no parser for type", "[]string", "attr"},
		{"unknown prop option", "int", "prop,writable"},
		{"event with wrong type", "int", "event"},
		{"event sharing a slot", "func(int) bool", "event;prop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FieldInfo{Name: "Field", Type: tt.typ}
			err := parseWCTag(&f, tt.tag)
			if !errors.Is(err, ErrInvalidField) {
				t.Errorf("parseWCTag(%q) error = %v, want ErrInvalidField", tt.tag, err)
			}
		})
	}
}

func TestEventDetail(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"func(int) bool", "int", true},
		{"func(map[string]any) bool", "map[string]any", true},
		{"func(int)", "", false},
		{"func(int, string) bool", "", false},
		{"func() bool", "", false},
	}
	for _, tt := range tests {
		got, ok := eventDetail(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("eventDetail(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestGenerate(t *testing.T) {
	dir := writePackage(t, map[string]string{"counter.go": counterSource})

	g := New(Options{Declarations: "components.d.ts"})
	if err := g.Generate(dir); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	code, err := os.ReadFile(filepath.Join(dir, "counter_wc.go"))
	if err != nil {
		t.Fatalf("generated file missing: %v", err)
	}
	src := string(code)

	for _, want := range []string{
		"// Code generated by webcmp. DO NOT EDIT.",
		"package counter",
		"var counterWCDescriptor = webcmp.MustDescriptor(",
		`webcmp.NewAttribute[int]("Count", int(1), webcmp.ParseInt),`,
		`webcmp.NewProperty[int]("Count", int(1)),`,
		`webcmp.NewOptionalAttribute[string]("Label", webcmp.ParseString).Named("label-text"),`,
		`webcmp.NewOptionalProperty[string]("Label"),`,
		`webcmp.NewProperty[int]("Total", int(0)).AsReadonly(),`,
		`webcmp.NewEvent("OnChanged").Named("count-changed").NoCancel().WithDetail("number"),`,
		`return "plop-counter"`,
		"func (Counter) WCDescriptor() *webcmp.Descriptor {",
		"func LoadCounter(s *webcmp.State) Counter {",
		`webcmp.Field[int](s, "Count")`,
		`webcmp.OptionalField[string](s, "Label")`,
		`webcmp.EventFunc[int](s, "OnChanged")`,
		"func RegisterCounter(reg *webcmp.Registry, style webcmp.Style, build webcmp.Builder) error {",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated code missing %q\n%s", want, src)
		}
	}
	for _, unwanted := range []string{"Skipped", "internal", "notAComponent"} {
		if strings.Contains(src, unwanted) {
			t.Errorf("generated code should not mention %q", unwanted)
		}
	}

	decl, err := os.ReadFile(filepath.Join(dir, "components.d.ts"))
	if err != nil {
		t.Fatalf("declarations missing: %v", err)
	}
	for _, want := range []string{
		"// package counter",
		"export interface PlopCounterElement extends HTMLElement {",
		"  count: number;",
		"  label: string | null;",
		"  readonly total: number;",
		`addEventListener(type: "count-changed", listener: (ev: CustomEvent<number>) => void`,
		`"plop-counter": PlopCounterElement;`,
	} {
		if !strings.Contains(string(decl), want) {
			t.Errorf("declarations missing %q\n%s", want, decl)
		}
	}
}

func TestGenerate_SkipsOwnOutput(t *testing.T) {
	dir := writePackage(t, map[string]string{
		"counter.go":    counterSource,
		"counter_wc.go": "this is not Go",
	})

	if err := New(Options{}).Generate(dir); err != nil {
		t.Fatalf("Generate() should ignore stale output, got %v", err)
	}
}

func TestGenerate_DryRun(t *testing.T) {
	dir := writePackage(t, map[string]string{"counter.go": counterSource})

	if err := New(Options{DryRun: true, Declarations: "components.d.ts"}).Generate(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "counter_wc.go")); !os.IsNotExist(err) {
		t.Errorf("dry run wrote output, stat error = %v", err)
	}
}

func TestGenerate_DuplicateNames(t *testing.T) {
	src := `package dup

//webcmp:component dup-element
type Dup struct {
	A int ` + "`wc:\"attr=value\"`" + `
	B int ` + "`wc:\"attr=VALUE\"`" + `
}
`
	dir := writePackage(t, map[string]string{"dup.go": src})

	err := New(Options{}).Generate(dir)
	if !errors.Is(err, ErrInvalidField) {
		t.Errorf("Generate() error = %v, want ErrInvalidField", err)
	}
}

func TestClean(t *testing.T) {
	dir := writePackage(t, map[string]string{
		"counter.go":      counterSource,
		"counter_wc.go":   "package counter\n",
		"components.d.ts": "",
	})

	if err := New(Options{Declarations: "components.d.ts"}).Clean(dir); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	for _, name := range []string{"counter_wc.go", "components.d.ts"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s not removed", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "counter.go")); err != nil {
		t.Errorf("source removed: %v", err)
	}
}

func TestFindPackages_Recursive(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"a", "a/b", "_skip", "testdata", "empty"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range []string{"a/a.go", "a/b/b.go", "_skip/s.go", "testdata/t.go"} {
		if err := os.WriteFile(filepath.Join(root, f), []byte("package x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := New(Options{}).findPackages([]string{root + "/..."})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(root, "a"), filepath.Join(root, "a/b")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("findPackages() mismatch (-want +got):\n%s", diff)
	}
}
