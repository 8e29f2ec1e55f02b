package webcmpecho

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pthm/webcmp"
	"github.com/pthm/webcmp/examples/counter"
	"github.com/pthm/webcmp/examples/greeting"
)

func newRegistry(t *testing.T, opts webcmp.Options) *webcmp.Registry {
	t.Helper()
	reg := webcmp.NewRegistry(opts)
	if err := counter.Register(reg); err != nil {
		t.Fatal(err)
	}
	if err := greeting.Register(reg, ""); err != nil {
		t.Fatal(err)
	}
	return reg
}

func serve(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestElements(t *testing.T) {
	e := echo.New()
	Mount(e, newRegistry(t, webcmp.Options{}))

	rec := serve(e, "/_wc/elements")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got []Element
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Tag != "plop-counter" || got[1].Tag != "plop-greeting" {
		t.Fatalf("manifest = %+v", got)
	}
	var readonly []string
	for _, p := range got[0].Properties {
		if p.Readonly {
			readonly = append(readonly, p.Name)
		}
	}
	if len(readonly) != 1 || readonly[0] != "doubled" {
		t.Errorf("readonly properties = %v, want [doubled]", readonly)
	}
	if len(got[1].Events) != 1 || got[1].Events[0] != "greet" {
		t.Errorf("greeting events = %v", got[1].Events)
	}
}

func TestDeclarations(t *testing.T) {
	e := echo.New()
	Mount(e, newRegistry(t, webcmp.Options{}), WithPath("/components"))

	rec := serve(e, "/components/components.d.ts")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "application/typescript") {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{"PlopCounterElement", "PlopGreetingElement"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("declarations missing %s", want)
		}
	}
}

func TestRender(t *testing.T) {
	e := echo.New()
	Mount(e, newRegistry(t, webcmp.Options{}))

	rec := serve(e, "/_wc/render/plop-greeting?name=%3Cb%3E&excited=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		`<plop-greeting excited="true" name="&lt;b&gt;">`,
		`<template shadowrootmode="open">`,
		`<p class="excited">Hello, &lt;b&gt;!</p>`,
		`</template></plop-greeting>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q\n%s", want, body)
		}
	}
}

func TestRenderUnknownTag(t *testing.T) {
	e := echo.New()
	Mount(e, newRegistry(t, webcmp.Options{}))

	if rec := serve(e, "/_wc/render/plop-missing"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestMountGroupWithMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	metrics := webcmp.NewMetrics(promReg)
	reg := newRegistry(t, webcmp.Options{Observers: []webcmp.Observer{metrics}})

	e := echo.New()
	g := e.Group("/app")
	MountGroup(g, reg, WithMetrics(promReg))

	if rec := serve(e, "/app/_wc/render/plop-counter?count=2"); rec.Code != http.StatusOK {
		t.Fatalf("render status = %d", rec.Code)
	}
	rec := serve(e, "/app/_wc/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `webcmp_connects_total{tag="plop-counter"} 1`) {
		t.Errorf("metrics missing connect counter:\n%s", rec.Body.String())
	}
	if rec := serve(e, "/_wc/elements"); rec.Code != http.StatusNotFound {
		t.Errorf("routes leaked outside the group: status %d", rec.Code)
	}
}

func TestRenderRejectsInvalidAttributeNames(t *testing.T) {
	e := echo.New()
	Mount(e, newRegistry(t, webcmp.Options{}))

	for _, query := range []string{
		"x+onmouseover=alert(1)",
		"a%22b=1",
		"a%3Eb=1",
		"a%2Fb=1",
		"%3D=1",
	} {
		rec := serve(e, "/_wc/render/plop-counter?"+query)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("?%s: status = %d, want %d", query, rec.Code, http.StatusBadRequest)
		}
		if strings.Contains(rec.Body.String(), "<plop-counter") {
			t.Errorf("?%s: element rendered:\n%s", query, rec.Body.String())
		}
	}
}

func TestPrerenderRejectsInvalidAttributeNames(t *testing.T) {
	reg := newRegistry(t, webcmp.Options{})
	entry, _ := reg.Lookup("plop-counter")

	_, err := Prerender(context.Background(), entry, map[string]string{"x onmouseover": "alert(1)"})
	if !errors.Is(err, ErrInvalidAttribute) {
		t.Errorf("Prerender() error = %v, want ErrInvalidAttribute", err)
	}
}

func TestValidAttributeName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"count", true},
		{"data-step", true},
		{"aria-label", true},
		{"x:lang", true},
		{"", false},
		{"x onmouseover", false},
		{"a\tb", false},
		{`a"b`, false},
		{"a'b", false},
		{"a>b", false},
		{"a/b", false},
		{"a=b", false},
		{"\x00", false},
	}
	for _, tt := range tests {
		if got := validAttributeName(tt.name); got != tt.want {
			t.Errorf("validAttributeName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
