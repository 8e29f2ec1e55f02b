package webcmp

import (
	"testing"

	"github.com/go-logr/logr"

	"github.com/pthm/webcmp/lib/dom"
)

type encPoint struct{ X, Y int }

func (p encPoint) WCEncode() map[string]any {
	return map[string]any{"x": p.X, "y": p.Y}
}

func TestState_Fields(t *testing.T) {
	desc := MustDescriptor(
		NewProperty("Count", 2),
		NewOptionalProperty[string]("Label"),
	)
	s := newState(desc, nil, logr.Discard())

	if got := Field[int](s, "Count"); got != 2 {
		t.Errorf("Field(Count) = %d, want 2", got)
	}
	if got := Field[string](s, "Count"); got != "" {
		t.Errorf("Field[string](Count) = %q, want zero value", got)
	}
	if got := Field[int](s, "Missing"); got != 0 {
		t.Errorf("Field(Missing) = %d", got)
	}
	if got := OptionalField[string](s, "Label"); got != nil {
		t.Errorf("OptionalField(Label) = %v, want nil", *got)
	}

	if !s.Set("Label", "hi") {
		t.Fatal("Set(Label) = false")
	}
	if s.Set("Missing", 1) {
		t.Error("Set(Missing) = true")
	}
	if got := OptionalField[string](s, "Label"); got == nil || *got != "hi" {
		t.Errorf("OptionalField(Label) = %v", got)
	}
}

func TestState_Emit(t *testing.T) {
	desc := MustDescriptor(
		NewEvent("OnMove").NoBubble(),
		NewEvent("OnSave").NoCancel(),
	)
	host := dom.NewElement("x-test")
	var got []*dom.Event
	for _, name := range []string{"move", "save"} {
		host.AddEventListener(name, func(ev *dom.Event) {
			got = append(got, ev)
			ev.PreventDefault()
		})
	}
	s := newState(desc, host, logr.Discard())

	if s.Emit("OnMove", encPoint{1, 2}) {
		t.Error("Emit(OnMove) should report the cancellation")
	}
	if !EventFunc[string](s, "OnSave")("draft") {
		t.Error("non-cancelable OnSave reported cancelled")
	}
	if s.Emit("OnMissing", nil) {
		t.Error("Emit of an undeclared event = true")
	}

	if len(got) != 2 {
		t.Fatalf("dispatched %d events, want 2", len(got))
	}
	if got[0].Bubbles || !got[0].Cancelable {
		t.Errorf("move event = %+v", got[0])
	}
	if detail, ok := got[0].Detail.(map[string]any); !ok || detail["x"] != 1 {
		t.Errorf("move detail = %#v, want encoded map", got[0].Detail)
	}
	if got[1].Detail != "draft" || got[1].Cancelable {
		t.Errorf("save event = %+v", got[1])
	}
}
