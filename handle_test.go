package webcmp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm/webcmp/lib/dom"
)

func TestHandle_InstallReplaysObservedAttributes(t *testing.T) {
	host := dom.NewElement("x-test")
	host.SetAttribute("b", "2")
	host.SetAttribute("a", "1")
	host.SetAttribute("ignored", "x")

	probe := NewProbe()
	h := newHandle("x-test", host, []string{"a", "b", "c"}, observers{probe})
	tx, rx := newChannel()

	// A host callback racing with the install must land after the replay.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-h.Ready()
		h.send(Set{Name: "late"})
	}()

	if !h.install(tx) {
		t.Fatal("install() = false")
	}
	wg.Wait()
	tx.Close()

	var got []string
	for {
		m, ok := rx.Recv(context.Background())
		if !ok {
			break
		}
		switch m := m.(type) {
		case SetAttribute:
			got = append(got, m.Name+"="+*m.Value)
		case Set:
			got = append(got, "set "+m.Name)
		}
	}
	if diff := cmp.Diff([]string{"a=1", "b=2", "set late"}, got); diff != "" {
		t.Errorf("delivered messages mismatch (-want +got):\n%s", diff)
	}
	if n := len(probe.Sent()); n != 3 {
		t.Errorf("probe saw %d sends, want 3", n)
	}
}

func TestHandle_SendBeforeInstallIsDropped(t *testing.T) {
	probe := NewProbe()
	h := newHandle("x-test", dom.NewElement("x-test"), nil, observers{probe})

	if h.send(Set{Name: "early"}) {
		t.Error("send() before install = true")
	}
	if h.Installed() {
		t.Error("Installed() before install = true")
	}
	dropped := probe.Dropped()
	if len(dropped) != 1 || !errors.Is(dropped[0].Reason, ErrChannelClosed) {
		t.Errorf("Dropped() = %v", dropped)
	}
}

func TestHandle_ClearIsPermanent(t *testing.T) {
	h := newHandle("x-test", dom.NewElement("x-test"), nil, nil)
	tx, _ := newChannel()
	if !h.install(tx) {
		t.Fatal("install() = false")
	}
	if tx2, _ := newChannel(); h.install(tx2) {
		t.Error("second install() = true")
	}

	if got := h.clear(); got != tx {
		t.Error("clear() did not return the installed sender")
	}
	if h.Installed() {
		t.Error("Installed() after clear = true")
	}
	if tx3, _ := newChannel(); h.install(tx3) {
		t.Error("install() after clear = true")
	}
	if h.send(Set{Name: "x"}) {
		t.Error("send() after clear = true")
	}
	if got := h.clear(); got != nil {
		t.Error("second clear() returned a sender")
	}
}

func TestHandle_ClearBeforeInstall(t *testing.T) {
	h := newHandle("x-test", dom.NewElement("x-test"), []string{"a"}, nil)
	if got := h.clear(); got != nil {
		t.Errorf("clear() = %v, want nil", got)
	}
	tx, _ := newChannel()
	if h.install(tx) {
		t.Error("install() after clear = true")
	}
	select {
	case <-h.Ready():
		t.Error("Ready() closed without an install")
	default:
	}
}
