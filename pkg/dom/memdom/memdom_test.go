package memdom

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/trellis/pkg/dom"
)

func newDoc(t *testing.T) *Document {
	t.Helper()
	d, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func TestSetInnerHTMLAndResolve(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)

	if err := d.SetInnerHTML(ctx, "/html/body", `<div><span></span><p>x</p></div><ul></ul>`); err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}
	if err := d.AppendText(ctx, "/html/body/*[1]/*[1]", "hello"); err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}

	got, err := d.InnerHTML("/html/body/*[1]")
	if err != nil {
		t.Fatal(err)
	}
	if want := `<span>hello</span><p>x</p>`; got != want {
		t.Errorf("InnerHTML() = %q, want %q", got, want)
	}
	if d.Text() != "hellox" {
		t.Errorf("Text() = %q", d.Text())
	}
}

func TestLookupFailures(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)

	err := d.SetInnerHTML(ctx, "/html/body/*[3]", "<p></p>")
	if !errors.Is(err, dom.ErrNotFound) {
		t.Errorf("missing node error = %v, want ErrNotFound", err)
	}

	err = d.AppendText(ctx, "/html/head", "x")
	if !errors.Is(err, dom.ErrInvalidLocator) {
		t.Errorf("foreign locator error = %v, want ErrInvalidLocator", err)
	}

	err = d.AddEventListener(ctx, "/html/body/*[0]", "click", func() {})
	if !errors.Is(err, dom.ErrInvalidLocator) {
		t.Errorf("zero step error = %v, want ErrInvalidLocator", err)
	}

	if len(d.Log()) != 0 {
		t.Errorf("failed primitives must not be logged, got %v", d.Log())
	}
}

func TestListeners(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)
	_ = d.SetInnerHTML(ctx, "/html/body", `<button></button><button></button>`)

	clicks := 0
	_ = d.AddEventListener(ctx, "/html/body/*[2]", "click", func() { clicks++ })
	_ = d.AddEventListener(ctx, "/html/body/*[2]", "input", func() { t.Error("input fired") })

	n, err := d.Fire("/html/body/*[2]", "click")
	if err != nil || n != 1 || clicks != 1 {
		t.Errorf("Fire() = %d, %v; clicks = %d", n, err, clicks)
	}
	if n, _ := d.Fire("/html/body/*[1]", "click"); n != 0 {
		t.Errorf("unbound Fire() = %d, want 0", n)
	}

	want := []Binding{
		{Locator: "/html/body/*[2]", Event: "click"},
		{Locator: "/html/body/*[2]", Event: "input"},
	}
	if diff := cmp.Diff(want, d.Bindings()); diff != "" {
		t.Errorf("Bindings() mismatch (-want +got):\n%s", diff)
	}

	_ = d.RemoveEventListeners(ctx, "/html/body/*[2]")
	if d.ListenerCount("/html/body/*[2]") != 0 {
		t.Error("listeners should be removed")
	}
}

func TestReplacedNodesDropListeners(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)
	_ = d.SetInnerHTML(ctx, "/html/body", `<div><button></button></div>`)
	_ = d.AddEventListener(ctx, "/html/body/*[1]/*[1]", "click", func() {})

	_ = d.SetInnerHTML(ctx, "/html/body/*[1]", `<button></button>`)
	if got := d.ListenerCount("/html/body/*[1]/*[1]"); got != 0 {
		t.Errorf("fresh node has %d listeners, want 0", got)
	}
	if len(d.Bindings()) != 0 {
		t.Errorf("Bindings() = %v, want none", d.Bindings())
	}
}

func TestListenerMayMutateDocument(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)
	_ = d.SetInnerHTML(ctx, "/html/body", `<button></button><span></span>`)
	_ = d.AddEventListener(ctx, "/html/body/*[1]", "click", func() {
		_ = d.AppendText(ctx, "/html/body/*[2]", "clicked")
	})

	if _, err := d.Fire("/html/body/*[1]", "click"); err != nil {
		t.Fatal(err)
	}
	if d.Text() != "clicked" {
		t.Errorf("Text() = %q, want clicked", d.Text())
	}
}

func TestCountsAndReset(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)
	_ = d.SetInnerHTML(ctx, "/html/body", `<span></span>`)
	_ = d.AppendText(ctx, "/html/body/*[1]", "a")
	_ = d.AppendText(ctx, "/html/body/*[1]", "b")

	counts := d.Counts()
	if counts[dom.OpSetInnerHTML] != 1 || counts[dom.OpAppendText] != 2 {
		t.Errorf("Counts() = %v", counts)
	}
	d.ResetLog()
	if len(d.Log()) != 0 {
		t.Error("ResetLog() should clear the log")
	}
	if d.HTML() != "<span>ab</span>" {
		t.Errorf("HTML() = %q", d.HTML())
	}
}

func TestCustomRoot(t *testing.T) {
	d, err := Parse(`<html><body><header></header><main></main></body></html>`, WithRoot("/html/body/*[2]"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := d.SetInnerHTML(context.Background(), "/html/body/*[2]", "<p>in main</p>"); err != nil {
		t.Fatal(err)
	}
	if d.HTML() != "<p>in main</p>" {
		t.Errorf("HTML() = %q", d.HTML())
	}

	if _, err := New(WithRoot("/html/nav")); !errors.Is(err, dom.ErrNotFound) {
		t.Errorf("unresolvable root error = %v", err)
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		locator string
		want    []int
		wantErr bool
	}{
		{"/html/body", nil, false},
		{"/html/body/*[1]", []int{1}, false},
		{"/html/body/*[12]/*[3]", []int{12, 3}, false},
		{"/html/body/div", nil, true},
		{"/html/body/*[]", nil, true},
		{"/other", nil, true},
	}
	for _, tt := range tests {
		got, err := dom.Steps("/html/body", tt.locator)
		if (err != nil) != tt.wantErr {
			t.Errorf("Steps(%q) error = %v, wantErr %v", tt.locator, err, tt.wantErr)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Steps(%q) mismatch (-want +got):\n%s", tt.locator, diff)
		}
	}
}
