package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/rivo/tview"
)

func TestPagesStack(t *testing.T) {
	p := NewPages()
	for _, name := range []string{"list", "chat", "search"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	var tops []string
	p.SetOnChange(func(top string) { tops = append(tops, top) })

	p.Push("list")
	p.Push("chat")
	p.Push("chat")
	p.Push("search")
	if p.Current() != "search" {
		t.Fatalf("Current = %q", p.Current())
	}
	if !p.Pop() || p.Current() != "chat" {
		t.Fatalf("after Pop, Current = %q", p.Current())
	}
	p.Push("list")
	if p.Current() != "list" {
		t.Fatalf("re-push: Current = %q", p.Current())
	}
	if !p.Pop() || p.Current() != "chat" {
		t.Fatalf("Current = %q, want chat as new root", p.Current())
	}
	if p.Pop() {
		t.Error("popped the root page")
	}
	want := []string{"list", "chat", "search", "chat", "list", "chat"}
	if strings.Join(tops, ",") != strings.Join(want, ",") {
		t.Errorf("changes = %v, want %v", tops, want)
	}
}

func TestFlashExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("empty model has a message")
	}
	f.Warn("offline")
	msg := f.Current()
	if msg == nil || msg.Level != FlashWarn || msg.Text != "offline" {
		t.Fatalf("Current = %+v", msg)
	}
	now = now.Add(9 * time.Second)
	if f.Current() != nil {
		t.Error("message did not expire")
	}
}

func TestMarkupEscapes(t *testing.T) {
	got := Markup(DefaultTheme(), &FlashMessage{Text: "[red]x", Level: FlashErr})
	if !strings.Contains(got, "[red[]x") {
		t.Errorf("Markup = %q, want escaped text", got)
	}
	if Markup(DefaultTheme(), nil) != "" {
		t.Error("nil message rendered")
	}
}

func TestRenderQR(t *testing.T) {
	out := RenderQR("http://files.example/tmp/a.pdf")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("QR too small: %d lines", len(lines))
	}
	if !strings.ContainsAny(out, "█▀▄") {
		t.Error("QR has no blocks")
	}
}
