package history

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddAndList(t *testing.T) {
	h := New(Control{}, 0)
	h.Add("echo one", 100)
	h.Add("echo two", 200)
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	e, ok := h.At(1)
	if !ok || e.Command != "echo one" {
		t.Fatalf("At(1) = %+v, %v", e, ok)
	}
}

func TestIgnoreSpace(t *testing.T) {
	h := New(Control{IgnoreSpace: true}, 0)
	h.Add(" secret", 1)
	h.Add("visible", 2)
	if h.Len() != 1 || h.Entries()[0].Command != "visible" {
		t.Fatalf("entries = %+v", h.Entries())
	}
}

func TestIgnoreDups(t *testing.T) {
	h := New(Control{IgnoreDups: true}, 0)
	h.Add("ls", 1)
	h.Add("ls", 2)
	h.Add("pwd", 3)
	h.Add("ls", 4)
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (consecutive dup dropped, non-consecutive kept): %+v", h.Len(), h.Entries())
	}
}

func TestEraseDups(t *testing.T) {
	h := New(Control{EraseDups: true}, 0)
	h.Add("ls", 1)
	h.Add("pwd", 2)
	h.Add("ls", 3)
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (earlier ls erased): %+v", h.Len(), h.Entries())
	}
	if h.Entries()[0].Command != "pwd" || h.Entries()[1].Command != "ls" {
		t.Fatalf("entries = %+v", h.Entries())
	}
}

func TestMaxSize(t *testing.T) {
	h := New(Control{}, 2)
	h.Add("a", 1)
	h.Add("b", 2)
	h.Add("c", 3)
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	if h.Entries()[0].Command != "b" || h.Entries()[1].Command != "c" {
		t.Fatalf("entries = %+v", h.Entries())
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	data := "#100\necho one\necho two\n#300\necho three\n"
	h := New(Control{}, 0)
	if err := h.Load(strings.NewReader(data)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []Entry{
		{Timestamp: 100, Command: "echo one"},
		{Timestamp: 0, Command: "echo two"},
		{Timestamp: 300, Command: "echo three"},
	}
	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	var sb strings.Builder
	if err := h.Save(&sb, true); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if sb.String() != data {
		t.Fatalf("Save round-trip = %q, want %q", sb.String(), data)
	}
}

func TestSaveWithoutTimestamps(t *testing.T) {
	h := New(Control{}, 0)
	h.Add("echo one", 100)
	var sb strings.Builder
	if err := h.Save(&sb, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if sb.String() != "echo one\n" {
		t.Fatalf("Save = %q", sb.String())
	}
}

func TestParseControl(t *testing.T) {
	c := ParseControl("ignoreboth:erasedups")
	if !c.IgnoreSpace || !c.IgnoreDups || !c.EraseDups {
		t.Fatalf("ParseControl = %+v", c)
	}
}
