package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminal_Number(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("2\n"), &out)

	n, err := term.Number("Pick a method", 0, 3)
	if err != nil {
		t.Fatalf("number: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d, want 2", n)
	}
	if !strings.Contains(out.String(), "Pick a method [0-3]: ") {
		t.Errorf("unexpected prompt output: %q", out.String())
	}
}

func TestTerminal_Number_RetriesUntilValid(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("abc\n99\n1\n"), &out)

	n, err := term.Number("Choice", 0, 3)
	if err != nil {
		t.Fatalf("number: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d, want 1", n)
	}
	if got := strings.Count(out.String(), "Invalid choice"); got != 2 {
		t.Errorf("expected 2 retry notices, got %d:\n%s", got, out.String())
	}
}

func TestTerminal_Number_EOF(t *testing.T) {
	term := NewTerminal(strings.NewReader(""), &bytes.Buffer{})
	if _, err := term.Number("Choice", 0, 3); err == nil {
		t.Error("expected an error on exhausted input")
	}
}

func TestTerminal_Text(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("  honey badger bft \n"), &out)

	s, err := term.Text("Search query")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if s != "honey badger bft" {
		t.Errorf("got %q", s)
	}
	if !strings.Contains(out.String(), "Search query: ") {
		t.Errorf("unexpected prompt output: %q", out.String())
	}
}

func TestTerminal_Text_LastLineWithoutNewline(t *testing.T) {
	term := NewTerminal(strings.NewReader("2023/123"), &bytes.Buffer{})

	s, err := term.Text("ePrint id")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if s != "2023/123" {
		t.Errorf("got %q", s)
	}
}
