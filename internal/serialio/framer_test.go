package serialio

import (
	"bytes"
	"strings"
	"testing"
)

func TestFramerSplitsOnCR(t *testing.T) {
	f := NewFramer(strings.NewReader("RA001ODOOOO\rRZ001C\r"))

	line, err := f.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "RA001ODOOOO" {
		t.Errorf("got %q, want %q", line, "RA001ODOOOO")
	}

	line, err = f.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "RZ001C" {
		t.Errorf("got %q, want %q", line, "RZ001C")
	}

	if _, err := f.ReadLine(); err == nil {
		t.Fatal("expected EOF error on third read")
	}
}

func TestFramerDropsEmptyLines(t *testing.T) {
	f := NewFramer(strings.NewReader("\r\rRA001ODOOOO\r"))

	line, err := f.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "RA001ODOOOO" {
		t.Errorf("got %q, want %q", line, "RA001ODOOOO")
	}
}

func TestFramerResyncsAfterOverflow(t *testing.T) {
	overflow := strings.Repeat("X", MaxLineLen+5)
	f := NewFramer(strings.NewReader(overflow + "\rRA001ODOOOO\r"))

	line, err := f.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "RA001ODOOOO" {
		t.Errorf("expected resync to next line, got %q", line)
	}
}

func TestWriteLineAppendsCR(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLine(&buf, "RA001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "RA001\r" {
		t.Errorf("got %q, want %q", buf.String(), "RA001\r")
	}
}
