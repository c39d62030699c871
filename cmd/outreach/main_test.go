package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLimit(t *testing.T) {
	if n, err := parseLimit(nil); err != nil || n != 0 {
		t.Fatalf("expected default, got %d %v", n, err)
	}
	if n, err := parseLimit([]string{"12"}); err != nil || n != 12 {
		t.Fatalf("expected 12, got %d %v", n, err)
	}
	for _, bad := range []string{"0", "-3", "five"} {
		if _, err := parseLimit([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRunWithoutCommand(t *testing.T) {
	if err := run(nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected missing command error")
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, map[string]int{"pending": 2}); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"pending": 2`) {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
