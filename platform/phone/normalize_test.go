package phone

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"612-345 678", "612345678"},
		{"+1 650 555 0100", "+16505550100"},
		{"(+34) 612 34 56 78", "+34612345678"},
		{"612+345", "612345"},
		{"++34 600", "+34600"},
		{"no number", ""},
	}

	for _, tc := range tests {
		if got := Clean(tc.in); got != tc.want {
			t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInternationalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"612-345 678", "+34612345678"},
		{"+1 650 555 0100", "+16505550100"},
		{"34612345678", "+34612345678"},
		{"0034 612 345 678", "+0034612345678"},
		{"12345", "+3412345"},
		{"+", ""},
		{"", ""},
	}

	for _, tc := range tests {
		if got := Internationalize(tc.in, "+34"); got != tc.want {
			t.Errorf("Internationalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeE164ForRegion(t *testing.T) {
	if got := NormalizeE164ForRegion("612 345 678", "ES"); got != "+34612345678" {
		t.Fatalf("expected Spanish mobile in E.164, got %q", got)
	}
	if got := NormalizeE164ForRegion("  not a phone ", "ES"); got != "not a phone" {
		t.Fatalf("expected trimmed input on parse failure, got %q", got)
	}
	if got := NormalizeE164ForRegion("", "ES"); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
