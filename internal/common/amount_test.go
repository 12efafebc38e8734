package common

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"70000", 70_000},
		{"70,000", 70_000},
		{" 1,234,500 KRW ", 1_234_500},
		{"free", 0},
		{"", 0},
		{"-500", 500},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestAtoiDefault(t *testing.T) {
	if got := AtoiDefault("12", 3); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if got := AtoiDefault("x", 3); got != 3 {
		t.Fatalf("expected fallback 3, got %d", got)
	}
	if got := AtoiDefault("", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}
