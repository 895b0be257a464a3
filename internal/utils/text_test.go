package utils

import "testing"

func TestCountWords(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"hello world", 2},
		{"", 0},
		{"   ", 0},
		{"one\ttwo\nthree  four", 4},
		{"  padded  ", 1},
	}
	for _, tt := range tests {
		if got := CountWords(tt.in); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello..."},
		{"no limit", "hello world", 0, "hello world"},
		{"tiny limit", "hello", 2, "he"},
		{"multibyte", "héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(" \t\n") {
		t.Error("whitespace should be blank")
	}
	if IsBlank(" a ") {
		t.Error("text should not be blank")
	}
}
