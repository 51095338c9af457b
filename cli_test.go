package main

import "testing"

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lib-prefixed so", "./libxyz.so", "xyz.o"},
		{"no so suffix", "./xyz", "xyz.o"},
		{"so suffix but versioned, no lib stripped twice", "./libfoo.so.1", "libfoo.so.1.o"},
		{"uppercase SO suffix", "./libbar.SO", "bar.o"},
		{"uppercase LIB prefix", "./LIBbaz.so", "baz.o"},
		{"no lib prefix", "./quux.so", "quux.o"},
		{"bare lib with nothing after", "./lib.so", ".o"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultOutputPath(tt.input)
			if got != tt.want {
				t.Errorf("DefaultOutputPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultOutputPathPreservesDirectory(t *testing.T) {
	got := DefaultOutputPath("/opt/libs/libxyz.so")
	want := "/opt/libs/xyz.o"
	if got != want {
		t.Errorf("DefaultOutputPath() = %q, want %q", got, want)
	}
}
