package corpus

import "testing"

func TestStringsMatchUpToSpaces(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "hello world", "hello world", true},
		{"extra space in a", "hello  world", "hello world", true},
		{"extra space in b", "hello world", "hello  world", true},
		{"different words", "hello world", "hello there", false},
		{"short strings always match", "ab", "cd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StringsMatchUpToSpaces(tt.a, tt.b); got != tt.want {
				t.Errorf("StringsMatchUpToSpaces(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
