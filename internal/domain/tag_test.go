package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTagName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Go", want: "go"},
		{in: "  RuSt  ", want: "rust"},
		{in: "spring-boot", want: "spring-boot"},
		{in: "   ", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTagName(tt.in))
	}
}

func TestNormalizeTagSet(t *testing.T) {
	got := NormalizeTagSet([]string{"Go", "go", " RUST ", "", "zig", "rust"})
	assert.Equal(t, []string{"go", "rust", "zig"}, got)
}
