package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatKiB(t *testing.T) {
	assert.Equal(t, "       0 KiB", FormatKiB(0))
	assert.Equal(t, "       2 KiB", FormatKiB(2048))
	assert.Equal(t, "    1024 KiB", FormatKiB(1<<20))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in       int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatBytes(tt.in))
		})
	}
}
