package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = bytes.Repeat([]byte(`{"name":"filament::FEngine","size":1024,"children":[]}`), 64)

func TestRoundTrip(t *testing.T) {
	for _, typ := range []Type{TypeGzip, TypeZstd, TypeNone} {
		t.Run(typ.Extension(), func(t *testing.T) {
			c, err := New(typ)
			require.NoError(t, err)
			defer Close(c)

			compressed, err := c.Compress(sample)
			require.NoError(t, err)
			if typ != TypeNone {
				assert.Less(t, len(compressed), len(sample))
			}
			assert.Equal(t, typ, c.Type())

			restored, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, sample, restored)
		})
	}
}

func TestDetectTypeAndAutoDecompress(t *testing.T) {
	for _, typ := range []Type{TypeGzip, TypeZstd} {
		c, err := New(typ)
		require.NoError(t, err)
		compressed, err := c.Compress(sample)
		require.NoError(t, err)
		Close(c)

		assert.Equal(t, typ, DetectType(compressed))
		restored, err := AutoDecompress(compressed)
		require.NoError(t, err)
		assert.Equal(t, sample, restored)
	}

	assert.Equal(t, TypeNone, DetectType([]byte("{}")))
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"gzip", TypeGzip, false},
		{"zstd", TypeZstd, false},
		{"", TypeZstd, false},
		{"none", TypeNone, false},
		{"brotli", TypeNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
