// Package compression wraps the codecs used for published tree bundles.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Type identifies a codec.
type Type uint8

const (
	// TypeGzip is gzip, readable by every browser and CLI.
	TypeGzip Type = 0
	// TypeZstd is zstd, smaller and faster for large trees.
	TypeZstd Type = 1
	// TypeNone stores data as-is.
	TypeNone Type = 255
)

// Extension returns the conventional file suffix for the codec.
func (t Type) Extension() string {
	switch t {
	case TypeGzip:
		return ".gz"
	case TypeZstd:
		return ".zst"
	default:
		return ""
	}
}

// ParseType maps a codec name ("gzip", "zstd", "none") to a Type.
func ParseType(name string) (Type, error) {
	switch name {
	case "gzip", "gz":
		return TypeGzip, nil
	case "zstd", "zst", "":
		return TypeZstd, nil
	case "none":
		return TypeNone, nil
	default:
		return TypeNone, fmt.Errorf("unknown compression type: %q", name)
	}
}

// Compressor compresses and decompresses whole buffers.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Type() Type
}

// GzipCompressor implements Compressor using gzip.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor creates a gzip compressor at the given gzip level.
func NewGzipCompressor(level int) *GzipCompressor {
	return &GzipCompressor{level: level}
}

// Compress compresses data using gzip.
func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write gzip data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses gzip data.
func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Type returns TypeGzip.
func (c *GzipCompressor) Type() Type { return TypeGzip }

// ZstdCompressor implements Compressor using zstd.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor creates a zstd compressor. Call Close when done.
func NewZstdCompressor(level zstd.EncoderLevel) (*ZstdCompressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompressor{encoder: encoder, decoder: decoder}, nil
}

// Compress compresses data using zstd.
func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

// Decompress decompresses zstd data.
func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

// Type returns TypeZstd.
func (c *ZstdCompressor) Type() Type { return TypeZstd }

// Close releases encoder and decoder resources.
func (c *ZstdCompressor) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

type noopCompressor struct{}

func (noopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (noopCompressor) Type() Type                             { return TypeNone }

// New creates a compressor for the given type at its default level.
func New(t Type) (Compressor, error) {
	switch t {
	case TypeZstd:
		return NewZstdCompressor(zstd.SpeedDefault)
	case TypeGzip:
		return NewGzipCompressor(gzip.DefaultCompression), nil
	case TypeNone:
		return noopCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// Close closes a compressor if it holds resources.
func Close(c Compressor) {
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}

// DetectType sniffs the codec from magic bytes.
func DetectType(data []byte) Type {
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		return TypeZstd
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return TypeGzip
	}
	return TypeNone
}

// AutoDecompress decompresses data using the codec detected from its header.
func AutoDecompress(data []byte) ([]byte, error) {
	c, err := New(DetectType(data))
	if err != nil {
		return nil, err
	}
	defer Close(c)
	return c.Decompress(data)
}
