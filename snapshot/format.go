// Package snapshot exports and imports full record trees of a table as a
// self-describing binary stream.
//
// A snapshot is a header (magic number, format version, compression type,
// codec name) followed by one length-prefixed block per record. Blocks are
// codec-encoded record trees, optionally compressed. The header records the
// codec by name so a snapshot written with one codec opens with the right
// one regardless of the reader's default.
package snapshot

import "errors"

const (
	// MagicNumber identifies recgo snapshot streams (ASCII: "REC0")
	MagicNumber = 0x52454330
	// Version is the current snapshot format version
	Version = 1
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported snapshot version")
	ErrInvalidCodec   = errors.New("unknown snapshot codec")
)

// CompressionType defines the compression algorithm used for record blocks.
type CompressionType uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates ZSTD block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

// String returns the string representation of the CompressionType.
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}
