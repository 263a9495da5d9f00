// Package snapshot implements the persisted on-disk format for embedding
// indexes.
//
// A snapshot is self-describing: the header records the codec and compression
// used to write the body, so a file written with one configuration can be
// opened by any reader. The body round-trips the full (id, normalized vector)
// set plus the fixed dimension, which is validated before the index serves
// queries again.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/dermalens/skinmatch/codec"
)

// magic identifies a skinmatch snapshot file.
var magic = [8]byte{'S', 'K', 'M', 'S', 'N', 'A', 'P', '1'}

// formatVersion is bumped on incompatible header/body layout changes.
const formatVersion = 1

var (
	// ErrCorrupt is returned when a snapshot cannot be parsed.
	ErrCorrupt = errors.New("corrupt snapshot")

	// ErrUnknownCodec is returned when the header names a codec this build
	// does not provide.
	ErrUnknownCodec = errors.New("unknown snapshot codec")

	// ErrUnknownCompression is returned when the header names an unsupported
	// compression scheme.
	ErrUnknownCompression = errors.New("unknown snapshot compression")
)

// Compression selects the body compression scheme.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// Index is the serializable content of an embedding index.
type Index struct {
	Dimension int         `json:"dimension"`
	IDs       []string    `json:"ids"`
	Vectors   [][]float32 `json:"vectors"`
}

// header describes how the body was written. It is always encoded with the
// standard-library JSON codec so it can be read before codec selection.
type header struct {
	Version     int         `json:"version"`
	Codec       string      `json:"codec"`
	Compression Compression `json:"compression"`
	Dimension   int         `json:"dimension"`
	Count       int         `json:"count"`
}

// Options configures how a snapshot is written.
type Options struct {
	// Codec encodes the body. If nil, codec.Default is used.
	Codec codec.Codec

	// Compression selects the body compression. Defaults to zstd.
	Compression Compression
}

// DefaultOptions contains the default write configuration.
var DefaultOptions = Options{
	Codec:       nil,
	Compression: CompressionZstd,
}

// WithCodec sets the body codec.
func WithCodec(c codec.Codec) func(o *Options) {
	return func(o *Options) {
		o.Codec = c
	}
}

// WithCompression sets the body compression scheme.
func WithCompression(c Compression) func(o *Options) {
	return func(o *Options) {
		o.Compression = c
	}
}

// Write serializes idx to w.
func Write(w io.Writer, idx *Index, optFns ...func(o *Options)) error {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	if len(idx.IDs) != len(idx.Vectors) {
		return fmt.Errorf("%w: %d ids for %d vectors", ErrCorrupt, len(idx.IDs), len(idx.Vectors))
	}

	body, err := c.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode snapshot body: %w", err)
	}

	body, err = compress(opts.Compression, body)
	if err != nil {
		return err
	}

	h := header{
		Version:     formatVersion,
		Codec:       c.Name(),
		Compression: opts.Compression,
		Dimension:   idx.Dimension,
		Count:       len(idx.IDs),
	}

	headerBytes, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode snapshot header: %w", err)
	}

	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("write snapshot magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(headerBytes))); err != nil {
		return fmt.Errorf("write snapshot header length: %w", err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write snapshot body: %w", err)
	}

	return nil
}

// Read parses a snapshot from r and validates its internal consistency.
func Read(r io.Reader) (*Index, error) {
	var m [8]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %w", ErrCorrupt, err)
	}
	if m != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}

	var headerLen uint32
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("%w: reading header length: %w", ErrCorrupt, err)
	}
	if headerLen == 0 || headerLen > 1<<20 {
		return nil, fmt.Errorf("%w: implausible header length %d", ErrCorrupt, headerLen)
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrCorrupt, err)
	}

	var h header
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return nil, fmt.Errorf("%w: parsing header: %w", ErrCorrupt, err)
	}
	if h.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, h.Version)
	}

	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, h.Codec)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrCorrupt, err)
	}

	body, err = decompress(h.Compression, body)
	if err != nil {
		return nil, err
	}

	var idx Index
	if err := c.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("%w: decoding body: %w", ErrCorrupt, err)
	}

	if idx.Dimension != h.Dimension {
		return nil, fmt.Errorf("%w: header dimension %d, body dimension %d", ErrCorrupt, h.Dimension, idx.Dimension)
	}
	if len(idx.IDs) != h.Count || len(idx.Vectors) != h.Count {
		return nil, fmt.Errorf("%w: header count %d, body has %d ids and %d vectors",
			ErrCorrupt, h.Count, len(idx.IDs), len(idx.Vectors))
	}
	for i, v := range idx.Vectors {
		if len(v) != idx.Dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrCorrupt, i, len(v), idx.Dimension)
		}
	}

	return &idx, nil
}

func compress(scheme Compression, data []byte) ([]byte, error) {
	switch scheme {
	case CompressionNone, "":
		return data, nil
	case CompressionZstd:
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("zstd compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("zstd flush: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		lw := lz4.NewWriter(&buf)
		if _, err := lw.Write(data); err != nil {
			_ = lw.Close()
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := lw.Close(); err != nil {
			return nil, fmt.Errorf("lz4 flush: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, scheme)
	}
}

func decompress(scheme Compression, data []byte) ([]byte, error) {
	switch scheme {
	case CompressionNone, "":
		return data, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd reader: %w", ErrCorrupt, err)
		}
		defer zr.Close()

		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd decompress: %w", ErrCorrupt, err)
		}
		return out, nil
	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: lz4 decompress: %w", ErrCorrupt, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, scheme)
	}
}
