// Package codec implements the pluggable compression used to shrink a
// participant's buffered write batch before it rides along in a prepare
// RPC, the same concern kgo's produce path uses klauspost/compress and
// pierrec/lz4 for on the Kafka side.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses and decompresses write-batch payloads.
type Codec interface {
	Name() string
	Encode(dst, src []byte) ([]byte, error)
	Decode(dst, src []byte) ([]byte, error)
}

// None is a no-op codec, the default for small batches where compression
// overhead isn't worth paying.
type None struct{}

func (None) Name() string { return "none" }
func (None) Encode(dst, src []byte) ([]byte, error) {
	return append(dst, src...), nil
}
func (None) Decode(dst, src []byte) ([]byte, error) {
	return append(dst, src...), nil
}

// Zstd compresses with zstd, the default non-trivial codec: best ratio,
// acceptable latency for range-sized batches.
type Zstd struct {
	level zstd.EncoderLevel
}

// NewZstd returns a Zstd codec at the given compression level.
func NewZstd(level zstd.EncoderLevel) Zstd {
	if level == 0 {
		level = zstd.SpeedDefault
	}
	return Zstd{level: level}
}

func (Zstd) Name() string { return "zstd" }

func (z Zstd) Encode(dst, src []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(z.level))
	if err != nil {
		return nil, fmt.Errorf("codec: new zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(src, dst), nil
}

func (Zstd) Decode(dst, src []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: new zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(src, dst)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd decode: %w", err)
	}
	return out, nil
}

// Lz4 compresses with lz4, favored when the coordinator would rather pay
// a worse ratio for lower CPU cost per prepare call, analogous to a
// producer picking Lz4 over Zstd in kgo.
type Lz4 struct{}

func (Lz4) Name() string { return "lz4" }

func (Lz4) Encode(dst, src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("codec: lz4 write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: lz4 close: %w", err)
	}
	return append(dst, buf.Bytes()...), nil
}

func (Lz4) Decode(dst, src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: lz4 read: %w", err)
	}
	return append(dst, out...), nil
}
