package compact

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/hupe1980/locindex/internal/arena"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// FrameMagic identifies a compressed region ("LIDZ").
const FrameMagic = 0x4C49445A

const frameHeaderSize = 16

// Upper bounds on the bytes one payload byte can expand to. Raw lengths beyond
// them are rejected before any allocation.
const (
	// An LZ4 match length grows by at most 255 per extension byte.
	maxLZ4Ratio = 255
	// A 4-byte RLE block (3-byte header, 1 byte) yields at most 128 KiB.
	maxZstdRatio = (128 << 10) / 4
)

// Compression selects how a region is framed on storage.
type Compression uint8

const (
	// CompressionNone stores the region as is.
	CompressionNone Compression = iota
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4
	// CompressionZstd uses Zstandard (better ratio).
	CompressionZstd
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

var zstdEncoderPool sync.Pool

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

// Frame wraps data for storage using c.
//
// Format: [magic uint32][compression uint32][raw length uint64][payload].
func Frame(data []byte, c Compression) ([]byte, error) {
	var payload []byte
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Incompressible; LZ4 signals this with n == 0.
			return data, nil
		}
		payload = buf[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown compression %s", c)
	}

	out := make([]byte, frameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:], FrameMagic)
	binary.LittleEndian.PutUint32(out[4:], uint32(c))
	binary.LittleEndian.PutUint64(out[8:], uint64(len(data)))
	copy(out[frameHeaderSize:], payload)
	return out, nil
}

// Unframe returns the raw region held by data and the compression it was
// stored with. Uncompressed regions are returned without copying.
func Unframe(data []byte) ([]byte, Compression, error) {
	if len(data) < 4 {
		return nil, 0, corrupt("region of %d bytes has no magic", len(data))
	}
	switch binary.LittleEndian.Uint32(data) {
	case Magic:
		return data, CompressionNone, nil
	case FrameMagic:
	default:
		return nil, 0, corrupt("unknown magic %#x", binary.LittleEndian.Uint32(data))
	}

	if len(data) < frameHeaderSize {
		return nil, 0, corrupt("truncated frame header")
	}
	c := Compression(binary.LittleEndian.Uint32(data[4:]))
	size := binary.LittleEndian.Uint64(data[8:])
	if size < HeaderSize || size%arena.WordSize != 0 || size > math.MaxInt32*arena.WordSize {
		return nil, 0, corrupt("implausible raw length %d", size)
	}
	payload := data[frameHeaderSize:]

	switch c {
	case CompressionLZ4:
		if size > maxLZ4Ratio*uint64(len(payload)) {
			return nil, 0, corrupt("raw length %d exceeds lz4 bound for %d payload bytes", size, len(payload))
		}
		raw := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, 0, corrupt("lz4: %v", err)
		}
		if uint64(n) != size {
			return nil, 0, corrupt("decompressed size mismatch")
		}
		return raw, c, nil
	case CompressionZstd:
		if size > maxZstdRatio*uint64(len(payload)) {
			return nil, 0, corrupt("raw length %d exceeds zstd bound for %d payload bytes", size, len(payload))
		}
		// The decoder refuses frames declaring more than size bytes.
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(size))
		if err != nil {
			return nil, 0, err
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, 0, corrupt("zstd: %v", err)
		}
		if uint64(len(raw)) != size {
			return nil, 0, corrupt("decompressed size mismatch")
		}
		return raw, c, nil
	default:
		return nil, 0, corrupt("unknown compression %d", uint8(c))
	}
}
