package remote

import (
	"bytes"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the frame header written by the encoder. SQLite files
// start with "SQLite format 3", so the two never collide.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

func compress(data []byte) []byte {
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func isCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

func decompress(data []byte) ([]byte, error) {
	return decoder.DecodeAll(data, nil)
}
