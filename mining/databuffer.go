// FormatDataBuffer re-expresses original_source/src/miner.cpp's
// FormatDataBuffer, which wrote a block header into a raw 20-word
// buffer via pointer aliasing onto a C struct. spec.md §9 flags that
// as backend glue that should become an explicit little-endian
// serializer instead of a reinterpret-cast; encoding/binary gives Go
// that without unsafe.
package mining

import (
	"encoding/binary"

	"github.com/copernet/blockassembler/model/block"
)

// FormatDataBuffer packs a block header into the 80-byte + padding
// buffer a PoW hashing backend expects: version, prev hash, merkle
// root, time, bits, nonce (80 bytes), followed by SHA-256's standard
// padding and a trailing 64-bit length, 128 bytes in all.
func FormatDataBuffer(h *block.Header) []byte {
	buf := make([]byte, 128)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.HashPrevBlock[:])
	copy(buf[36:68], h.HashMerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Time)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	// SHA-256 padding: a single 1 bit, zero fill, then the 64-bit
	// message length in bits, big-endian, at the buffer's tail.
	buf[80] = 0x80
	binary.BigEndian.PutUint64(buf[120:128], 80*8)
	return buf
}
