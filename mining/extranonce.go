package mining

import (
	"encoding/binary"

	"github.com/copernet/blockassembler/consensus"
	"github.com/copernet/blockassembler/model/block"
	"github.com/copernet/blockassembler/model/blockindex"
	"github.com/copernet/blockassembler/util/hash"
)

// maxBlockSizeSigThreshold is the configured max-generated-block-size
// IncrementExtraNonce signals via CoinbaseScriptSig's "/EB<n.n>/" tag.
// Set by the caller that owns the assembler's size budget; left at the
// legacy default until a caller opts in, matching
// copernet-copernicus's "behavior for EB<1MB not standardized" note.
var maxBlockSizeSigThreshold uint64 = consensus.OneMegabyte

// SetMaxBlockSizeSig configures the max-block-size value
// IncrementExtraNonce's coinbase signalling reports, letting a host
// that raises its generated-block-size budget advertise it.
func SetMaxBlockSizeSig(maxBlockSize uint64) { maxBlockSizeSigThreshold = maxBlockSize }

// lastExtraNonceBlock tracks the prev-block hash IncrementExtraNonce
// last saw — the process-wide state original_source keeps as a static
// local inside IncrementExtraNonce.
var lastExtraNonceBlock hash.Hash

// IncrementExtraNonce lets the PoW driver iterate coinbase entropy
// between hashing attempts without rebuilding the whole template
// (spec.md §6). It resets extraNonce to zero whenever the tip has
// moved since the last call, writes (height, extraNonce) followed by
// CoinbaseFlags into the coinbase scriptSig (capped at 100 bytes), and
// recomputes the merkle root — grounded on
// original_source/src/miner.cpp's IncrementExtraNonce.
func IncrementExtraNonce(b *block.Block, tip *blockindex.BlockIndex, extraNonce *uint32) {
	if b.Header.HashPrevBlock != lastExtraNonceBlock {
		*extraNonce = 0
		lastExtraNonceBlock = b.Header.HashPrevBlock
	}
	*extraNonce++

	height := int32(0)
	if tip != nil {
		height = tip.Height + 1
	}

	b.Txs[0].Ins[0].ScriptSig = CoinbaseScriptSig(height, *extraNonce, maxBlockSizeSigThreshold)

	b.Header.HashMerkleRoot = b.MerkleRoot()
}

func appendScriptNum(b []byte, n int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(n))
	i := 8
	for i > 1 && (buf[i-1] == 0 || buf[i-1] == 0xff) {
		i--
	}
	return append(b, buf[:i]...)
}
