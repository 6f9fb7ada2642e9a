package mining

import (
	"github.com/copernet/blockassembler/model/block"
	"github.com/copernet/blockassembler/util/hash"
)

// witnessCommitmentHeader is the standard BIP141 marker
// (OP_RETURN, 0x24-byte push, 0xaa21a9ed) a witness-commitment output
// script is prefixed with, letting a validator locate it among a
// coinbase's other outputs.
var witnessCommitmentHeader = []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}

// generateCoinbaseCommitment implements spec.md §4.7 step 3's "Witness
// commitment: compute via GenerateCoinbaseCommitment and store; iff
// fIncludeWitness and block contains a witness-bearing tx" — grounded
// on original_source/src/miner.cpp:195's call site (the function body
// itself lives outside the retrieval pack; BIP141's own commitment
// algorithm is the spec's own GLOSSARY definition of the term). It
// builds a merkle root over every transaction's witness hash — the
// coinbase's own witness hash treated as the zero hash, since the
// coinbase's real witness (the commitment nonce) does not exist until
// after this computation completes — combines it with a zero
// commitment nonce, and returns the resulting OP_RETURN output script,
// which CreateNewBlock appends to the coinbase. Returns nil when
// includeWitness is false or no transaction in the block actually
// carries witness data.
func (ba *BlockAssembler) generateCoinbaseCommitment() []byte {
	b := ba.template.Block
	if !ba.includeWitness || len(b.Txs) == 0 {
		return nil
	}

	hasWitness := false
	for _, t := range b.Txs[1:] {
		if t.HasWitness() {
			hasWitness = true
			break
		}
	}
	if !hasWitness {
		return nil
	}

	leaves := make([]hash.Hash, len(b.Txs))
	leaves[0] = hash.Zero
	for i := 1; i < len(b.Txs); i++ {
		leaves[i] = b.Txs[i].WitnessHash()
	}
	witnessRoot := block.MerkleRootOf(leaves)

	var nonce [32]byte
	preimage := make([]byte, 0, 64)
	preimage = append(preimage, witnessRoot[:]...)
	preimage = append(preimage, nonce[:]...)
	commitment := hash.DoubleSHA256(preimage)

	script := make([]byte, 0, len(witnessCommitmentHeader)+len(commitment))
	script = append(script, witnessCommitmentHeader...)
	script = append(script, commitment[:]...)

	return script
}
