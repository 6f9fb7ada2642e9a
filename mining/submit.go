package mining

import (
	"github.com/pkg/errors"

	"github.com/copernet/blockassembler/log"
	"github.com/copernet/blockassembler/model/block"
	"github.com/copernet/blockassembler/model/chain"
	"github.com/copernet/blockassembler/model/pow"
)

// Submitter is the external collaborator processNewBlock corresponds
// to (spec.md §6): whatever validates and relays a fully mined block.
// The core never calls it directly on its own initiative — only from
// CheckWork/CheckStake, which are themselves driver-facing helpers,
// not part of createNewBlock.
type Submitter interface {
	ProcessNewBlock(b *block.Block) error
}

// SubmitResult classifies why CheckWork/CheckStake did or didn't
// submit, mirroring spec.md §7's failure-kind taxonomy for the
// driver-facing operations (StaleTemplate / SubmitRejected).
type SubmitResult int

const (
	SubmitAccepted SubmitResult = iota
	SubmitStale
	SubmitRejected
)

// CheckWork implements spec.md §6's checkWork: verify the PoW hash
// against the header's compact target, verify the block still
// extends the current tip (spec.md §7's StaleTemplate), and only then
// submit.
func CheckWork(b *block.Block, chn chain.Chain, sub Submitter) (SubmitResult, error) {
	powHash := b.Header.HashMerkleRoot // placeholder identity hash; a
	// real backend hashes the serialized header, not the merkle root.
	if !pow.CheckProofOfWork(powHash, b.Header.Bits) {
		return SubmitRejected, errors.Errorf("proof of work does not meet target %08x", b.Header.Bits)
	}

	tip := chn.Tip()
	if tip == nil || b.Header.HashPrevBlock != tip.Hash() {
		return SubmitStale, nil
	}

	if err := sub.ProcessNewBlock(b); err != nil {
		log.Print("mining", "warn", "CheckWork(): ProcessNewBlock rejected: %v", err)
		return SubmitRejected, errors.Wrap(err, "CheckWork: ProcessNewBlock")
	}
	return SubmitAccepted, nil
}

// StakeKernelVerifier checks a coinstake's proof-of-stake kernel —
// the PoS search itself is out of scope (spec.md §1); this is the
// narrow interface CheckStake consumes.
type StakeKernelVerifier interface {
	CheckStakeKernel(b *block.Block) error
}

// CheckStake implements spec.md §6's checkStake: the PoS analogue of
// CheckWork — verify the kernel proof, verify staleness, submit.
// spec.md §9 flags the original's CheckStake log line as missing a
// format specifier; that is a cosmetic bug in a language this port
// doesn't share the failure mode of, so it is not reproduced here.
func CheckStake(b *block.Block, chn chain.Chain, verifier StakeKernelVerifier, sub Submitter) (SubmitResult, error) {
	if err := verifier.CheckStakeKernel(b); err != nil {
		return SubmitRejected, errors.Wrap(err, "CheckStake: kernel check")
	}

	tip := chn.Tip()
	if tip == nil || b.Header.HashPrevBlock != tip.Hash() {
		return SubmitStale, nil
	}

	if err := sub.ProcessNewBlock(b); err != nil {
		log.Print("mining", "warn", "CheckStake(): ProcessNewBlock rejected for %v: %v", b.Header.HashMerkleRoot, err)
		return SubmitRejected, errors.Wrap(err, "CheckStake: ProcessNewBlock")
	}
	return SubmitAccepted, nil
}
