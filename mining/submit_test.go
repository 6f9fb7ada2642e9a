package mining

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copernet/blockassembler/model/block"
	"github.com/copernet/blockassembler/model/blockindex"
	"github.com/copernet/blockassembler/util/hash"
)

type fakeSubmitter struct {
	accepted []*block.Block
	err      error
}

func (f *fakeSubmitter) ProcessNewBlock(b *block.Block) error {
	if f.err != nil {
		return f.err
	}
	f.accepted = append(f.accepted, b)
	return nil
}

func TestCheckWorkRejectsBelowTarget(t *testing.T) {
	b := newTestBlock()
	b.Header.Bits = 0x03000001 // an unreachably small compact target
	b.Header.HashMerkleRoot = hash.Hash{0xff}

	sub := &fakeSubmitter{}
	result, err := CheckWork(b, &fakeChain{}, sub)
	assert.Equal(t, SubmitRejected, result)
	assert.Error(t, err)
	assert.Empty(t, sub.accepted)
}

func TestCheckWorkDetectsStaleTemplate(t *testing.T) {
	b := newTestBlock()
	b.Header.Bits = 0x207fffff
	tip := blockindex.New(hash.Hash{1}, 10, 0, 0, nil)
	b.Header.HashPrevBlock = hash.Hash{2} // does not match tip's hash

	sub := &fakeSubmitter{}
	result, err := CheckWork(b, &fakeChain{tip: tip}, sub)
	assert.NoError(t, err)
	assert.Equal(t, SubmitStale, result)
	assert.Empty(t, sub.accepted)
}

func TestCheckWorkSubmitsOnSuccess(t *testing.T) {
	b := newTestBlock()
	b.Header.Bits = 0x207fffff
	tip := blockindex.New(hash.Hash{1}, 10, 0, 0, nil)
	b.Header.HashPrevBlock = tip.Hash()

	sub := &fakeSubmitter{}
	result, err := CheckWork(b, &fakeChain{tip: tip}, sub)
	assert.NoError(t, err)
	assert.Equal(t, SubmitAccepted, result)
	assert.Len(t, sub.accepted, 1)
}

type fakeKernelVerifier struct{ err error }

func (f fakeKernelVerifier) CheckStakeKernel(b *block.Block) error { return f.err }

func TestCheckStakeRejectsBadKernel(t *testing.T) {
	b := newTestBlock()
	sub := &fakeSubmitter{}
	result, err := CheckStake(b, &fakeChain{}, fakeKernelVerifier{err: assert.AnError}, sub)
	assert.Equal(t, SubmitRejected, result)
	assert.Error(t, err)
	assert.Empty(t, sub.accepted)
}

func TestCheckStakeSubmitsOnSuccess(t *testing.T) {
	tip := blockindex.New(hash.Hash{1}, 10, 0, 0, nil)
	b := newTestBlock()
	b.Header.HashPrevBlock = tip.Hash()

	sub := &fakeSubmitter{}
	result, err := CheckStake(b, &fakeChain{tip: tip}, fakeKernelVerifier{}, sub)
	assert.NoError(t, err)
	assert.Equal(t, SubmitAccepted, result)
	assert.Len(t, sub.accepted, 1)
}
