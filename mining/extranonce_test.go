package mining

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copernet/blockassembler/model/blockindex"
	"github.com/copernet/blockassembler/model/tx"
	"github.com/copernet/blockassembler/model/txin"
	"github.com/copernet/blockassembler/model/outpoint"
	"github.com/copernet/blockassembler/util/hash"
)

func TestIncrementExtraNonceResetsOnNewTip(t *testing.T) {
	b := newTestBlock()
	coinbase := tx.New(tx.DefaultVersion, 0)
	coinbase.AddIn(txin.New(outpoint.OutPoint{}, nil, 0xffffffff))
	b.Txs = []*tx.Tx{coinbase}
	b.Header.HashPrevBlock = hash.Hash{1}

	tip := blockindex.New(hash.Hash{1}, 10, 0, 0, nil)
	var extraNonce uint32

	IncrementExtraNonce(b, tip, &extraNonce)
	assert.Equal(t, uint32(1), extraNonce)

	IncrementExtraNonce(b, tip, &extraNonce)
	assert.Equal(t, uint32(2), extraNonce, "same prev hash keeps incrementing")

	b.Header.HashPrevBlock = hash.Hash{2}
	IncrementExtraNonce(b, tip, &extraNonce)
	assert.Equal(t, uint32(1), extraNonce, "a new prev hash resets the counter")
}

func TestIncrementExtraNonceRewritesScriptSigAndMerkleRoot(t *testing.T) {
	b := newTestBlock()
	coinbase := tx.New(tx.DefaultVersion, 0)
	coinbase.AddIn(txin.New(outpoint.OutPoint{}, nil, 0xffffffff))
	b.Txs = []*tx.Tx{coinbase}
	b.Header.HashPrevBlock = hash.Hash{9}

	tip := blockindex.New(hash.Hash{9}, 41, 0, 0, nil)
	var extraNonce uint32
	before := b.Header.HashMerkleRoot

	IncrementExtraNonce(b, tip, &extraNonce)

	assert.NotEmpty(t, b.Txs[0].Ins[0].ScriptSig)
	assert.LessOrEqual(t, len(b.Txs[0].Ins[0].ScriptSig), 100)
	assert.NotEqual(t, before, b.Header.HashMerkleRoot)
}
