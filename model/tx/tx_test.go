package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copernet/blockassembler/model/outpoint"
	"github.com/copernet/blockassembler/model/txin"
)

func TestIsFinalZeroLockTimeAlwaysFinal(t *testing.T) {
	txn := New(DefaultVersion, 0)
	txn.AddIn(txin.New(outpoint.OutPoint{}, nil, 0))
	assert.True(t, txn.IsFinal(1, 1))
}

func TestIsFinalPassedLockTimeIgnoresSequence(t *testing.T) {
	txn := New(DefaultVersion, 100)
	txn.AddIn(txin.New(outpoint.OutPoint{}, nil, 0))

	assert.True(t, txn.IsFinal(200, 0), "locktime already passed relative to height must be final regardless of sequence")
}

func TestIsFinalNotYetPassedRequiresFinalSequence(t *testing.T) {
	txn := New(DefaultVersion, 300)
	txn.AddIn(txin.New(outpoint.OutPoint{}, nil, 0))

	assert.False(t, txn.IsFinal(200, 0), "locktime not yet passed and a non-final sequence must reject")

	txn2 := New(DefaultVersion, 300)
	txn2.AddIn(txin.New(outpoint.OutPoint{}, nil, 0xffffffff))
	assert.True(t, txn2.IsFinal(200, 0), "a final sequence opts out of an unreached height locktime")
}

func TestIsFinalTimeBasedLockTime(t *testing.T) {
	const locktimeThreshold = 500000001
	txn := New(DefaultVersion, locktimeThreshold)
	txn.AddIn(txin.New(outpoint.OutPoint{}, nil, 0))

	assert.False(t, txn.IsFinal(1, locktimeThreshold), "a time-based locktime equal to blockTime has not yet passed")
	assert.True(t, txn.IsFinal(1, locktimeThreshold+1), "a time-based locktime strictly below blockTime has passed")
}
