// Package tx models the immutable transaction record described in
// spec.md §3. Size, weight, sigop cost and fee are NOT carried on Tx
// itself: spec.md is explicit that those are "derived attributes
// (precomputed by the mempool)", so they live on model/mempool.TxEntry
// instead, exactly as the teacher's TxEntry does.
package tx

import (
	"github.com/copernet/blockassembler/model/outpoint"
	"github.com/copernet/blockassembler/model/txin"
	"github.com/copernet/blockassembler/model/txout"
	"github.com/copernet/blockassembler/util/hash"
)

const DefaultVersion = 2

// Witness is a transaction's optional witness section: one stack of
// push-data items per input. A nil Witness (or one whose entries are
// all empty) means the transaction carries no witness data.
type Witness [][][]byte

func (w Witness) IsEmpty() bool {
	for _, item := range w {
		if len(item) > 0 {
			return false
		}
	}
	return true
}

type Tx struct {
	Version  int32
	Ins      []*txin.TxIn
	Outs     []*txout.TxOut
	Witness  Witness
	LockTime uint32
	// Time is the wall-clock timestamp the transaction was created
	// with; used by the priority phase and PoS finality checks
	// (spec.md §4.4, §4.8).
	Time int64

	cachedHash *hash.Hash
}

func New(version int32, lockTime uint32) *Tx {
	return &Tx{Version: version, LockTime: lockTime}
}

func NewCoinbase(scriptSig []byte, sequence uint32) *Tx {
	t := New(DefaultVersion, 0)
	t.Ins = []*txin.TxIn{txin.New(outpoint.Null(), scriptSig, sequence)}
	return t
}

func (t *Tx) AddIn(in *txin.TxIn)   { t.Ins = append(t.Ins, in); t.cachedHash = nil }
func (t *Tx) AddOut(o *txout.TxOut) { t.Outs = append(t.Outs, o); t.cachedHash = nil }

func (t *Tx) IsCoinBase() bool {
	return len(t.Ins) == 1 && t.Ins[0].PreviousOutPoint.IsNull()
}

func (t *Tx) HasWitness() bool {
	return !t.Witness.IsEmpty()
}

// SerializeSize returns the total (base + witness) serialized byte
// size of the transaction.
func (t *Tx) SerializeSize() int {
	n := 8 // version + locktime
	n += varIntSize(len(t.Ins))
	for _, in := range t.Ins {
		n += in.SerializeSize()
	}
	n += varIntSize(len(t.Outs))
	for _, out := range t.Outs {
		n += out.SerializeSize()
	}
	if t.HasWitness() {
		n += 2 // segwit marker + flag
		for _, stack := range t.Witness {
			n += varIntSize(len(stack))
			for _, item := range stack {
				n += varIntSize(len(item)) + len(item)
			}
		}
	}
	return n
}

// baseSize is the serialized size excluding the witness section, used
// by GetWeight per consensus.WitnessScaleFactor.
func (t *Tx) baseSize() int {
	if !t.HasWitness() {
		return t.SerializeSize()
	}
	full := t.SerializeSize()
	witnessBytes := 2
	for _, stack := range t.Witness {
		witnessBytes += varIntSize(len(stack))
		for _, item := range stack {
			witnessBytes += varIntSize(len(item)) + len(item)
		}
	}
	return full - witnessBytes
}

// GetWeight implements weight = 3*base + total, i.e.
// WitnessScaleFactor*base + witnessBytes.
func (t *Tx) GetWeight(witnessScaleFactor int) int {
	base := t.baseSize()
	total := t.SerializeSize()
	return base*(witnessScaleFactor-1) + total
}

// GetHash returns the double-SHA256 identifier over the non-witness
// serialization. Cached because the ancestor-feerate index compares
// on it repeatedly.
func (t *Tx) GetHash() hash.Hash {
	if t.cachedHash != nil {
		return *t.cachedHash
	}
	h := hash.DoubleSHA256(t.legacyBytes())
	t.cachedHash = &h
	return h
}

// WitnessHash returns the double-SHA256 identifier over the
// witness-included encoding — the wtxid the witness-commitment merkle
// tree is built from (spec.md GLOSSARY "Witness commitment"). A
// transaction with no witness section has WitnessHash equal to
// GetHash(), matching BIP141.
func (t *Tx) WitnessHash() hash.Hash {
	if !t.HasWitness() {
		return t.GetHash()
	}
	return hash.DoubleSHA256(t.witnessBytes())
}

// witnessBytes extends legacyBytes with the witness stacks, giving a
// deterministic encoding that changes whenever the witness data does
// — sufficient to key WitnessHash, not a wire-format serializer.
func (t *Tx) witnessBytes() []byte {
	buf := t.legacyBytes()
	for _, stack := range t.Witness {
		for _, item := range stack {
			buf = append(buf, item...)
		}
	}
	return buf
}

// legacyBytes is a deterministic, non-witness encoding sufficient to
// key a hash; it is not a wire-format serializer (script/witness
// codecs are out of scope per spec.md §1).
func (t *Tx) legacyBytes() []byte {
	buf := make([]byte, 0, 64)
	buf = appendUint32(buf, uint32(t.Version))
	for _, in := range t.Ins {
		buf = append(buf, in.PreviousOutPoint.Hash[:]...)
		buf = appendUint32(buf, in.PreviousOutPoint.Index)
		buf = append(buf, in.ScriptSig...)
		buf = appendUint32(buf, in.Sequence)
	}
	for _, out := range t.Outs {
		buf = appendUint64(buf, uint64(out.Value))
		buf = append(buf, out.ScriptPubKey...)
	}
	buf = appendUint32(buf, t.LockTime)
	buf = appendUint64(buf, uint64(t.Time))
	return buf
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendUint64(b []byte, v uint64) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

func varIntSize(n int) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// IsFinal implements the locktime finality check spec.md §4.2/§4.3
// require (IsFinalTx): a transaction is final once its LockTime has
// already passed relative to height/time, regardless of any input's
// sequence number; only when the locktime has NOT yet passed does
// every input's sequence number get a chance to opt out of it
// (sequenceFinal), grounded on
// copernet-copernicus/model/tx/tx.go:576-599.
func (t *Tx) IsFinal(height int32, blockTime int64) bool {
	if t.LockTime == 0 {
		return true
	}
	const locktimeThreshold = 500000000
	var lockTimeLimit int64
	if int64(t.LockTime) < locktimeThreshold {
		lockTimeLimit = int64(height)
	} else {
		lockTimeLimit = blockTime
	}
	if int64(t.LockTime) < lockTimeLimit {
		return true
	}
	const sequenceFinal = 0xffffffff
	for _, in := range t.Ins {
		if in.Sequence != sequenceFinal {
			return false
		}
	}
	return true
}
