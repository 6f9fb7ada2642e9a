// Package txout models a transaction output.
package txout

import "github.com/copernet/blockassembler/util/amount"

type TxOut struct {
	Value        amount.Amount
	ScriptPubKey []byte
}

func New(value amount.Amount, scriptPubKey []byte) *TxOut {
	return &TxOut{Value: value, ScriptPubKey: scriptPubKey}
}

// IsEmpty reports whether the output carries neither value nor a
// locking script — the shape a PoS coinbase's sole output takes
// until the staking driver inserts the real coinstake at index 1.
func (o *TxOut) IsEmpty() bool {
	return o.Value == 0 && len(o.ScriptPubKey) == 0
}

func (o *TxOut) SerializeSize() int {
	n := len(o.ScriptPubKey)
	return 8 + varIntSize(n) + n
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
