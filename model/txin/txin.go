// Package txin models a transaction input.
package txin

import "github.com/copernet/blockassembler/model/outpoint"

type TxIn struct {
	PreviousOutPoint outpoint.OutPoint
	ScriptSig        []byte
	Sequence         uint32
}

func New(prevout outpoint.OutPoint, scriptSig []byte, sequence uint32) *TxIn {
	return &TxIn{PreviousOutPoint: prevout, ScriptSig: scriptSig, Sequence: sequence}
}

func (in *TxIn) SerializeSize() int {
	return outpointSize + varIntSize(len(in.ScriptSig)) + len(in.ScriptSig) + 4
}

const outpointSize = 32 + 4

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
