package mining

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copernet/blockassembler/consensus"
)

func TestGetSubVersionEB(t *testing.T) {
	cases := map[uint64]string{
		1660000: "1.6",
		2010000: "2.0",
		1000000: "1.0",
		230000:  "0.2",
		50000:   "0.0",
	}
	for size, want := range cases {
		assert.Equal(t, want, getSubVersionEB(size))
	}
}

func TestCoinbaseScriptSigOmitsEBTagAtDefaultSize(t *testing.T) {
	sig := CoinbaseScriptSig(100, 1, consensus.OneMegabyte)
	assert.NotContains(t, string(sig), "/EB")
}

func TestCoinbaseScriptSigAppendsEBTagAboveOneMegabyte(t *testing.T) {
	sig := CoinbaseScriptSig(100, 1, 2*consensus.OneMegabyte)
	assert.Contains(t, string(sig), "/EB2.0/")
	assert.LessOrEqual(t, len(sig), 100)
}
