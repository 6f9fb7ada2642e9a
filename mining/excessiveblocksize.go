package mining

import (
	"strconv"

	"github.com/copernet/blockassembler/consensus"
)

// getSubVersionEB converts a max-block-size byte count to the
// one-decimal-digit megabyte string BIP-like excessive-block-size
// signalling embeds in the coinbase, e.g. 2010000 -> "2.0",
// 1660000 -> "1.6". Ported verbatim from
// copernet-copernicus/mining/blocktemplate.go's getSubVersionEB;
// behavior for an EB under 1MB is not standardized but the same
// truncate-to-one-digit algorithm still applies.
func getSubVersionEB(maxBlockSize uint64) string {
	v := int(maxBlockSize / (consensus.OneMegabyte / 10))
	toStr := strconv.Itoa(v)
	ret := v / 10
	if ret <= 0 {
		return "0." + toStr
	}
	length := len(toStr)
	return toStr[:length-1] + "." + toStr[length-1:]
}

// getExcessiveBlockSizeSig builds the "/EB<n.n>/" coinbase signalling
// tag callers append to CoinbaseScriptSig once maxBlockSize exceeds
// the 1MB legacy default, so nodes on the network can observe what
// excessive-block-size policy produced a template.
func getExcessiveBlockSizeSig(maxBlockSize uint64) []byte {
	return []byte("/EB" + getSubVersionEB(maxBlockSize) + "/")
}

// CoinbaseScriptSig builds the full coinbase scriptSig
// IncrementExtraNonce writes: (height, extraNonce) followed by
// CoinbaseFlags, followed by the excessive-block-size signalling tag
// when maxBlockSize is configured above the 1MB legacy default,
// capped at the 100-byte coinbase scriptSig limit
// original_source/src/miner.cpp:608-625 asserts.
func CoinbaseScriptSig(height int32, extraNonce uint32, maxBlockSize uint64) []byte {
	scriptSig := make([]byte, 0, 100)
	scriptSig = appendScriptNum(scriptSig, int64(height))
	scriptSig = appendScriptNum(scriptSig, int64(extraNonce))
	scriptSig = append(scriptSig, consensus.CoinbaseFlags...)
	if maxBlockSize > consensus.OneMegabyte {
		scriptSig = append(scriptSig, getExcessiveBlockSizeSig(maxBlockSize)...)
	}
	if len(scriptSig) > 100 {
		scriptSig = scriptSig[:100]
	}
	return scriptSig
}
