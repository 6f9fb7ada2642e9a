// Package consensus carries the fixed protocol constants the
// assembler is bound by. None of these are configurable; they mirror
// the constants referenced throughout original_source/src/miner.cpp
// and copernet-copernicus/consensus.
package consensus

const (
	// WitnessScaleFactor converts non-witness bytes to weight units.
	WitnessScaleFactor = 4

	// OneMegabyte is the base unit legacy block-size limits are
	// expressed in multiples of.
	OneMegabyte = 1000 * 1000

	// MaxBlockWeight is the hard consensus ceiling on block weight.
	MaxBlockWeight = 4 * OneMegabyte

	// MaxBlockSerializedSize is the hard consensus ceiling on
	// serialized block bytes.
	MaxBlockSerializedSize = 4 * OneMegabyte

	// DefaultBlockMaxWeight is the assembler's default weight budget,
	// left below the hard cap so headroom always exists.
	DefaultBlockMaxWeight = MaxBlockWeight - 4000

	// DefaultBlockMaxSize is the assembler's default size budget.
	DefaultBlockMaxSize = 2 * OneMegabyte

	// MaxBlockSigOpsCost is the hard consensus ceiling on weighted
	// sigop count per block.
	MaxBlockSigOpsCost = 80000

	// BlockLimiterTime is the minimum number of seconds a new block's
	// timestamp must exceed the median-time-past of its ancestors by.
	BlockLimiterTime = 1

	// PastDriftSeconds bounds how far into the past a PoS block's
	// timestamp may legally drift relative to the tip.
	PastDriftSeconds = 15

	// MinTxSize is the smallest serialized size a transaction (in
	// particular a coinbase) is allowed to have; CreateNewBlock pads
	// the coinbase scriptSig to reach it.
	MinTxSize = 100
)

// LockTimeFlag mirrors STANDARD_LOCKTIME_VERIFY_FLAGS: whether
// finality is judged against median-time-past rather than the block's
// own timestamp.
type LockTimeFlag uint32

const (
	LocktimeVerifySequence LockTimeFlag = 1 << iota
	LocktimeMedianTimePast
)

// StandardLocktimeVerifyFlags is the flag set the assembler evaluates
// transaction finality under (spec.md §4.2, §4.8).
const StandardLocktimeVerifyFlags = LocktimeVerifySequence | LocktimeMedianTimePast

// CoinbaseFlags are appended to every coinbase scriptSig via
// IncrementExtraNonce, identifying the software that produced the
// template.
var CoinbaseFlags = []byte("/blockassembler/")
