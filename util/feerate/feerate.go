// Package feerate implements the satoshis-per-kilobyte fee rate used
// to order mempool packages and to floor block-template inclusion.
package feerate

import (
	"fmt"
	"math"

	"github.com/copernet/blockassembler/util/amount"
)

// FeeRate is a fee expressed in satoshis per 1000 bytes.
type FeeRate struct {
	SatoshisPerK int64
}

func New(satoshisPerK int64) FeeRate {
	return FeeRate{SatoshisPerK: satoshisPerK}
}

// NewWithSize derives a rate from a fee paid over a given byte size.
// Zero-size packages carry a zero rate.
func NewWithSize(feePaid amount.Amount, bytes int64) FeeRate {
	if bytes <= 0 {
		return FeeRate{}
	}
	return FeeRate{SatoshisPerK: int64(feePaid) * 1000 / bytes}
}

// GetFee returns the fee, in satoshis, for a package of the given
// byte size at this rate. Matches the teacher's rounding: a nonzero
// size at a nonzero rate never rounds down to a zero fee.
func (r FeeRate) GetFee(bytes int64) amount.Amount {
	if bytes > math.MaxInt64/1000 {
		panic("feerate: bytes too large")
	}
	fee := r.SatoshisPerK * bytes / 1000
	if fee == 0 && bytes != 0 {
		switch {
		case r.SatoshisPerK > 0:
			fee = 1
		case r.SatoshisPerK < 0:
			fee = -1
		}
	}
	return amount.Amount(fee)
}

func (r FeeRate) Less(other FeeRate) bool {
	return r.SatoshisPerK < other.SatoshisPerK
}

func (r FeeRate) String() string {
	return fmt.Sprintf("%d.%08d BTC/kB", r.SatoshisPerK/int64(amount.Coin), r.SatoshisPerK%int64(amount.Coin))
}
