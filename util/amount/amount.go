// Package amount defines the satoshi-denominated integer type used for
// transaction fees, outputs, and block subsidies.
package amount

import "fmt"

// Coin is the number of satoshis in one whole unit of currency.
const Coin Amount = 100000000

// MaxMoney is the maximum number of satoshis that can ever exist,
// used to sanity-bound fee and value arithmetic.
const MaxMoney Amount = 21000000 * Coin

// Amount is a signed satoshi count. Negative amounts are meaningful:
// the block template's vTxFees[0] entry is negative by convention
// (see mining.BlockTemplate.TxFees).
type Amount int64

func (a Amount) String() string {
	return fmt.Sprintf("%d.%08d", int64(a)/int64(Coin), abs(int64(a))%int64(Coin))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (a Amount) Valid() bool {
	return a >= -MaxMoney && a <= MaxMoney
}
