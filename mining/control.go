package mining

import "sync/atomic"

// fStaking is the process-wide staking toggle spec.md §5 and §9 ask to
// be represented behind a coarse atomic rather than a bare bool the
// driver thread reads unsynchronized.
var fStaking int32

// SetStaking enables or disables the staking driver loop.
func SetStaking(on bool) {
	var v int32
	if on {
		v = 1
	}
	atomic.StoreInt32(&fStaking, v)
}

// GetStaking reports the current staking toggle.
func GetStaking() bool {
	return atomic.LoadInt32(&fStaking) != 0
}
