package mining

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetStakingGetStakingRoundTrip(t *testing.T) {
	SetStaking(true)
	assert.True(t, GetStaking())

	SetStaking(false)
	assert.False(t, GetStaking())
}
