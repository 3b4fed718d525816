package signal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalID_NonLivePrefixAndLength(t *testing.T) {
	id := SignalID("0123456789abcdef", false)
	assert.True(t, strings.HasPrefix(id, "OMEN-"))
	assert.Equal(t, "OMEN-"+strings.ToUpper("0123456789ab"), id)
}

func TestSignalID_LivePrefixAndLength(t *testing.T) {
	id := SignalID("0123456789abcdef", true)
	assert.True(t, strings.HasPrefix(id, "OMEN-LIVE"))
	assert.Equal(t, "OMEN-LIVE"+strings.ToUpper("01234567"), id)
}

func TestSignalID_ShorterThanPrefixLength(t *testing.T) {
	id := SignalID("ab", false)
	assert.Equal(t, "OMEN-AB", id)

	liveID := SignalID("ab", true)
	assert.Equal(t, "OMEN-LIVEAB", liveID)
}

func TestOmenSignal_IsLive(t *testing.T) {
	live := OmenSignal{SignalID: SignalID("deadbeefcafebabe", true)}
	nonLive := OmenSignal{SignalID: SignalID("deadbeefcafebabe", false)}

	assert.True(t, live.IsLive())
	assert.False(t, nonLive.IsLive())
}
