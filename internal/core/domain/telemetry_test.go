package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassStatsRoundTrip(t *testing.T) {
	// the heartbeat duration must survive serialization losslessly
	for _, millis := range []int64{0, 1, 999, 12345, 86400000} {
		payload, err := PassStats{UpdateDuration: millis}.Encode()
		require.NoError(t, err)

		decoded, err := DecodePassStats(payload)
		require.NoError(t, err)
		assert.Equal(t, millis, decoded.UpdateDuration)
	}
}

func TestPassStatsPayloadShape(t *testing.T) {
	payload, err := PassStats{UpdateDuration: 42}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"update_duration":42}`, payload)
}
