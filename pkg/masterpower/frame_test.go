package masterpower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC16XModemCheckValue(t *testing.T) {
	// standard CRC-16/XMODEM check input
	assert.Equal(t, uint16(0x31C3), crc16([]byte("123456789")))
}

func TestEncodeRequestFraming(t *testing.T) {
	req := EncodeRequest(NewCommand(KindGeneralStatus))

	require.Equal(t, len("QPIGS")+3, len(req))
	assert.Equal(t, "QPIGS", string(req[:5]))
	assert.EqualValues(t, '\r', req[len(req)-1])
}

func TestEncodeRequestParallelIndex(t *testing.T) {
	cmd, err := NewParallelStatusCommand(3)
	require.NoError(t, err)

	req := EncodeRequest(cmd)
	assert.Equal(t, "QPGS3", string(req[:5]))

	_, err = NewParallelStatusCommand(10)
	assert.Error(t, err)
	_, err = NewParallelStatusCommand(-1)
	assert.Error(t, err)
}

func testFrame(payload string) []byte {
	body := []byte("(" + payload)
	hi, lo := crcBytes(crc16(body))
	return append(body, hi, lo)
}

func TestDecodeResponseRoundTrip(t *testing.T) {
	payload, err := DecodeResponse(testFrame("PI30"))

	require.NoError(t, err)
	assert.Equal(t, "PI30", payload)
}

func TestDecodeResponseBadChecksum(t *testing.T) {
	raw := testFrame("PI30")
	raw[1] ^= 0x01

	_, err := DecodeResponse(raw)
	assert.ErrorIs(t, err, ErrBadChecksum)
}

func TestDecodeResponseBadLeading(t *testing.T) {
	raw := testFrame("PI30")
	raw[0] = 'X'

	_, err := DecodeResponse(raw)
	assert.ErrorIs(t, err, ErrBadLeading)
}

func TestDecodeResponseShortFrame(t *testing.T) {
	_, err := DecodeResponse([]byte{'('})
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestCommandWireAndSuffix(t *testing.T) {
	assert.Equal(t, "QID", NewCommand(KindDeviceID).Wire())
	assert.Equal(t, "qid", NewCommand(KindDeviceID).Suffix())

	// the reduced rating inquiry shares wire command and channel with the
	// full one
	assert.Equal(t, "QPIRI", NewCommand(KindRatingReduced).Wire())
	assert.Equal(t, "qpiri", NewCommand(KindRatingReduced).Suffix())

	cmd, err := NewParallelStatusCommand(0)
	require.NoError(t, err)
	assert.Equal(t, "qpgs0", cmd.Suffix())
}
