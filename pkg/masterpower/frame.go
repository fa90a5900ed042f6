package masterpower

import (
	"errors"
	"fmt"
)

const (
	frameTerminator  = '\r'
	responseLeading  = '('
	maxResponseBytes = 512
)

var (
	ErrShortFrame  = errors.New("masterpower: frame too short")
	ErrBadLeading  = errors.New("masterpower: response does not start with '('")
	ErrBadChecksum = errors.New("masterpower: response checksum mismatch")
)

// crc16 implements CRC-16/XMODEM (poly 0x1021, init 0x0000) as used by the
// PI30 serial protocol.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// crcBytes splits the checksum into the two on-wire bytes. Bytes colliding
// with the reserved characters '(', CR and LF are bumped by one, matching the
// device firmware.
func crcBytes(crc uint16) (byte, byte) {
	hi := byte(crc >> 8)
	lo := byte(crc)
	if hi == 0x28 || hi == 0x0d || hi == 0x0a {
		hi++
	}
	if lo == 0x28 || lo == 0x0d || lo == 0x0a {
		lo++
	}
	return hi, lo
}

// EncodeRequest frames a command for the wire: payload + CRC16 + CR.
func EncodeRequest(cmd Command) []byte {
	payload := []byte(cmd.Wire())
	hi, lo := crcBytes(crc16(payload))
	return append(payload, hi, lo, frameTerminator)
}

// DecodeResponse strips the framing from a raw device response and returns
// the inner payload. The raw slice must contain '(' + payload + CRC, without
// the trailing CR.
func DecodeResponse(raw []byte) (string, error) {
	if len(raw) < 3 {
		return "", ErrShortFrame
	}
	if raw[0] != responseLeading {
		return "", fmt.Errorf("%w (got %q)", ErrBadLeading, raw[0])
	}
	body := raw[:len(raw)-2]
	hi, lo := crcBytes(crc16(body))
	if raw[len(raw)-2] != hi || raw[len(raw)-1] != lo {
		return "", ErrBadChecksum
	}
	return string(body[1:]), nil
}
