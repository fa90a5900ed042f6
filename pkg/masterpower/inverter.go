package masterpower

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/serial"
	"go.uber.org/zap"
)

// Inverter is the command/response capability of one device. Execute issues a
// single inquiry and blocks until its response is decoded or fails. Callers
// must not run concurrent Execute calls: the device tolerates exactly one
// outstanding request.
type Inverter interface {
	Open() error
	Close() error
	Execute(cmd Command) (Record, error)
}

type serialInverter struct {
	address  string
	baudRate int
	timeout  time.Duration
	port     serial.Port
	logger   *zap.Logger
}

// CreateSerialInverter builds an Inverter over a serial-style device node
// (RS232 port or USB adapter). The port is opened by Open, not here.
func CreateSerialInverter(address string, baudRate int, timeout time.Duration, logger *zap.Logger) Inverter {
	if baudRate <= 0 {
		baudRate = 2400
	}
	return &serialInverter{
		address:  address,
		baudRate: baudRate,
		timeout:  timeout,
		logger:   logger.With(zap.String("device", address)),
	}
}

func (inv *serialInverter) Open() error {
	port, err := serial.Open(&serial.Config{
		Address:  inv.address,
		BaudRate: inv.baudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  inv.timeout,
	})
	if err != nil {
		return fmt.Errorf("masterpower: open %s: %w", inv.address, err)
	}
	inv.port = port
	return nil
}

func (inv *serialInverter) Close() error {
	if inv.port == nil {
		return nil
	}
	err := inv.port.Close()
	inv.port = nil
	return err
}

func (inv *serialInverter) Execute(cmd Command) (Record, error) {
	if inv.port == nil {
		return nil, errors.New("masterpower: port not open")
	}
	req := EncodeRequest(cmd)
	inv.logger.Debug("execute", zap.String("command", cmd.Wire()))

	if _, err := inv.port.Write(req); err != nil {
		return nil, fmt.Errorf("masterpower: write %s: %w", cmd.Wire(), err)
	}
	raw, err := inv.readFrame()
	if err != nil {
		return nil, fmt.Errorf("masterpower: read %s: %w", cmd.Wire(), err)
	}
	payload, err := DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	return ParseResponse(cmd, payload)
}

// readFrame consumes bytes up to the CR terminator. The serial port timeout
// bounds each Read call.
func (inv *serialInverter) readFrame() ([]byte, error) {
	var frame []byte
	buf := make([]byte, 64)
	for {
		n, err := inv.port.Read(buf)
		if n > 0 {
			for i := 0; i < n; i++ {
				if buf[i] == frameTerminator {
					return append(frame, buf[:i]...), nil
				}
			}
			frame = append(frame, buf[:n]...)
			if len(frame) > maxResponseBytes {
				return nil, errors.New("response exceeds max frame size")
			}
		}
		if err != nil {
			return nil, err
		}
	}
}
