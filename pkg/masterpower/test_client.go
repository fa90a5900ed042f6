package masterpower

import (
	"fmt"
	"sync"
)

// TestInverter is an in-memory Inverter used by package and actor tests. It
// replays canned responses and can be told to fail specific commands.
type TestInverter struct {
	mu       sync.Mutex
	executed []string
	failures map[string]error
	failOpen error
}

func CreateTestInverter() *TestInverter {
	return &TestInverter{failures: map[string]error{}}
}

func (inv *TestInverter) Open() error {
	return inv.failOpen
}

func (inv *TestInverter) Close() error {
	return nil
}

// FailOn makes every Execute of the given wire command (e.g. "QPIGS",
// "QPGS2") return err. Pass nil to clear.
func (inv *TestInverter) FailOn(wire string, err error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if err == nil {
		delete(inv.failures, wire)
	} else {
		inv.failures[wire] = err
	}
}

func (inv *TestInverter) FailOpen(err error) {
	inv.failOpen = err
}

// Executed returns the wire commands seen so far, in order.
func (inv *TestInverter) Executed() []string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]string, len(inv.executed))
	copy(out, inv.executed)
	return out
}

func (inv *TestInverter) Execute(cmd Command) (Record, error) {
	inv.mu.Lock()
	inv.executed = append(inv.executed, cmd.Wire())
	err := inv.failures[cmd.Wire()]
	inv.mu.Unlock()
	if err != nil {
		return nil, err
	}

	switch cmd.Kind {
	case KindDeviceID:
		return DeviceID{SerialNumber: "92931701100510"}, nil
	case KindProtocolID:
		return ProtocolID{ProtocolID: "30"}, nil
	case KindFirmwareVersion:
		return FirmwareVersion{Version: "00052.30"}, nil
	case KindDeviceMode:
		return DeviceMode{Code: "L", Name: "line"}, nil
	case KindWarningStatus:
		return WarningStatus{Raw: "00000000000000000000000000000000", Warnings: []string{}}, nil
	case KindRating:
		return Rating{
			GridVoltage:        230.0,
			GridCurrent:        21.7,
			ACOutVoltage:       230.0,
			ACOutFrequency:     50.0,
			ACOutCurrent:       21.7,
			ACOutApparentPower: 5000,
			ACOutActivePower:   4000,
			BatteryVoltage:     48.0,
		}, nil
	case KindRatingReduced:
		return RatingReduced{
			GridVoltage:        230.0,
			GridCurrent:        21.7,
			ACOutVoltage:       230.0,
			ACOutFrequency:     50.0,
			ACOutCurrent:       21.7,
			ACOutApparentPower: 3000,
			ACOutActivePower:   2400,
			BatteryVoltage:     24.0,
		}, nil
	case KindGeneralStatus:
		return GeneralStatus{
			GridVoltage:    231.8,
			GridFrequency:  49.9,
			ACOutVoltage:   230.1,
			ACOutFrequency: 49.9,
			BatteryVoltage: 57.5,
			PVInputVoltage: 103.8,
			DeviceStatus:   "00110110",
		}, nil
	case KindParallelStatus:
		return ParallelStatus{
			SerialNumber:  fmt.Sprintf("9293170110051%d", cmd.Index),
			OperationMode: "L",
			GridVoltage:   237.0,
			GridFrequency: 50.0,
		}, nil
	default:
		return nil, fmt.Errorf("masterpower: unknown command kind %d", cmd.Kind)
	}
}

// ensure interface compliance
var _ Inverter = (*TestInverter)(nil)
