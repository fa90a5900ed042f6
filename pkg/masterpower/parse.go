package masterpower

import (
	"fmt"
	"strconv"
	"strings"
)

var deviceModeNames = map[string]string{
	"P": "power_on",
	"S": "standby",
	"L": "line",
	"B": "battery",
	"F": "fault",
	"H": "power_saving",
	"D": "shutdown",
}

// warningNames maps QPIWS bit positions to warning identifiers. Bit 0 is
// reserved by the protocol.
var warningNames = []string{
	"reserved",
	"inverter_fault",
	"bus_over",
	"bus_under",
	"bus_soft_fail",
	"line_fail",
	"opv_short",
	"inverter_voltage_too_low",
	"inverter_voltage_too_high",
	"over_temperature",
	"fan_locked",
	"battery_voltage_high",
	"battery_low_alarm",
	"reserved",
	"battery_under_shutdown",
	"reserved",
	"over_load",
	"eeprom_fault",
	"inverter_over_current",
	"inverter_soft_fail",
	"self_test_fail",
	"op_dc_voltage_over",
	"bat_open",
	"current_sensor_fail",
	"battery_short",
	"power_limit",
	"pv_voltage_high",
	"mppt_overload_fault",
	"mppt_overload_warning",
	"battery_too_low_to_charge",
}

// ParseResponse decodes an unframed response payload against the schema of
// the command that produced it.
func ParseResponse(cmd Command, payload string) (Record, error) {
	switch cmd.Kind {
	case KindDeviceID:
		return DeviceID{SerialNumber: payload}, nil
	case KindProtocolID:
		return ProtocolID{ProtocolID: strings.TrimPrefix(payload, "PI")}, nil
	case KindFirmwareVersion:
		return FirmwareVersion{Version: strings.TrimPrefix(payload, "VERFW:")}, nil
	case KindDeviceMode:
		return parseDeviceMode(payload)
	case KindWarningStatus:
		return parseWarningStatus(payload)
	case KindRating:
		return parseRating(payload)
	case KindRatingReduced:
		return parseRatingReduced(payload)
	case KindGeneralStatus:
		return parseGeneralStatus(payload)
	case KindParallelStatus:
		return parseParallelStatus(payload)
	default:
		return nil, fmt.Errorf("masterpower: unknown command kind %d", cmd.Kind)
	}
}

func parseDeviceMode(payload string) (Record, error) {
	code := strings.TrimSpace(payload)
	if len(code) != 1 {
		return nil, fmt.Errorf("masterpower: malformed QMOD response %q", payload)
	}
	name, ok := deviceModeNames[code]
	if !ok {
		name = "unknown"
	}
	return DeviceMode{Code: code, Name: name}, nil
}

func parseWarningStatus(payload string) (Record, error) {
	bits := strings.TrimSpace(payload)
	warnings := []string{}
	for i, c := range bits {
		if c != '1' {
			if c != '0' {
				return nil, fmt.Errorf("masterpower: malformed QPIWS response %q", payload)
			}
			continue
		}
		if i < len(warningNames) && warningNames[i] != "reserved" {
			warnings = append(warnings, warningNames[i])
		} else {
			warnings = append(warnings, fmt.Sprintf("unknown_%d", i))
		}
	}
	return WarningStatus{Raw: bits, Warnings: warnings}, nil
}

func parseGeneralStatus(payload string) (Record, error) {
	f, err := newFieldScanner(payload, 17)
	if err != nil {
		return nil, err
	}
	rec := GeneralStatus{
		GridVoltage:             f.float(),
		GridFrequency:           f.float(),
		ACOutVoltage:            f.float(),
		ACOutFrequency:          f.float(),
		ACOutApparentPower:      f.int(),
		ACOutActivePower:        f.int(),
		OutLoadPercent:          f.int(),
		BusVoltage:              f.int(),
		BatteryVoltage:          f.float(),
		BatteryChargeCurrent:    f.int(),
		BatteryCapacity:         f.int(),
		HeatSinkTemperature:     f.int(),
		PVInputCurrent:          f.float(),
		PVInputVoltage:          f.float(),
		SCCBatteryVoltage:       f.float(),
		BatteryDischargeCurrent: f.int(),
		DeviceStatus:            f.string(),
	}
	return rec, f.err()
}

func parseParallelStatus(payload string) (Record, error) {
	f, err := newFieldScanner(payload, 27)
	if err != nil {
		return nil, err
	}
	rec := ParallelStatus{
		OtherUnitsConnected:     f.string() == "1",
		SerialNumber:            f.string(),
		OperationMode:           f.string(),
		FaultCode:               f.int(),
		GridVoltage:             f.float(),
		GridFrequency:           f.float(),
		ACOutVoltage:            f.float(),
		ACOutFrequency:          f.float(),
		ACOutApparentPower:      f.int(),
		ACOutActivePower:        f.int(),
		LoadPercent:             f.int(),
		BatteryVoltage:          f.float(),
		BatteryChargeCurrent:    f.int(),
		BatteryCapacity:         f.int(),
		PVInputVoltage:          f.float(),
		TotalChargeCurrent:      f.int(),
		TotalACOutApparentPower: f.int(),
		TotalACOutActivePower:   f.int(),
		TotalLoadPercent:        f.int(),
		InverterStatus:          f.string(),
		OutputMode:              f.int(),
		ChargerSourcePriority:   f.int(),
		MaxChargerCurrent:       f.int(),
		MaxChargerRange:         f.int(),
		MaxACChargerCurrent:     f.int(),
		PVInputCurrent:          f.int(),
		BatteryDischargeCurrent: f.int(),
	}
	return rec, f.err()
}

func parseRating(payload string) (Record, error) {
	f, err := newFieldScanner(payload, 23)
	if err != nil {
		return nil, err
	}
	rec := Rating{
		GridVoltage:               f.float(),
		GridCurrent:               f.float(),
		ACOutVoltage:              f.float(),
		ACOutFrequency:            f.float(),
		ACOutCurrent:              f.float(),
		ACOutApparentPower:        f.int(),
		ACOutActivePower:          f.int(),
		BatteryVoltage:            f.float(),
		BatteryRechargeVoltage:    f.float(),
		BatteryUnderVoltage:       f.float(),
		BatteryBulkVoltage:        f.float(),
		BatteryFloatVoltage:       f.float(),
		BatteryType:               f.int(),
		MaxACChargeCurrent:        f.int(),
		MaxChargeCurrent:          f.int(),
		InputVoltageRange:         f.int(),
		OutputSourcePriority:      f.int(),
		ChargerSourcePriority:     f.int(),
		ParallelMaxNumber:         f.int(),
		MachineType:               f.int(),
		Topology:                  f.int(),
		OutputMode:                f.int(),
		BatteryRedischargeVoltage: f.float(),
	}
	return rec, f.err()
}

func parseRatingReduced(payload string) (Record, error) {
	f, err := newFieldScanner(payload, 15)
	if err != nil {
		return nil, err
	}
	rec := RatingReduced{
		GridVoltage:            f.float(),
		GridCurrent:            f.float(),
		ACOutVoltage:           f.float(),
		ACOutFrequency:         f.float(),
		ACOutCurrent:           f.float(),
		ACOutApparentPower:     f.int(),
		ACOutActivePower:       f.int(),
		BatteryVoltage:         f.float(),
		BatteryRechargeVoltage: f.float(),
		BatteryUnderVoltage:    f.float(),
		BatteryBulkVoltage:     f.float(),
		BatteryFloatVoltage:    f.float(),
		BatteryType:            f.int(),
		MaxACChargeCurrent:     f.int(),
		MaxChargeCurrent:       f.int(),
	}
	return rec, f.err()
}

// fieldScanner walks the space-separated fields of a response payload,
// collecting the first conversion error instead of failing field by field.
type fieldScanner struct {
	fields  []string
	pos     int
	scanErr error
}

func newFieldScanner(payload string, minFields int) (*fieldScanner, error) {
	fields := strings.Fields(payload)
	if len(fields) < minFields {
		return nil, fmt.Errorf("masterpower: expected at least %d fields, got %d in %q", minFields, len(fields), payload)
	}
	return &fieldScanner{fields: fields}, nil
}

func (f *fieldScanner) string() string {
	s := f.fields[f.pos]
	f.pos++
	return s
}

func (f *fieldScanner) float() float64 {
	s := f.string()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && f.scanErr == nil {
		f.scanErr = fmt.Errorf("masterpower: field %d: %w", f.pos-1, err)
	}
	return v
}

func (f *fieldScanner) int() int {
	s := f.string()
	v, err := strconv.Atoi(s)
	if err != nil && f.scanErr == nil {
		f.scanErr = fmt.Errorf("masterpower: field %d: %w", f.pos-1, err)
	}
	return v
}

func (f *fieldScanner) err() error {
	return f.scanErr
}
