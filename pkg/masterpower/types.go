package masterpower

// Record is a decoded device response. Implementations are plain structs that
// serialize 1:1 to the telemetry payload of their channel.
type Record interface {
	RecordKind() CommandKind
}

type DeviceID struct {
	SerialNumber string `json:"serial_number"`
}

func (DeviceID) RecordKind() CommandKind { return KindDeviceID }

type ProtocolID struct {
	ProtocolID string `json:"protocol_id"`
}

func (ProtocolID) RecordKind() CommandKind { return KindProtocolID }

type FirmwareVersion struct {
	Version string `json:"version"`
}

func (FirmwareVersion) RecordKind() CommandKind { return KindFirmwareVersion }

type DeviceMode struct {
	Code string `json:"mode"`
	Name string `json:"mode_name"`
}

func (DeviceMode) RecordKind() CommandKind { return KindDeviceMode }

type WarningStatus struct {
	Raw      string   `json:"raw"`
	Warnings []string `json:"warnings"`
}

func (WarningStatus) RecordKind() CommandKind { return KindWarningStatus }

// GeneralStatus is the decoded QPIGS response (single unit, default mode).
type GeneralStatus struct {
	GridVoltage             float64 `json:"grid_voltage"`
	GridFrequency           float64 `json:"grid_frequency"`
	ACOutVoltage            float64 `json:"ac_out_voltage"`
	ACOutFrequency          float64 `json:"ac_out_frequency"`
	ACOutApparentPower      int     `json:"ac_out_apparent_power"`
	ACOutActivePower        int     `json:"ac_out_active_power"`
	OutLoadPercent          int     `json:"out_load_percent"`
	BusVoltage              int     `json:"bus_voltage"`
	BatteryVoltage          float64 `json:"battery_voltage"`
	BatteryChargeCurrent    int     `json:"battery_charge_current"`
	BatteryCapacity         int     `json:"battery_capacity"`
	HeatSinkTemperature     int     `json:"heat_sink_temperature"`
	PVInputCurrent          float64 `json:"pv_input_current"`
	PVInputVoltage          float64 `json:"pv_input_voltage"`
	SCCBatteryVoltage       float64 `json:"scc_battery_voltage"`
	BatteryDischargeCurrent int     `json:"battery_discharge_current"`
	DeviceStatus            string  `json:"device_status"`
}

func (GeneralStatus) RecordKind() CommandKind { return KindGeneralStatus }

// ParallelStatus is the decoded QPGSn response (per-unit, phocos mode).
type ParallelStatus struct {
	OtherUnitsConnected     bool    `json:"other_units_connected"`
	SerialNumber            string  `json:"serial_number"`
	OperationMode           string  `json:"operation_mode"`
	FaultCode               int     `json:"fault_code"`
	GridVoltage             float64 `json:"grid_voltage"`
	GridFrequency           float64 `json:"grid_frequency"`
	ACOutVoltage            float64 `json:"ac_out_voltage"`
	ACOutFrequency          float64 `json:"ac_out_frequency"`
	ACOutApparentPower      int     `json:"ac_out_apparent_power"`
	ACOutActivePower        int     `json:"ac_out_active_power"`
	LoadPercent             int     `json:"load_percent"`
	BatteryVoltage          float64 `json:"battery_voltage"`
	BatteryChargeCurrent    int     `json:"battery_charge_current"`
	BatteryCapacity         int     `json:"battery_capacity"`
	PVInputVoltage          float64 `json:"pv_input_voltage"`
	TotalChargeCurrent      int     `json:"total_charge_current"`
	TotalACOutApparentPower int     `json:"total_ac_out_apparent_power"`
	TotalACOutActivePower   int     `json:"total_ac_out_active_power"`
	TotalLoadPercent        int     `json:"total_load_percent"`
	InverterStatus          string  `json:"inverter_status"`
	OutputMode              int     `json:"output_mode"`
	ChargerSourcePriority   int     `json:"charger_source_priority"`
	MaxChargerCurrent       int     `json:"max_charger_current"`
	MaxChargerRange         int     `json:"max_charger_range"`
	MaxACChargerCurrent     int     `json:"max_ac_charger_current"`
	PVInputCurrent          int     `json:"pv_input_current"`
	BatteryDischargeCurrent int     `json:"battery_discharge_current"`
}

func (ParallelStatus) RecordKind() CommandKind { return KindParallelStatus }

// Rating is the decoded QPIRI response (full schema, default mode).
type Rating struct {
	GridVoltage               float64 `json:"grid_voltage"`
	GridCurrent               float64 `json:"grid_current"`
	ACOutVoltage              float64 `json:"ac_out_voltage"`
	ACOutFrequency            float64 `json:"ac_out_frequency"`
	ACOutCurrent              float64 `json:"ac_out_current"`
	ACOutApparentPower        int     `json:"ac_out_apparent_power"`
	ACOutActivePower          int     `json:"ac_out_active_power"`
	BatteryVoltage            float64 `json:"battery_voltage"`
	BatteryRechargeVoltage    float64 `json:"battery_recharge_voltage"`
	BatteryUnderVoltage       float64 `json:"battery_under_voltage"`
	BatteryBulkVoltage        float64 `json:"battery_bulk_voltage"`
	BatteryFloatVoltage       float64 `json:"battery_float_voltage"`
	BatteryType               int     `json:"battery_type"`
	MaxACChargeCurrent        int     `json:"max_ac_charge_current"`
	MaxChargeCurrent          int     `json:"max_charge_current"`
	InputVoltageRange         int     `json:"input_voltage_range"`
	OutputSourcePriority      int     `json:"output_source_priority"`
	ChargerSourcePriority     int     `json:"charger_source_priority"`
	ParallelMaxNumber         int     `json:"parallel_max_number"`
	MachineType               int     `json:"machine_type"`
	Topology                  int     `json:"topology"`
	OutputMode                int     `json:"output_mode"`
	BatteryRedischargeVoltage float64 `json:"battery_redischarge_voltage"`
}

func (Rating) RecordKind() CommandKind { return KindRating }

// RatingReduced is the QPIRI schema of the phocos device family, which
// reports fewer fields for the same inquiry.
type RatingReduced struct {
	GridVoltage            float64 `json:"grid_voltage"`
	GridCurrent            float64 `json:"grid_current"`
	ACOutVoltage           float64 `json:"ac_out_voltage"`
	ACOutFrequency         float64 `json:"ac_out_frequency"`
	ACOutCurrent           float64 `json:"ac_out_current"`
	ACOutApparentPower     int     `json:"ac_out_apparent_power"`
	ACOutActivePower       int     `json:"ac_out_active_power"`
	BatteryVoltage         float64 `json:"battery_voltage"`
	BatteryRechargeVoltage float64 `json:"battery_recharge_voltage"`
	BatteryUnderVoltage    float64 `json:"battery_under_voltage"`
	BatteryBulkVoltage     float64 `json:"battery_bulk_voltage"`
	BatteryFloatVoltage    float64 `json:"battery_float_voltage"`
	BatteryType            int     `json:"battery_type"`
	MaxACChargeCurrent     int     `json:"max_ac_charge_current"`
	MaxChargeCurrent       int     `json:"max_charge_current"`
}

func (RatingReduced) RecordKind() CommandKind { return KindRatingReduced }
