package events

// Sensor Model
type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
}

// ChannelSensor describes one telemetry channel for broker-side
// auto-registration (Home Assistant MQTT discovery).
type ChannelSensor struct {
	Device            Device
	Suffix            string
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement, duration
	DeviceClass       string // duration, connectivity
	EntityCategory    string // diagnostic, config, nil
	ValueTemplate     string
	Icon              string
}
