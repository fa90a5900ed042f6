package mqtt

import (
	"fmt"

	"masterpower2mqtt/internal/events"
)

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice `json:"device"`
	StateTopic        string            `json:"state_topic"`
	StateClass        string            `json:"state_class,omitempty"`
	DeviceClass       string            `json:"device_class,omitempty"`
	UnitOfMeasurement string            `json:"unit_of_measurement,omitempty"`
	AvTopic           string            `json:"availability_topic,omitempty"`
	EntityCategory    string            `json:"entity_category,omitempty"`
	ValueTemplate     string            `json:"value_template,omitempty"`
	Name              string            `json:"name"`
	UniqueId          string            `json:"unique_id"`
	Platform          string            `json:"platform"`
	Icon              string            `json:"icon,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
}

// HADiscoveryChannelTopic is the retained config topic of one channel under
// the discovery prefix.
func HADiscoveryChannelTopic(prefix string, sensor events.ChannelSensor) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, sensor.SensorType, sensor.Device.Id, sensor.Suffix)
}

func ChannelSensorToHADiscoveryMessage(baseTopic string, sensor events.ChannelSensor) HADiscoveryConfig {
	return HADiscoveryConfig{
		Device:            device(sensor.Device),
		StateTopic:        fmt.Sprintf("%s/%s", baseTopic, sensor.Suffix),
		StateClass:        sensor.StateClass,
		DeviceClass:       sensor.DeviceClass,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
		AvTopic:           bridgeStateTopic(baseTopic),
		EntityCategory:    sensor.EntityCategory,
		ValueTemplate:     sensor.ValueTemplate,
		Name:              sensor.Name,
		UniqueId:          sensor.UniqueId,
		Platform:          "mqtt",
		Icon:              sensor.Icon,
	}
}

func device(dev events.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{dev.Id},
		Manufacturer: dev.Manufacturer,
		Version:      dev.Version,
		Model:        dev.Model,
		Name:         dev.Name,
	}
}
