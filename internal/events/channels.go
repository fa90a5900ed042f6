package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"masterpower2mqtt/internal/config"
	"masterpower2mqtt/internal/core/domain"
	"masterpower2mqtt/internal/core/schedule"

	"github.com/carlmjohnson/versioninfo"
)

const (
	STATE_CLASS_MEASUREMENT = "measurement"
	DEVICE_CLASS_DURATION   = "duration"
	ENTITY_CLASS_DIAGNOSTIC = "diagnostic"
	SENSOR_TYPE_SENSOR      = "sensor"
	UNIT_MILLISECONDS       = "ms"
)

var channelNames = map[string]string{
	"qid":   "Serial Number",
	"qpi":   "Protocol ID",
	"qvfw":  "Firmware Version",
	"qmod":  "Device Mode",
	"qpiws": "Warning Status",
	"qpiri": "Rating Information",
	"qpigs": "General Status",
}

// InverterDevice is the discovery device entry all channels attach to.
func InverterDevice(cfg config.DiscoveryConfig, topic string) Device {
	id := cfg.DeviceId
	if id == "" {
		id = fmt.Sprintf("masterpower_%s", md5HashShort(topic))
	}
	name := cfg.DeviceName
	if name == "" {
		name = "MasterPower Inverter"
	}
	return Device{
		Id:           id,
		Name:         name,
		Manufacturer: "MasterPower",
		Model:        "Voltronic PI30",
		Version:      versioninfo.Short(),
	}
}

// Channels lists every telemetry channel the agent will publish for the
// given settings, in publish order: init channels, the mode-selected status
// channels, outer-tier channels, heartbeat stats and the error channel.
func Channels(cfg config.Config) ([]ChannelSensor, error) {
	device := InverterDevice(cfg.MQTT.Discovery, cfg.MQTT.Topic)

	var sensors []ChannelSensor
	add := func(suffix, name string) {
		sensors = append(sensors, ChannelSensor{
			Device:         device,
			Suffix:         suffix,
			SensorType:     SENSOR_TYPE_SENSOR,
			Name:           name,
			UniqueId:       fmt.Sprintf("%s_%s", device.Id, suffix),
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		})
	}

	for _, step := range schedule.InitPlan() {
		suffix := step.Command.Suffix()
		add(suffix, channelNames[suffix])
	}

	innerSteps, err := schedule.InnerPlan(cfg.Mode, cfg.Debug, cfg.InverterCount)
	if err != nil {
		return nil, err
	}
	for _, step := range innerSteps {
		if !step.Publish {
			continue
		}
		suffix := step.Command.Suffix()
		name, ok := channelNames[suffix]
		if !ok {
			name = fmt.Sprintf("Parallel Status %d", step.Command.Index)
		}
		add(suffix, name)
	}

	for _, step := range schedule.OuterPlan(cfg.Mode) {
		suffix := step.Command.Suffix()
		add(suffix, channelNames[suffix])
	}

	for _, hb := range []struct{ suffix, name string }{
		{domain.CHANNEL_INNER_STATS, "Inner Pass Duration"},
		{domain.CHANNEL_OUTER_STATS, "Outer Pass Duration"},
	} {
		sensors = append(sensors, ChannelSensor{
			Device:            device,
			Suffix:            hb.suffix,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              hb.name,
			UniqueId:          fmt.Sprintf("%s_%s", device.Id, hb.suffix),
			UnitOfMeasurement: UNIT_MILLISECONDS,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_DURATION,
			EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
			ValueTemplate:     "{{ value_json.update_duration }}",
		})
	}

	add(domain.CHANNEL_ERROR, "Last Error")

	return sensors, nil
}

func md5HashShort(id string) string {
	hash := md5.Sum([]byte(id))
	return hex.EncodeToString(hash[:])[:8]
}
