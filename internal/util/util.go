package util

import (
	"masterpower2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel:        zap.DebugLevel,
		Mode:            config.ModeDefault,
		InverterCount:   1,
		InnerIterations: 2,
		OuterDelay:      5,
		InnerDelay:      1,
		ErrorDelay:      10,
		Inverter: config.InverterConfig{
			Path:     "/dev/ttyUSB0",
			BaudRate: 2400,
		},
		MQTT: config.MQTTConfig{
			Host:     "localhost",
			Port:     1883,
			ClientId: "masterpower_test",
			Topic:    "masterpower",
			Discovery: config.DiscoveryConfig{
				Prefix:     "homeassistant",
				NodeName:   "masterpower",
				DeviceName: "MasterPower Inverter",
				DeviceId:   "mp_inverter",
			},
		},
		Port: 8080,
	}
}
