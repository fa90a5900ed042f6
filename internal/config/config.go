package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	// ModeDefault selects the single-unit command set (QPIGS + full QPIRI).
	ModeDefault = "default"
	// ModePhocos selects the parallel-unit command set (QPGSn + reduced QPIRI).
	ModePhocos = "phocos"

	MaxInverterCount = 9
)

type Config struct {
	LogLevel zapcore.Level
	Debug    bool   `mapstructure:"debug"`
	Mode     string `mapstructure:"mode"`

	InverterCount   uint `mapstructure:"inverter_count"`
	InnerIterations uint `mapstructure:"inner_iterations"`
	OuterDelay      uint `mapstructure:"outer_delay"`
	InnerDelay      uint `mapstructure:"inner_delay"`
	ErrorDelay      uint `mapstructure:"error_delay"`

	Inverter InverterConfig `mapstructure:"inverter"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`

	Port    uint `mapstructure:"port"`
	HttpLog bool `mapstructure:"http_log"`
}

type InverterConfig struct {
	Path     string `mapstructure:"path"`
	BaudRate int    `mapstructure:"baud_rate"`
}

type MQTTConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	ClientId  string          `mapstructure:"client_id"`
	Topic     string          `mapstructure:"topic"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

type DiscoveryConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Prefix     string `mapstructure:"prefix"`
	NodeName   string `mapstructure:"node_name"`
	DeviceName string `mapstructure:"device_name"`
	DeviceId   string `mapstructure:"device_id"`
}

// OuterDelayDuration and friends convert the second-granularity settings into
// durations. Sleeps are whole seconds; elapsed time is reported in ms.
func (c Config) OuterDelayDuration() time.Duration {
	return time.Duration(c.OuterDelay) * time.Second
}

func (c Config) InnerDelayDuration() time.Duration {
	return time.Duration(c.InnerDelay) * time.Second
}

func (c Config) ErrorDelayDuration() time.Duration {
	return time.Duration(c.ErrorDelay) * time.Second
}

func CheckMQTTTopic(topic string) (string, error) {
	// check and fix base topic
	lowerTopic := strings.ToLower(topic)
	topicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := topicRegexp.FindAllStringSubmatch(lowerTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerTopic, nil
}

// Validate checks bounds the poller relies on. Called once at startup;
// settings are immutable afterwards.
func (c Config) Validate() error {
	if c.Mode != ModeDefault && c.Mode != ModePhocos {
		return fmt.Errorf("config param mode must be %q or %q", ModeDefault, ModePhocos)
	}
	if c.InverterCount > MaxInverterCount {
		return fmt.Errorf("config param inverter_count must be <= %d", MaxInverterCount)
	}
	if c.Mode == ModePhocos && c.InverterCount == 0 && !c.Debug {
		return errors.New("config param inverter_count must be >= 1 in phocos mode unless debug is enabled")
	}
	if c.Inverter.Path == "" {
		return errors.New("config param inverter.path is required")
	}
	if c.MQTT.Host == "" {
		return errors.New("config param mqtt.host is required")
	}
	if c.ErrorDelay == 0 {
		return errors.New("config param error_delay must be >= 1")
	}
	return nil
}
