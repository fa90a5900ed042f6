package mqtt

import (
	"testing"

	"masterpower2mqtt/internal/util"

	"github.com/stretchr/testify/assert"
)

func testClient() *MQTTClient {
	cfg := util.LoadTestConfig()
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestTelemetryTopic(t *testing.T) {
	c := testClient()

	assert.Equal(t, "masterpower/qpigs", c.TelemetryTopic("qpigs"))
	assert.Equal(t, "masterpower/qpgs3", c.TelemetryTopic("qpgs3"))
	assert.Equal(t, "masterpower/inner_stats", c.TelemetryTopic("inner_stats"))
}

func TestErrorTopic(t *testing.T) {
	c := testClient()

	assert.Equal(t, "masterpower/error", c.ErrorTopic())
}

func TestBridgeStateTopic(t *testing.T) {
	c := testClient()

	assert.Equal(t, "masterpower/bridge/state", c.BridgeStateTopic())
}

func TestOptsFromConfigClientId(t *testing.T) {
	cfg := util.LoadTestConfig()
	opts := OptsFromConfig(&cfg)
	assert.Equal(t, "masterpower_test", opts.ClientID)

	cfg.MQTT.ClientId = ""
	opts = OptsFromConfig(&cfg)
	assert.NotEmpty(t, opts.ClientID, "random fallback id")
}

func TestOptsFromConfigWill(t *testing.T) {
	cfg := util.LoadTestConfig()
	opts := OptsFromConfig(&cfg)

	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "masterpower/bridge/state", opts.WillTopic)
	assert.Equal(t, []byte(MQTT_PAYLOAD_OFFLINE), opts.WillPayload)
	assert.True(t, opts.WillRetained)
}
