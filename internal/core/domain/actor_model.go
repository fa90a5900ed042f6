package domain

import (
	"masterpower2mqtt/pkg/masterpower"
)

const (
	ACTOR_ID_MASTER    = "master"
	ACTOR_ID_INVERTER  = "inverter"
	ACTOR_ID_MQTT      = "mqtt"
	ACTOR_ID_POLLER    = "poller"
	ACTOR_ID_DISCOVERY = "discovery"
)

// ExecuteCommandRequest asks the inverter actor to run one catalogue command.
// The inverter actor serializes requests: one device round-trip at a time.
type ExecuteCommandRequest struct {
	ActorRequestMixIn
	Command masterpower.Command
}

type ExecuteCommandResponse struct {
	ActorResponseMixIn
	Command masterpower.Command
	Record  masterpower.Record
}

// PublishTelemetryRequest asks the MQTT actor to deliver a payload under
// {topic}/{suffix}. The response never carries a publish error: delivery is
// best effort with bounded retries inside the MQTT actor.
type PublishTelemetryRequest struct {
	ActorRequestMixIn
	Suffix  string
	Payload string
	Retain  bool
}

type PublishTelemetryResponse struct {
	ActorResponseMixIn
	Suffix string
}

// PublishErrorRequest sets the error channel to the given text. An empty
// text clears the channel (healthy marker).
type PublishErrorRequest struct {
	ActorRequestMixIn
	Error string
}

type PublishErrorResponse struct {
	ActorResponseMixIn
}

// PublishDiscoveryRequest carries the Home Assistant discovery announcements
// published once before polling starts.
type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Messages []DiscoveryMessage
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type DiscoveryMessage struct {
	Topic   string
	Payload string
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
