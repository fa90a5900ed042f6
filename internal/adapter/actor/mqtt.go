package actor

import (
	"fmt"
	"time"

	"masterpower2mqtt/internal/config"
	"masterpower2mqtt/internal/core/domain"
	"masterpower2mqtt/internal/mqtt"
	"masterpower2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// publishAttempts bounds delivery retries per message. Exhausting the bound
// drops the message after logging: telemetry is best effort and must never
// stall the polling cycle.
const publishAttempts = 5

const publishTimeout = 5 * time.Second

type MQTTActor struct {
	config   *config.Config
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   *mqtt.MQTTClient
	pending  *pendingPublish
	logger   *zap.Logger
}

type MQTTConnected struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	Error error
}

type pendingPublish struct {
	topic    string
	payload  string
	retain   bool
	attempts int
	replyTo  *actor.PID
	response domain.ActorResponse
}

func NewMQTTActor(config *config.Config, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:   config,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case domain.PublishTelemetryRequest:
		state.logger.Debug("mqtt@default PublishTelemetryRequest", zap.String("suffix", msg.Suffix))
		state.beginPublish(ctx, &pendingPublish{
			topic:    state.client.TelemetryTopic(msg.Suffix),
			payload:  msg.Payload,
			retain:   msg.Retain,
			replyTo:  actorutil.ForRequest(msg).ReplyTo(ctx),
			response: domain.PublishTelemetryResponse{Suffix: msg.Suffix},
		})
	case domain.PublishErrorRequest:
		// empty payload clears the channel (healthy marker)
		state.logger.Debug("mqtt@default PublishErrorRequest", zap.String("error", msg.Error))
		state.beginPublish(ctx, &pendingPublish{
			topic:    state.client.ErrorTopic(),
			payload:  msg.Error,
			replyTo:  actorutil.ForRequest(msg).ReplyTo(ctx),
			response: domain.PublishErrorResponse{},
		})
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishDiscoveryRequest", zap.Int("messages", len(msg.Messages)))
		for _, m := range msg.Messages {
			state.client.Publish(m.Topic, m.Payload, 0, true, func(error) {}, 1*time.Second)
		}
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{})
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) beginPublish(ctx actor.Context, pending *pendingPublish) {
	state.pending = pending
	state.doPublish(ctx)
	state.behavior.BecomeStacked(state.PublishingReceive)
}

func (state *MQTTActor) doPublish(ctx actor.Context) {
	state.pending.attempts++
	state.client.Publish(state.pending.topic, state.pending.payload, 1, state.pending.retain, func(err error) {
		ctx.Send(ctx.Self(), publishResult{Error: err})
	}, publishTimeout)
}

func (state *MQTTActor) PublishingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing publish failed",
				zap.String("topic", state.pending.topic),
				zap.Int("attempt", state.pending.attempts),
				zap.Error(msg.Error))
			if state.pending.attempts < publishAttempts {
				state.doPublish(ctx)
				return
			}
			// bound exhausted: drop and report success anyway
			state.logger.Error("mqtt@publishing dropping message after retries",
				zap.String("topic", state.pending.topic))
		}
		if state.pending.replyTo != nil {
			ctx.Send(state.pending.replyTo, state.pending.response)
		}
		state.pending = nil
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

// Dummy actor
func NewTestMQTTActor(config *config.Config, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:   config,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case domain.PublishTelemetryRequest:
		if ctx.Sender() != nil {
			ctx.Respond(domain.PublishTelemetryResponse{Suffix: msg.Suffix})
		}
	case domain.PublishErrorRequest:
		if ctx.Sender() != nil {
			ctx.Respond(domain.PublishErrorResponse{})
		}
	case domain.PublishDiscoveryRequest:
		if ctx.Sender() != nil {
			ctx.Respond(domain.PublishDiscoveryResponse{})
		}
	}
}
