package actor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"masterpower2mqtt/internal/config"
	"masterpower2mqtt/internal/core/domain"
	"masterpower2mqtt/internal/events"
	"masterpower2mqtt/internal/mqtt"
	. "masterpower2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// DiscoveryDone tells the master the channel announcements are on the broker
// and polling may start.
type DiscoveryDone struct {
}

// DiscoveryActor publishes the Home Assistant discovery config of every
// telemetry channel once, then goes quiet. It runs before the poller starts
// so consumers can register the channels before the first reading arrives.
type DiscoveryActor struct {
	config           *config.Config
	behavior         actor.Behavior
	stash            *Stash
	mqttActor        *actor.PID
	notify           *actor.PID
	mqttActorHealthy bool

	logger *zap.Logger
}

func NewDiscoveryActor(config *config.Config, mqttActor *actor.PID, notify *actor.PID, logger *zap.Logger) *DiscoveryActor {
	act := &DiscoveryActor{
		config:    config,
		mqttActor: mqttActor,
		notify:    notify,
		behavior:  actor.NewBehavior(),
		stash:     &Stash{},
		logger:    ActorLogger(domain.ACTOR_ID_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *DiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("discovery@starting started")

		state.mqttActorHealthy = false
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("discovery@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("discovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		if !msg.Healthy {
			panic(errors.New("MQTT actor is not healthy"))
		}
		state.mqttActorHealthy = true

		messages, err := state.discoveryMessages()
		if err != nil {
			panic(err)
		}
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.PublishDiscoveryRequest{Messages: messages}, 5*time.Second), func(err error) any {
			return domain.PublishDiscoveryResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.Become(state.WaitingPublishReceive)
	default:
		state.logger.Debug("discovery@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DiscoveryActor) WaitingPublishReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.PublishDiscoveryResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Info("discovery@publish channels announced")
		if state.notify != nil {
			ctx.Send(state.notify, DiscoveryDone{})
		}
		state.behavior.Become(state.Done)
	default:
		state.logger.Debug("discovery@publish recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *DiscoveryActor) Done(ctx actor.Context) {

}

func (state *DiscoveryActor) discoveryMessages() ([]domain.DiscoveryMessage, error) {
	sensors, err := events.Channels(*state.config)
	if err != nil {
		return nil, err
	}
	messages := make([]domain.DiscoveryMessage, 0, len(sensors))
	for _, sensor := range sensors {
		payload, err := json.Marshal(mqtt.ChannelSensorToHADiscoveryMessage(state.config.MQTT.Topic, sensor))
		if err != nil {
			return nil, err
		}
		messages = append(messages, domain.DiscoveryMessage{
			Topic:   mqtt.HADiscoveryChannelTopic(state.config.MQTT.Discovery.Prefix, sensor),
			Payload: string(payload),
		})
	}
	return messages, nil
}
