package actor

import (
	"fmt"
	"time"

	"masterpower2mqtt/internal/core/domain"
	"masterpower2mqtt/internal/util/actorutil"
	"masterpower2mqtt/pkg/masterpower"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// InverterActor owns the serial transport. Its mailbox serializes command
// execution: a request received while a device round-trip is in flight is
// stashed, so the device never sees two outstanding inquiries.
type InverterActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	inverter masterpower.Inverter
	timeout  time.Duration
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewInverterActor(inverter masterpower.Inverter, timeout time.Duration, logger *zap.Logger) *InverterActor {
	act := &InverterActor{
		inverter: inverter,
		timeout:  timeout,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_INVERTER, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *InverterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *InverterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("inverter@starting started")
		// open failure panics so the supervisor's exponential backoff
		// keeps retrying instead of aborting the process
		if err := state.inverter.Open(); err != nil {
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.inverter.Close()
	default:
		state.logger.Debug("inverter@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *InverterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("inverter@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_INVERTER,
			Healthy: true,
			State:   "idle",
		})
	case domain.ExecuteCommandRequest:
		state.logger.Debug("inverter@default: ExecuteCommandRequest", zap.String("command", msg.Command.Wire()))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		cmd := msg.Command
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.ExecuteCommandResponse, error) {
			return state.executeCommand(cmd)
		}), mapTaskResult[domain.ExecuteCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.ExecuteCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					Command: cmd,
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingInverter)
	case *actor.Restarting:
		state.inverter.Close()
	case *actor.Stopping:
		state.inverter.Close()
	default:
		state.logger.Debug("inverter@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *InverterActor) WaitingInverter(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("inverter@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.inverter.Close()
	default:
		state.logger.Debug("inverter@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *InverterActor) executeCommand(cmd masterpower.Command) (*domain.ExecuteCommandResponse, error) {
	record, err := a.inverter.Execute(cmd)
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.ExecuteCommandResponse{
		Command: cmd,
		Record:  record,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
