package actor

import (
	"encoding/json"
	"fmt"
	"time"

	"masterpower2mqtt/internal/config"
	"masterpower2mqtt/internal/core/domain"
	"masterpower2mqtt/internal/core/schedule"
	. "masterpower2mqtt/internal/util/actorutil"
	"masterpower2mqtt/pkg/masterpower"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// PollerConfig carries the timing parameters of the cycle scheduler as
// durations so tests can run with sub-second cadences.
type PollerConfig struct {
	Mode            string
	Debug           bool
	InverterCount   uint
	InnerIterations uint
	OuterDelay      time.Duration
	InnerDelay      time.Duration
	ErrorDelay      time.Duration
	CommandTimeout  time.Duration
	PublishTimeout  time.Duration
	MaxInitBackoff  time.Duration
}

func PollerConfigFromConfig(cfg *config.Config) PollerConfig {
	return PollerConfig{
		Mode:            cfg.Mode,
		Debug:           cfg.Debug,
		InverterCount:   cfg.InverterCount,
		InnerIterations: cfg.InnerIterations,
		OuterDelay:      cfg.OuterDelayDuration(),
		InnerDelay:      cfg.InnerDelayDuration(),
		ErrorDelay:      cfg.ErrorDelayDuration(),
		CommandTimeout:  15 * time.Second,
		PublishTimeout:  30 * time.Second,
		MaxInitBackoff:  5 * time.Minute,
	}
}

// PollerActor runs the two-tier polling cycle forever: the init sequence
// once, then inner passes with the mode-selected status queries nested inside
// outer passes closing with QMOD, QPIWS and the rating inquiry. Every device
// command and every publish is awaited before the next step, so telemetry
// order always matches command order.
type PollerActor struct {
	config    PollerConfig
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	inverterActor *actor.PID
	mqttActor     *actor.PID

	initPlan  []schedule.InitStep
	innerPlan []schedule.Step
	outerPlan []schedule.Step

	initIndex   int
	initBackoff time.Duration

	steps     []schedule.Step
	stepIndex int
	outerTier bool
	innerDone uint
	tierStart time.Time

	logger *zap.Logger
}

type tierSleepDone struct {
}

type errorSleepDone struct {
}

type initRetry struct {
}

func NewPollerActor(config PollerConfig, inverterActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		config:        config,
		inverterActor: inverterActor,
		mqttActor:     mqttActor,
		behavior:      actor.NewBehavior(),
		stash:         &Stash{},
		logger:        ActorLogger(domain.ACTOR_ID_POLLER, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@starting started")

		innerPlan, err := schedule.InnerPlan(state.config.Mode, state.config.Debug, state.config.InverterCount)
		if err != nil {
			panic(err)
		}
		state.innerPlan = innerPlan
		state.outerPlan = schedule.OuterPlan(state.config.Mode)
		state.initPlan = schedule.InitPlan()

		state.scheduler = scheduler.NewTimerScheduler(ctx)

		state.initIndex = 0
		state.initBackoff = state.config.ErrorDelay
		state.behavior.Become(state.InitializingReceive)
		state.runInitStep(ctx)
	default:
		state.logger.Debug("poller@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// InitializingReceive runs the one-shot identity/version sequence. A
// tolerated step failure is logged and skipped; a mandatory failure is
// published to the error channel and the whole sequence retried with
// exponential backoff. The main loop never starts on a failed init.
func (state *PollerActor) InitializingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@init ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   "initializing",
		})
	case domain.ExecuteCommandResponse:
		if msg.HasResponseError() {
			step := state.initPlan[state.initIndex]
			if !step.Mandatory {
				state.logger.Warn("poller@init tolerated command failure",
					zap.String("command", step.Command.Wire()),
					zap.Error(msg.GetResponseError()))
				state.initIndex++
				state.runInitStep(ctx)
				return
			}
			state.logger.Error("poller@init mandatory command failed",
				zap.String("command", step.Command.Wire()),
				zap.Error(msg.GetResponseError()))
			state.publishError(ctx, msg.GetResponseError().Error())
			return
		}
		state.logger.Debug("poller@init ExecuteCommandResponse", zap.String("command", msg.Command.Wire()))
		payload, err := json.Marshal(msg.Record)
		if err != nil {
			state.logger.Error("poller@init encode failed", zap.Error(err))
			state.initIndex++
			state.runInitStep(ctx)
			return
		}
		state.publishTelemetry(ctx, msg.Command.Suffix(), string(payload))
	case domain.PublishTelemetryResponse:
		if msg.HasResponseError() {
			state.logger.Error("poller@init publish failed", zap.String("suffix", msg.Suffix), zap.Error(msg.GetResponseError()))
		}
		state.initIndex++
		state.runInitStep(ctx)
	case domain.PublishErrorResponse:
		state.logger.Info("poller@init retry scheduled", zap.Duration("backoff", state.initBackoff))
		state.scheduler.RequestOnce(state.initBackoff, ctx.Self(), initRetry{})
		state.initBackoff = min(state.initBackoff*2, state.config.MaxInitBackoff)
	case initRetry:
		state.initIndex = 0
		state.runInitStep(ctx)
	default:
		state.logger.Debug("poller@init stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// RunningReceive drives one outer pass step by step. Each device response
// triggers the publish of its record, each publish ack triggers the next
// command, the tier heartbeat ack triggers the tier sleep.
func (state *PollerActor) RunningReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@running ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   "running",
		})
	case domain.ExecuteCommandResponse:
		if msg.HasResponseError() {
			state.enterErrorBackoff(ctx, msg.GetResponseError())
			return
		}
		state.logger.Debug("poller@running ExecuteCommandResponse", zap.String("command", msg.Command.Wire()))
		step := state.steps[state.stepIndex]
		if !step.Publish {
			state.advanceStep(ctx)
			return
		}
		payload, err := json.Marshal(msg.Record)
		if err != nil {
			state.logger.Error("poller@running encode failed", zap.String("command", msg.Command.Wire()), zap.Error(err))
			state.advanceStep(ctx)
			return
		}
		state.publishTelemetry(ctx, msg.Command.Suffix(), string(payload))
	case domain.PublishTelemetryResponse:
		if msg.HasResponseError() {
			// sink failures never abort the pass
			state.logger.Error("poller@running publish failed", zap.String("suffix", msg.Suffix), zap.Error(msg.GetResponseError()))
		}
		if msg.Suffix == domain.CHANNEL_INNER_STATS || msg.Suffix == domain.CHANNEL_OUTER_STATS {
			state.sleepAfterTier(ctx)
		} else {
			state.advanceStep(ctx)
		}
	case tierSleepDone:
		if state.outerTier {
			// pass completed without error: clear the error channel
			state.publishError(ctx, "")
		} else {
			state.innerDone++
			state.startTier(ctx)
		}
	case domain.PublishErrorResponse:
		if msg.HasResponseError() {
			state.logger.Error("poller@running error clear failed", zap.Error(msg.GetResponseError()))
		}
		state.startPass(ctx)
	default:
		state.logger.Debug("poller@running recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// ErrorBackoffReceive holds the scheduler between a failed pass and its
// restart: the error text is already on its way to the error channel, the
// restart timer starts once the publish is acked.
func (state *PollerActor) ErrorBackoffReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@backoff ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   "error_backoff",
		})
	case domain.PublishErrorResponse:
		if msg.HasResponseError() {
			state.logger.Error("poller@backoff error publish failed", zap.Error(msg.GetResponseError()))
		}
		state.scheduler.RequestOnce(state.config.ErrorDelay, ctx.Self(), errorSleepDone{})
	case errorSleepDone:
		state.logger.Info("poller@backoff restarting pass")
		state.behavior.Become(state.RunningReceive)
		state.startPass(ctx)
	default:
		state.logger.Debug("poller@backoff recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PollerActor) runInitStep(ctx actor.Context) {
	if state.initIndex >= len(state.initPlan) {
		state.logger.Info("poller@init sequence complete")
		state.behavior.Become(state.RunningReceive)
		state.stash.UnstashAll(ctx)
		state.startPass(ctx)
		return
	}
	state.executeCommand(ctx, state.initPlan[state.initIndex].Command)
}

func (state *PollerActor) startPass(ctx actor.Context) {
	state.innerDone = 0
	state.startTier(ctx)
}

func (state *PollerActor) startTier(ctx actor.Context) {
	if state.innerDone < state.config.InnerIterations {
		state.steps = state.innerPlan
		state.outerTier = false
	} else {
		state.steps = state.outerPlan
		state.outerTier = true
	}
	state.stepIndex = 0
	state.tierStart = time.Now()
	state.nextStep(ctx)
}

func (state *PollerActor) advanceStep(ctx actor.Context) {
	state.stepIndex++
	state.nextStep(ctx)
}

func (state *PollerActor) nextStep(ctx actor.Context) {
	if state.stepIndex < len(state.steps) {
		state.executeCommand(ctx, state.steps[state.stepIndex].Command)
		return
	}

	// tier done, publish its heartbeat
	stats := domain.PassStats{UpdateDuration: time.Since(state.tierStart).Milliseconds()}
	payload, err := stats.Encode()
	if err != nil {
		state.logger.Error("poller@running stats encode failed", zap.Error(err))
		state.sleepAfterTier(ctx)
		return
	}
	suffix := domain.CHANNEL_INNER_STATS
	if state.outerTier {
		suffix = domain.CHANNEL_OUTER_STATS
	}
	state.publishTelemetry(ctx, suffix, payload)
}

func (state *PollerActor) sleepAfterTier(ctx actor.Context) {
	delay := state.config.InnerDelay
	if state.outerTier {
		delay = state.config.OuterDelay
	}
	state.scheduler.RequestOnce(delay, ctx.Self(), tierSleepDone{})
}

func (state *PollerActor) enterErrorBackoff(ctx actor.Context, err error) {
	state.logger.Error("poller@running pass failed", zap.Error(err))
	state.publishError(ctx, err.Error())
	state.behavior.Become(state.ErrorBackoffReceive)
}

func (state *PollerActor) executeCommand(ctx actor.Context, cmd masterpower.Command) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.inverterActor, domain.ExecuteCommandRequest{Command: cmd}, state.config.CommandTimeout), func(err error) any {
		return domain.ExecuteCommandResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			Command: cmd,
		}
	})
}

func (state *PollerActor) publishTelemetry(ctx actor.Context, suffix string, payload string) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.PublishTelemetryRequest{Suffix: suffix, Payload: payload}, state.config.PublishTimeout), func(err error) any {
		return domain.PublishTelemetryResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			Suffix: suffix,
		}
	})
}

func (state *PollerActor) publishError(ctx actor.Context, text string) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.PublishErrorRequest{Error: text}, state.config.PublishTimeout), func(err error) any {
		return domain.PublishErrorResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}
