package actor

import (
	"errors"
	"sync"
	"testing"
	"time"

	adactor "masterpower2mqtt/internal/adapter/actor"
	"masterpower2mqtt/internal/config"
	"masterpower2mqtt/internal/core/domain"
	"masterpower2mqtt/internal/util/actorutil"
	"masterpower2mqtt/pkg/masterpower"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// sinkRecorder captures every publish in arrival order. Error channel
// publishes are recorded under the "error" suffix with their payload.
type sinkRecorder struct {
	mu      sync.Mutex
	entries []sinkEntry
}

type sinkEntry struct {
	Suffix  string
	Payload string
}

func (r *sinkRecorder) record(suffix, payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, sinkEntry{Suffix: suffix, Payload: payload})
}

func (r *sinkRecorder) suffixes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Suffix
	}
	return out
}

func (r *sinkRecorder) errorPayloads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Suffix == domain.CHANNEL_ERROR {
			out = append(out, e.Payload)
		}
	}
	return out
}

type sinkActor struct {
	recorder *sinkRecorder
}

func (s *sinkActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.PublishTelemetryRequest:
		s.recorder.record(msg.Suffix, msg.Payload)
		ctx.Respond(domain.PublishTelemetryResponse{Suffix: msg.Suffix})
	case domain.PublishErrorRequest:
		s.recorder.record(domain.CHANNEL_ERROR, msg.Error)
		ctx.Respond(domain.PublishErrorResponse{})
	}
}

func testPollerConfig(mode string, innerIterations uint, inverterCount uint) PollerConfig {
	return PollerConfig{
		Mode:            mode,
		InverterCount:   inverterCount,
		InnerIterations: innerIterations,
		OuterDelay:      100 * time.Millisecond,
		InnerDelay:      50 * time.Millisecond,
		ErrorDelay:      100 * time.Millisecond,
		CommandTimeout:  2 * time.Second,
		PublishTimeout:  2 * time.Second,
		MaxInitBackoff:  500 * time.Millisecond,
	}
}

func spawnPoller(t *testing.T, as *actor.ActorSystem, cfg PollerConfig, inv masterpower.Inverter, recorder *sinkRecorder, logger *zap.Logger) *actor.PID {
	context := as.Root

	sinkPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return &sinkActor{recorder: recorder}
	}))
	inverterPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewInverterActor(inv, 2*time.Second, logger)
	}))
	pollerPID, err := context.SpawnNamed(actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(cfg, inverterPID, sinkPID, logger)
	}), domain.ACTOR_ID_POLLER)
	if err != nil {
		t.Fatal(err)
	}
	return pollerPID
}

func TestPollerDefaultModeSequence(t *testing.T) {

	assert := assert.New(t)

	inv := masterpower.CreateTestInverter()
	recorder := &sinkRecorder{}
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)

	pid := spawnPoller(t, as, testPollerConfig(config.ModeDefault, 2, 1), inv, recorder, logger)

	time.Sleep(1 * time.Second)

	suffixes := recorder.suffixes()
	expectedPrefix := []string{
		"qid", "qpi", "qvfw",
		"qpigs", "inner_stats",
		"qpigs", "inner_stats",
		"qmod", "qpiws", "qpiri", "outer_stats",
		"error",
		"qpigs",
	}
	if assert.GreaterOrEqual(len(suffixes), len(expectedPrefix), "publish count") {
		assert.Equal(expectedPrefix, suffixes[:len(expectedPrefix)], "publish order")
	}

	// pass completed without error: the error channel only ever gets clears
	for _, payload := range recorder.errorPayloads() {
		assert.Equal("", payload, "error payload")
	}

	as.Root.Stop(pid)
	as.Shutdown()
}

func TestPollerZeroInnerIterations(t *testing.T) {

	assert := assert.New(t)

	inv := masterpower.CreateTestInverter()
	recorder := &sinkRecorder{}
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)

	pid := spawnPoller(t, as, testPollerConfig(config.ModeDefault, 0, 1), inv, recorder, logger)

	time.Sleep(500 * time.Millisecond)

	suffixes := recorder.suffixes()
	expectedPrefix := []string{"qid", "qpi", "qvfw", "qmod", "qpiws", "qpiri", "outer_stats"}
	if assert.GreaterOrEqual(len(suffixes), len(expectedPrefix), "publish count") {
		assert.Equal(expectedPrefix, suffixes[:len(expectedPrefix)], "publish order")
	}
	assert.NotContains(suffixes, "qpigs", "no inner commands")

	as.Root.Stop(pid)
	as.Shutdown()
}

func TestPollerPhocosModeSequence(t *testing.T) {

	assert := assert.New(t)

	inv := masterpower.CreateTestInverter()
	recorder := &sinkRecorder{}
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)

	pid := spawnPoller(t, as, testPollerConfig(config.ModePhocos, 1, 3), inv, recorder, logger)

	time.Sleep(1 * time.Second)

	suffixes := recorder.suffixes()
	expectedPrefix := []string{
		"qid", "qpi", "qvfw",
		"qpgs1", "qpgs2", "qpgs3", "inner_stats",
		"qmod", "qpiws", "qpiri", "outer_stats",
	}
	if assert.GreaterOrEqual(len(suffixes), len(expectedPrefix), "publish count") {
		assert.Equal(expectedPrefix, suffixes[:len(expectedPrefix)], "publish order")
	}
	assert.NotContains(suffixes, "qpgs0", "unit 0 suppressed without debug")
	assert.NotContains(suffixes, "qpigs", "no aggregate query in phocos mode")

	// reduced rating schema in phocos mode
	assert.Contains(inv.Executed(), "QPIRI", "rating inquiry")

	as.Root.Stop(pid)
	as.Shutdown()
}

func TestPollerCommandFailureRestartsPass(t *testing.T) {

	assert := assert.New(t)

	inv := masterpower.CreateTestInverter()
	inv.FailOn("QMOD", errors.New("read timeout"))
	recorder := &sinkRecorder{}
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)

	pid := spawnPoller(t, as, testPollerConfig(config.ModeDefault, 1, 1), inv, recorder, logger)

	time.Sleep(1 * time.Second)

	suffixes := recorder.suffixes()
	expectedPrefix := []string{
		"qid", "qpi", "qvfw",
		"qpigs", "inner_stats",
		"error",
		// restart from inner pass 1, not from where it failed
		"qpigs", "inner_stats",
		"error",
	}
	if assert.GreaterOrEqual(len(suffixes), len(expectedPrefix), "publish count") {
		assert.Equal(expectedPrefix, suffixes[:len(expectedPrefix)], "publish order")
	}

	// the pass is abandoned at the failing command
	assert.NotContains(suffixes, "qpiws", "pass abandoned")
	assert.NotContains(suffixes, "qpiri", "pass abandoned")
	assert.NotContains(suffixes, "outer_stats", "pass abandoned")

	for _, payload := range recorder.errorPayloads() {
		assert.Contains(payload, "read timeout", "error payload")
	}

	as.Root.Stop(pid)
	as.Shutdown()
}

func TestPollerMandatoryInitFailureRetries(t *testing.T) {

	assert := assert.New(t)

	inv := masterpower.CreateTestInverter()
	inv.FailOn("QPI", errors.New("no response"))
	recorder := &sinkRecorder{}
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)

	pid := spawnPoller(t, as, testPollerConfig(config.ModeDefault, 1, 1), inv, recorder, logger)

	time.Sleep(250 * time.Millisecond)

	// polling must not have started
	assert.NotContains(recorder.suffixes(), "qpigs", "no polling on failed init")
	errorPayloads := recorder.errorPayloads()
	if assert.NotEmpty(errorPayloads, "init error published") {
		assert.Contains(errorPayloads[0], "no response", "init error payload")
	}

	// device recovers, the next init retry must succeed and start polling
	inv.FailOn("QPI", nil)

	time.Sleep(1 * time.Second)

	suffixes := recorder.suffixes()
	assert.Contains(suffixes, "qpi", "init completed after retry")
	assert.Contains(suffixes, "qpigs", "polling started after retry")
	assert.Greater(countOf(inv.Executed(), "QPI"), 1, "init sequence retried")

	as.Root.Stop(pid)
	as.Shutdown()
}

func TestPollerToleratedInitFailure(t *testing.T) {

	assert := assert.New(t)

	inv := masterpower.CreateTestInverter()
	inv.FailOn("QID", errors.New("not supported"))
	recorder := &sinkRecorder{}
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)

	pid := spawnPoller(t, as, testPollerConfig(config.ModeDefault, 1, 1), inv, recorder, logger)

	time.Sleep(1 * time.Second)

	suffixes := recorder.suffixes()
	expectedPrefix := []string{"qpi", "qvfw", "qpigs", "inner_stats"}
	if assert.GreaterOrEqual(len(suffixes), len(expectedPrefix), "publish count") {
		assert.Equal(expectedPrefix, suffixes[:len(expectedPrefix)], "publish order")
	}
	assert.NotContains(suffixes, "qid", "failed identity query not published")

	as.Root.Stop(pid)
	as.Shutdown()
}

func countOf(items []string, value string) int {
	n := 0
	for _, item := range items {
		if item == value {
			n++
		}
	}
	return n
}
