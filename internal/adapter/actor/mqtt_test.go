package actor

import (
	"testing"
	"time"

	"masterpower2mqtt/internal/core/domain"
	"masterpower2mqtt/internal/util"
	"masterpower2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)

	tmsg := domain.PublishTelemetryRequest{Suffix: "qpigs", Payload: `{"grid_voltage":231.8}`}
	result, err = context.RequestFuture(pid, tmsg, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	tresp, ok := result.(domain.PublishTelemetryResponse)
	assert.True(t, ok)
	assert.Equal(t, "qpigs", tresp.Suffix)

	emsg := domain.PublishErrorRequest{Error: ""}
	result, err = context.RequestFuture(pid, emsg, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	_, ok = result.(domain.PublishErrorResponse)
	assert.True(t, ok)

	context.Stop(pid)

	time.Sleep(500 * time.Millisecond)

	as.Shutdown()
}
