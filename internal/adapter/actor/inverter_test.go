package actor

import (
	"errors"
	"testing"
	"time"

	"masterpower2mqtt/internal/core/domain"
	"masterpower2mqtt/internal/util/actorutil"
	"masterpower2mqtt/pkg/masterpower"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExecuteCommandInverterActor(t *testing.T) {

	assert := assert.New(t)

	inv := masterpower.CreateTestInverter()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewInverterActor(inv, 5*time.Second, logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	msg := domain.ExecuteCommandRequest{Command: masterpower.NewCommand(masterpower.KindGeneralStatus)}
	result, err := context.RequestFuture(pid, msg, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.ExecuteCommandResponse)

	assert.False(resp.HasResponseError(), "response error")
	status, ok := resp.Record.(masterpower.GeneralStatus)
	assert.True(ok, "record type")
	assert.Equal(231.8, status.GridVoltage, "grid voltage")
	assert.Equal([]string{"QPIGS"}, inv.Executed(), "executed commands")

	context.Stop(pid)

	as.Shutdown()
}

func TestExecuteCommandErrorInverterActor(t *testing.T) {

	assert := assert.New(t)

	inv := masterpower.CreateTestInverter()
	inv.FailOn("QMOD", errors.New("read timeout"))

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewInverterActor(inv, 5*time.Second, logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	msg := domain.ExecuteCommandRequest{Command: masterpower.NewCommand(masterpower.KindDeviceMode)}
	result, err := context.RequestFuture(pid, msg, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.ExecuteCommandResponse)

	assert.True(resp.HasResponseError(), "response error")
	assert.Nil(resp.Record, "record")

	// actor must recover and serve the next request
	inv.FailOn("QMOD", nil)
	result, err = context.RequestFuture(pid, msg, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp = result.(domain.ExecuteCommandResponse)
	assert.False(resp.HasResponseError(), "response error after recovery")

	context.Stop(pid)

	as.Shutdown()
}

func TestSequentialCommandsInverterActor(t *testing.T) {

	assert := assert.New(t)

	inv := masterpower.CreateTestInverter()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewInverterActor(inv, 5*time.Second, logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	cmds := []masterpower.Command{
		masterpower.NewCommand(masterpower.KindDeviceMode),
		masterpower.NewCommand(masterpower.KindWarningStatus),
		masterpower.NewCommand(masterpower.KindRating),
	}
	futures := make([]*actor.Future, 0, len(cmds))
	for _, cmd := range cmds {
		futures = append(futures, context.RequestFuture(pid, domain.ExecuteCommandRequest{Command: cmd}, 5*time.Second))
	}
	for _, fut := range futures {
		if _, err := fut.Result(); err != nil {
			t.Error(err)
			return
		}
	}

	assert.Equal([]string{"QMOD", "QPIWS", "QPIRI"}, inv.Executed(), "execution order")

	context.Stop(pid)

	as.Shutdown()
}
