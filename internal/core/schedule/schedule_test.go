package schedule

import (
	"testing"

	"masterpower2mqtt/internal/config"
	"masterpower2mqtt/pkg/masterpower"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wires(steps []Step) []string {
	var out []string
	for _, s := range steps {
		out = append(out, s.Command.Wire())
	}
	return out
}

func TestInitPlanOrder(t *testing.T) {
	plan := InitPlan()

	require.Len(t, plan, 3)
	assert.Equal(t, "QID", plan[0].Command.Wire())
	assert.False(t, plan[0].Mandatory, "identity failure is tolerated")
	assert.Equal(t, "QPI", plan[1].Command.Wire())
	assert.True(t, plan[1].Mandatory)
	assert.Equal(t, "QVFW", plan[2].Command.Wire())
	assert.True(t, plan[2].Mandatory)
}

func TestInnerPlanDefaultMode(t *testing.T) {
	steps, err := InnerPlan(config.ModeDefault, false, 3)

	require.NoError(t, err)
	// single aggregate inquiry, no per-unit queries
	assert.Equal(t, []string{"QPIGS"}, wires(steps))
	assert.True(t, steps[0].Publish)
}

func TestInnerPlanPhocos(t *testing.T) {
	steps, err := InnerPlan(config.ModePhocos, false, 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"QPGS1", "QPGS2", "QPGS3"}, wires(steps))
	for _, s := range steps {
		assert.True(t, s.Publish)
	}
}

func TestInnerPlanPhocosDebugIncludesUnitZero(t *testing.T) {
	steps, err := InnerPlan(config.ModePhocos, true, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"QPGS0", "QPGS1", "QPGS2"}, wires(steps))
	assert.True(t, steps[0].Publish, "unit 0 is published when debug is enabled")
}

func TestInnerPlanPhocosZeroUnits(t *testing.T) {
	steps, err := InnerPlan(config.ModePhocos, false, 0)

	require.NoError(t, err)
	assert.Empty(t, steps)

	steps, err = InnerPlan(config.ModePhocos, true, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"QPGS0"}, wires(steps))
}

func TestOuterPlanDefaultMode(t *testing.T) {
	steps := OuterPlan(config.ModeDefault)

	assert.Equal(t, []string{"QMOD", "QPIWS", "QPIRI"}, wires(steps))
	assert.Equal(t, masterpower.KindRating, steps[2].Command.Kind)
}

func TestOuterPlanPhocosUsesReducedRating(t *testing.T) {
	steps := OuterPlan(config.ModePhocos)

	assert.Equal(t, []string{"QMOD", "QPIWS", "QPIRI"}, wires(steps))
	assert.Equal(t, masterpower.KindRatingReduced, steps[2].Command.Kind)
}
