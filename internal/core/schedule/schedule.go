package schedule

import (
	"masterpower2mqtt/internal/config"
	"masterpower2mqtt/pkg/masterpower"
)

// Step is one scheduled command of a pass. Publish marks whether its decoded
// result goes to the telemetry sink (unit 0 results are debug-only).
type Step struct {
	Command masterpower.Command
	Publish bool
}

// InitStep is one command of the one-shot startup sequence. A non-mandatory
// step may fail without aborting initialization.
type InitStep struct {
	Command   masterpower.Command
	Mandatory bool
}

// InitPlan is the fixed identity/version sequence run once before polling:
// serial number (tolerated failure), protocol id, firmware version.
func InitPlan() []InitStep {
	return []InitStep{
		{Command: masterpower.NewCommand(masterpower.KindDeviceID), Mandatory: false},
		{Command: masterpower.NewCommand(masterpower.KindProtocolID), Mandatory: true},
		{Command: masterpower.NewCommand(masterpower.KindFirmwareVersion), Mandatory: true},
	}
}

// InnerPlan selects the fast-cadence status commands of one inner pass.
// Default mode runs the single aggregate inquiry; phocos mode runs the
// per-unit inquiry for every unit in range, starting at 0 only when debug is
// enabled. Unit 0's result is only published when debug is enabled.
func InnerPlan(mode string, debug bool, inverterCount uint) ([]Step, error) {
	if mode != config.ModePhocos {
		return []Step{{Command: masterpower.NewCommand(masterpower.KindGeneralStatus), Publish: true}}, nil
	}

	startIndex := 1
	if debug {
		startIndex = 0
	}
	var steps []Step
	for index := startIndex; index <= int(inverterCount); index++ {
		cmd, err := masterpower.NewParallelStatusCommand(index)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{
			Command: cmd,
			Publish: index != 0 || debug,
		})
	}
	return steps, nil
}

// OuterPlan selects the slow-cadence commands closing one outer pass: device
// mode, warning status and the mode-selected rating schema.
func OuterPlan(mode string) []Step {
	ratingKind := masterpower.KindRating
	if mode == config.ModePhocos {
		ratingKind = masterpower.KindRatingReduced
	}
	return []Step{
		{Command: masterpower.NewCommand(masterpower.KindDeviceMode), Publish: true},
		{Command: masterpower.NewCommand(masterpower.KindWarningStatus), Publish: true},
		{Command: masterpower.NewCommand(ratingKind), Publish: true},
	}
}
