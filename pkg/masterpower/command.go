package masterpower

import "fmt"

// CommandKind enumerates the fixed MasterPower/Voltronic inquiry catalogue.
// The set is closed: new device families reuse these kinds with a different
// response schema (see KindRatingReduced).
type CommandKind int

const (
	KindDeviceID CommandKind = iota
	KindProtocolID
	KindFirmwareVersion
	KindDeviceMode
	KindWarningStatus
	KindRating
	KindRatingReduced
	KindGeneralStatus
	KindParallelStatus
)

const MaxParallelIndex = 9

// Command is one request of the catalogue. Index is only meaningful for
// KindParallelStatus (parallel unit 0..9).
type Command struct {
	Kind  CommandKind
	Index int
}

func NewCommand(kind CommandKind) Command {
	return Command{Kind: kind}
}

// NewParallelStatusCommand builds the per-unit general status inquiry (QPGSn).
func NewParallelStatusCommand(index int) (Command, error) {
	if index < 0 || index > MaxParallelIndex {
		return Command{}, fmt.Errorf("masterpower: parallel index %d out of range [0, %d]", index, MaxParallelIndex)
	}
	return Command{Kind: KindParallelStatus, Index: index}, nil
}

// Wire returns the request bytes before framing, e.g. "QPIGS" or "QPGS2".
func (c Command) Wire() string {
	switch c.Kind {
	case KindDeviceID:
		return "QID"
	case KindProtocolID:
		return "QPI"
	case KindFirmwareVersion:
		return "QVFW"
	case KindDeviceMode:
		return "QMOD"
	case KindWarningStatus:
		return "QPIWS"
	case KindRating, KindRatingReduced:
		// reduced rating is the same inquiry, parsed against a smaller schema
		return "QPIRI"
	case KindGeneralStatus:
		return "QPIGS"
	case KindParallelStatus:
		return fmt.Sprintf("QPGS%d", c.Index)
	default:
		return ""
	}
}

// Suffix returns the telemetry channel suffix a decoded result is published
// under ({topic}/{suffix}).
func (c Command) Suffix() string {
	switch c.Kind {
	case KindDeviceID:
		return "qid"
	case KindProtocolID:
		return "qpi"
	case KindFirmwareVersion:
		return "qvfw"
	case KindDeviceMode:
		return "qmod"
	case KindWarningStatus:
		return "qpiws"
	case KindRating, KindRatingReduced:
		return "qpiri"
	case KindGeneralStatus:
		return "qpigs"
	case KindParallelStatus:
		return fmt.Sprintf("qpgs%d", c.Index)
	default:
		return ""
	}
}

func (c Command) String() string {
	return c.Wire()
}
