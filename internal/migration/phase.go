package migration

// Phase is a state of one migration run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnectingTarget
	PhaseEnsuringDatabase
	PhaseReconnectedToTargetDatabase
	PhaseCreatingSchema
	PhaseApplyingConstraints
	PhaseTransferringData
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnectingTarget:
		return "connecting target"
	case PhaseEnsuringDatabase:
		return "ensuring database"
	case PhaseReconnectedToTargetDatabase:
		return "reconnecting to target database"
	case PhaseCreatingSchema:
		return "creating schema"
	case PhaseApplyingConstraints:
		return "applying constraints"
	case PhaseTransferringData:
		return "transferring data"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}
