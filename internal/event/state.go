package event

import "github.com/zamyatin-zkex/baseflow/internal/entity"

type SnapshotUpdated struct {
	Snapshot entity.MetricsSnapshot
}

type CommandCompleted struct {
	Command entity.CommandKind
	State   entity.CommandState
}
