package core

// RoleState describes where a role is in its per-round cycle.
type RoleState string

const (
	StateIdle      RoleState = "idle"
	StateObserving RoleState = "observing"
	StateThinking  RoleState = "thinking"
	StateActing    RoleState = "acting"
	StateDone      RoleState = "done"
	StateFailed    RoleState = "failed"
)
